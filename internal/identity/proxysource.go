package identity

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Public listing sites that publish free HTTPS proxies in the same
// table#proxylisttable layout.
var defaultProxySources = []string{
	"https://free-proxy-list.net/",
	"https://www.sslproxies.org/",
	"https://www.us-proxy.org/",
}

// PoolSource refreshes the rotator's proxy pool from public listing sites.
type PoolSource struct {
	client  *resty.Client
	sources []string
	log     zerolog.Logger
}

// NewPoolSource creates a source over the default listing sites.
func NewPoolSource(log zerolog.Logger) *PoolSource {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	// The listing sites sit behind Cloudflare themselves.
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	return &PoolSource{
		client:  client,
		sources: defaultProxySources,
		log:     log,
	}
}

// Fetch scrapes all sources and returns the deduplicated HTTPS proxies
// found. A failing source is logged and skipped.
func (s *PoolSource) Fetch(ctx context.Context) []string {
	seen := make(map[string]bool)
	var proxies []string
	for _, source := range s.sources {
		found, err := s.fetchOne(ctx, source)
		if err != nil {
			s.log.Warn().Str("source", source).Err(err).Msg("proxy source failed")
			continue
		}
		for _, p := range found {
			if seen[p] {
				continue
			}
			seen[p] = true
			proxies = append(proxies, p)
		}
		s.log.Debug().Str("source", source).Int("count", len(found)).Msg("proxy source scraped")
	}
	return proxies
}

func (s *PoolSource) fetchOne(ctx context.Context, source string) ([]string, error) {
	res, err := s.client.R().SetContext(ctx).Get(source)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, err
	}

	var proxies []string
	doc.Find("table#proxylisttable tbody tr, table.table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 7 {
			return
		}
		ip := strings.TrimSpace(cols.Eq(0).Text())
		port := strings.TrimSpace(cols.Eq(1).Text())
		https := strings.TrimSpace(cols.Eq(6).Text())
		if ip == "" || port == "" || !strings.EqualFold(https, "yes") {
			return
		}
		proxies = append(proxies, "http://"+ip+":"+port)
	})
	return proxies, nil
}

// Refresh fetches proxies and feeds them into the rotator.
func (s *PoolSource) Refresh(ctx context.Context, r *Rotator) int {
	proxies := s.Fetch(ctx)
	r.AddProxies(proxies)
	return len(proxies)
}
