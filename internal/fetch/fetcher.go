// Package fetch performs single logical page retrievals with human-like
// pacing and maps every failure mode to a typed outcome. Retry policy
// lives in Retry, never inside a fetcher, so identity rotation can be
// interleaved between attempts.
package fetch

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/MarcChen/CertifyHub/internal/browser"
	"github.com/MarcChen/CertifyHub/internal/challenge"
	"github.com/MarcChen/CertifyHub/internal/identity"
)

// Outcome classifies a fetch attempt.
type Outcome int

const (
	OutcomePage Outcome = iota
	OutcomeChallenged
	OutcomeBlocked
	OutcomeNetworkError
)

func (o Outcome) String() string {
	switch o {
	case OutcomePage:
		return "page"
	case OutcomeChallenged:
		return "challenged"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one fetch attempt. HTML is only set when
// Outcome is OutcomePage.
type Result struct {
	Outcome  Outcome
	HTML     string
	FinalURL string
	Title    string
	Err      error
}

// Fetcher retrieves one rendered page per call.
type Fetcher interface {
	Fetch(ctx context.Context, target string, id identity.Identity) Result
}

var blockMarkers = []string{
	"access denied",
	"403 forbidden",
	"you have been blocked",
	"ip address has been banned",
}

func looksBlocked(html string) bool {
	lower := strings.ToLower(html)
	for _, m := range blockMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// BrowserFetcher fetches pages through a rendering browser.
type BrowserFetcher struct {
	b          *browser.Browser
	challenges *challenge.Handler
	timeout    time.Duration
	log        zerolog.Logger
	fetches    atomic.Int64
}

// NewBrowserFetcher wires a fetcher over a shared browser instance.
func NewBrowserFetcher(b *browser.Browser, timeout time.Duration, log zerolog.Logger) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BrowserFetcher{
		b:          b,
		challenges: challenge.NewHandler(log),
		timeout:    timeout,
		log:        log,
	}
}

// Fetches returns how many budget units have been consumed so far.
func (f *BrowserFetcher) Fetches() int64 {
	return f.fetches.Load()
}

// Fetch navigates to target with the given identity and returns a single
// typed outcome. It never retries.
func (f *BrowserFetcher) Fetch(ctx context.Context, target string, id identity.Identity) Result {
	f.fetches.Add(1)

	page, err := f.b.NewPage()
	if err != nil {
		return Result{Outcome: OutcomeNetworkError, Err: err}
	}
	defer page.Close()

	if err := f.applyIdentity(page, id); err != nil {
		return Result{Outcome: OutcomeNetworkError, Err: err}
	}

	page = page.Context(ctx)
	if err := page.Timeout(f.timeout).Navigate(target); err != nil {
		return Result{Outcome: OutcomeNetworkError, Err: err}
	}
	if err := page.Timeout(f.timeout).WaitLoad(); err != nil {
		return Result{Outcome: OutcomeNetworkError, Err: err}
	}
	// Let JS-driven pages finish populating before extraction.
	wait := page.Timeout(f.timeout).WaitRequestIdle(
		500*time.Millisecond, nil, nil,
		[]proto.NetworkResourceType{proto.NetworkResourceTypeImage, proto.NetworkResourceTypeMedia},
	)
	wait()

	if err := browser.Pause(ctx, 500*time.Millisecond, 2*time.Second); err != nil {
		return Result{Outcome: OutcomeNetworkError, Err: err}
	}
	browser.HumanScroll(ctx, page)

	html, err := page.HTML()
	if err != nil {
		return Result{Outcome: OutcomeNetworkError, Err: err}
	}

	if looksBlocked(html) {
		return Result{Outcome: OutcomeBlocked}
	}

	if challenge.Detect(html) {
		switch f.challenges.Clear(ctx, page) {
		case challenge.Cleared:
			html, err = page.HTML()
			if err != nil {
				return Result{Outcome: OutcomeNetworkError, Err: err}
			}
		case challenge.Unresolved:
			return Result{Outcome: OutcomeChallenged}
		}
	}

	html = f.stripPaywallOverlays(page, html)

	info, err := page.Info()
	finalURL := target
	if err == nil {
		finalURL = info.URL
	}
	title := ""
	if t, err := page.Eval(`() => document.title`); err == nil {
		title = t.Value.Str()
	}

	return Result{Outcome: OutcomePage, HTML: html, FinalURL: finalURL, Title: title}
}

func (f *BrowserFetcher) applyIdentity(page *rod.Page, id identity.Identity) error {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      id.UserAgent,
		AcceptLanguage: id.AcceptLanguage,
	}); err != nil {
		return err
	}
	if id.ViewportWidth > 0 && id.ViewportHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             id.ViewportWidth,
			Height:            id.ViewportHeight,
			DeviceScaleFactor: id.DeviceScaleFactor,
			Mobile:            false,
		}); err != nil {
			return err
		}
	}
	if len(id.Headers) > 0 {
		headerList := make([]string, 0, len(id.Headers)*2)
		for k, v := range id.Headers {
			headerList = append(headerList, k, v)
		}
		if _, err := page.SetExtraHeaders(headerList); err != nil {
			return err
		}
	}
	return nil
}

// stripPaywallOverlays removes display-gating overlays and resets the CSS
// that hides content. Most paywall implementations still ship the full
// markup and only hide it visually, so the rewritten DOM exposes it.
func (f *BrowserFetcher) stripPaywallOverlays(page *rod.Page, html string) string {
	lower := strings.ToLower(html)
	if !strings.Contains(lower, "premium") && !strings.Contains(lower, "subscribe") && !strings.Contains(lower, "paywall") {
		return html
	}

	val, err := page.Timeout(10 * time.Second).Eval(`() => {
		const overlays = document.querySelectorAll('.paywall, .modal, .popup, .overlay, .subscription-required');
		overlays.forEach(o => o.parentNode && o.parentNode.removeChild(o));

		const reset = els => els.forEach(el => {
			if (!el) return;
			el.style.overflow = 'visible';
			el.style.position = 'static';
			el.style.display = 'block';
			el.style.filter = 'none';
			el.style.opacity = '1';
			el.classList.remove('blur');
			el.classList.remove('hidden');
		});
		reset([document.body, document.documentElement]);
		reset(Array.from(document.querySelectorAll('main, article, .content, .question, .exam-question-card')));

		return document.documentElement.outerHTML;
	}`)
	if err != nil {
		f.log.Warn().Err(err).Msg("paywall overlay strip failed, using gated content")
		return html
	}
	stripped := val.Value.Str()
	if stripped == "" {
		return html
	}
	f.log.Debug().Msg("stripped paywall overlays")
	return stripped
}
