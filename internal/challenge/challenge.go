// Package challenge detects automated-access interstitials and tries to
// clear them with behavioral heuristics. This is best effort: callers must
// treat Unresolved as a retryable failure, not a dead end.
package challenge

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/MarcChen/CertifyHub/internal/browser"
)

// Outcome is the result of a clearing attempt.
type Outcome int

const (
	NoneDetected Outcome = iota
	Cleared
	Unresolved
)

func (o Outcome) String() string {
	switch o {
	case NoneDetected:
		return "none_detected"
	case Cleared:
		return "cleared"
	case Unresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Text fragments that show up on verification interstitials but not on
// regular question pages.
var indicators = []string{
	"captcha",
	"verify you're a human",
	"verify you are human",
	"security check",
	"unusual traffic",
	"recaptcha",
	"human verification",
	"checking your browser",
	"cf-turnstile",
}

var signatureSelectors = []string{
	"iframe[src*='recaptcha']",
	"iframe[src*='captcha']",
	"div.g-recaptcha",
	"form#captcha",
	"div.cf-turnstile",
	"div[id*='captcha']",
	"form#challenge-form",
}

// Detect reports whether the page content carries a challenge signature.
func Detect(html string) bool {
	lower := strings.ToLower(html)
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	for _, sel := range signatureSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// Handler clears challenges on live pages.
type Handler struct {
	MaxAttempts int
	log         zerolog.Logger
}

// NewHandler returns a handler with the default attempt cap.
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{MaxAttempts: 3, log: log}
}

// Clear checks the page for a challenge and, if present, runs a bounded
// sequence of heuristics until the page stops matching challenge
// signatures or the attempt cap is hit.
func (h *Handler) Clear(ctx context.Context, page *rod.Page) Outcome {
	html, err := page.HTML()
	if err != nil {
		return Unresolved
	}
	if !Detect(html) {
		return NoneDetected
	}
	h.log.Info().Msg("challenge detected, attempting heuristic clearing")

	for attempt := 1; attempt <= h.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return Unresolved
		}
		h.applyHeuristics(ctx, page)

		html, err = page.HTML()
		if err != nil {
			continue
		}
		if !Detect(html) {
			h.log.Info().Int("attempt", attempt).Msg("challenge cleared")
			return Cleared
		}
		h.log.Debug().Int("attempt", attempt).Msg("challenge still present")
	}
	return Unresolved
}

// applyHeuristics runs one round of clearing: stale cookies out, a
// human-length pause, an "I'm not a robot" click when a checkbox exists,
// a reload and some natural interaction. Interstitials that just watch
// timing and input events often let the next load through.
func (h *Handler) applyHeuristics(ctx context.Context, page *rod.Page) {
	_ = proto.NetworkClearBrowserCookies{}.Call(page)

	if err := browser.Pause(ctx, 3*time.Second, 7*time.Second); err != nil {
		return
	}

	if checkbox, err := page.Timeout(2 * time.Second).Element("div.recaptcha-checkbox-border"); err == nil {
		_ = checkbox.Click(proto.InputMouseButtonLeft, 1)
		_ = browser.Pause(ctx, time.Second, 2*time.Second)
	}

	if err := page.Reload(); err == nil {
		_ = page.Timeout(10 * time.Second).WaitLoad()
	}
	_ = browser.Pause(ctx, time.Second, 3*time.Second)

	browser.HumanInteract(ctx, page)

	// Managed challenge forms sometimes self-submit after a grace period.
	if form, err := page.Timeout(2 * time.Second).Element("form#challenge-form"); err == nil {
		_ = browser.Pause(ctx, 4*time.Second, 6*time.Second)
		if btn, err := form.Element(`input[type="submit"], button[type="submit"]`); err == nil {
			_ = btn.Click(proto.InputMouseButtonLeft, 1)
			_ = browser.Pause(ctx, 2*time.Second, 4*time.Second)
		}
	}
}
