// Package browser wraps a rod browser configured to blend in with
// regular desktop traffic.
package browser

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// Config controls browser startup.
type Config struct {
	ProxyURL string
	Headless bool
}

// Browser wraps a rod.Browser instance and its launcher.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
}

// New launches a browser with anti-automation-detection flags.
func New(cfg Config) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars").
		Set("disable-dev-shm-usage").
		Set("disable-popup-blocking").
		Set("no-first-run").
		Set("no-default-browser-check")

	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, err
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, err
	}

	return &Browser{browser: b, launcher: l, cfg: cfg}, nil
}

// NewPage creates a page with stealth patches applied (webdriver flag,
// plugin list, languages and friends overridden before any site script runs).
func (b *Browser) NewPage() (*rod.Page, error) {
	return stealth.Page(b.browser)
}

// Close shuts down the browser and cleans up the launcher.
func (b *Browser) Close() error {
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			return err
		}
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return nil
}
