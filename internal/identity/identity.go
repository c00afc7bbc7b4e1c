// Package identity supplies rotating outbound identities: a browser
// fingerprint plus an optional proxy endpoint drawn from a pool.
package identity

import (
	"errors"
	"sync"
	"time"
)

// ErrNoIdentity is returned when every pool entry is cooling down.
// Callers treat it as fatal for the current attempt, not the whole run.
var ErrNoIdentity = errors.New("identity: pool exhausted")

// Identity is the fingerprint and egress point presented for one request.
type Identity struct {
	UserAgent         string
	AcceptLanguage    string
	Headers           map[string]string
	ViewportWidth     int
	ViewportHeight    int
	DeviceScaleFactor float64
	Touch             bool
	Proxy             string
}

var defaultHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Cache-Control":             "max-age=0",
}

var fingerprints = []Identity{
	{
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage:    "en-US,en;q=0.9",
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		DeviceScaleFactor: 1,
	},
	{
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		AcceptLanguage:    "en-US,en;q=0.9",
		ViewportWidth:     1536,
		ViewportHeight:    864,
		DeviceScaleFactor: 1.25,
	},
	{
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		AcceptLanguage:    "en-US,en;q=0.8",
		ViewportWidth:     1280,
		ViewportHeight:    1080,
		DeviceScaleFactor: 1,
	},
	{
		UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
		AcceptLanguage:    "en-US,en;q=0.9,es;q=0.5",
		ViewportWidth:     1440,
		ViewportHeight:    900,
		DeviceScaleFactor: 2,
	},
	{
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91",
		AcceptLanguage:    "en-US,en;q=0.9",
		ViewportWidth:     1366,
		ViewportHeight:    768,
		DeviceScaleFactor: 1,
		Touch:             true,
	},
}

// Options configures a Rotator.
type Options struct {
	// Proxies seeds the proxy pool; empty means direct connections.
	Proxies []string
	// RequireProxy fails Next instead of falling back to a direct
	// connection when no proxy is usable.
	RequireProxy bool
	// Cooldown is how long a failed identity is skipped before reuse.
	Cooldown time.Duration
}

const defaultCooldown = 2 * time.Minute

// Rotator hands out identities round-robin with a failure-aware skip:
// an entry that produced a blocked or network-error outcome is put on a
// cooldown before it is eligible again.
type Rotator struct {
	mu           sync.Mutex
	fingerprints []Identity
	proxies      []string
	nextFP       int
	nextProxy    int
	requireProxy bool
	cooldown     time.Duration
	coolingUntil map[string]time.Time

	// now is swapped out in tests.
	now func() time.Time
}

// NewRotator creates a rotator over the built-in fingerprint set.
func NewRotator(opts Options) *Rotator {
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Rotator{
		fingerprints: fingerprints,
		proxies:      append([]string(nil), opts.Proxies...),
		requireProxy: opts.RequireProxy,
		cooldown:     cooldown,
		coolingUntil: make(map[string]time.Time),
		now:          time.Now,
	}
}

// AddProxies appends endpoints to the proxy pool, skipping duplicates.
func (r *Rotator) AddProxies(proxies []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool, len(r.proxies))
	for _, p := range r.proxies {
		seen[p] = true
	}
	for _, p := range proxies {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		r.proxies = append(r.proxies, p)
	}
}

// Next returns the next usable identity.
func (r *Rotator) Next() (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.nextFingerprint()
	if !ok {
		return Identity{}, ErrNoIdentity
	}

	if len(r.proxies) > 0 {
		proxy, ok := r.nextUsableProxy()
		if ok {
			id.Proxy = proxy
		} else if r.requireProxy {
			return Identity{}, ErrNoIdentity
		}
	} else if r.requireProxy {
		return Identity{}, ErrNoIdentity
	}

	headers := make(map[string]string, len(defaultHeaders)+1)
	for k, v := range defaultHeaders {
		headers[k] = v
	}
	headers["Accept-Language"] = id.AcceptLanguage
	id.Headers = headers
	return id, nil
}

func (r *Rotator) nextFingerprint() (Identity, bool) {
	for i := 0; i < len(r.fingerprints); i++ {
		id := r.fingerprints[r.nextFP]
		r.nextFP = (r.nextFP + 1) % len(r.fingerprints)
		if !r.cooling(id.UserAgent) {
			return id, true
		}
	}
	return Identity{}, false
}

func (r *Rotator) nextUsableProxy() (string, bool) {
	for i := 0; i < len(r.proxies); i++ {
		p := r.proxies[r.nextProxy]
		r.nextProxy = (r.nextProxy + 1) % len(r.proxies)
		if !r.cooling(p) {
			return p, true
		}
	}
	return "", false
}

func (r *Rotator) cooling(key string) bool {
	until, ok := r.coolingUntil[key]
	if !ok {
		return false
	}
	if r.now().After(until) {
		delete(r.coolingUntil, key)
		return false
	}
	return true
}

// ReportFailure deprioritizes an identity whose request was blocked or
// failed at the network level.
func (r *Rotator) ReportFailure(id Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until := r.now().Add(r.cooldown)
	r.coolingUntil[id.UserAgent] = until
	if id.Proxy != "" {
		r.coolingUntil[id.Proxy] = until
	}
}

// ProxyCount returns the current proxy pool size.
func (r *Rotator) ProxyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}
