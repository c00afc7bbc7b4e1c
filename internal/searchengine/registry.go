// Package searchengine locates pages through public web search. Engines
// register themselves and are tried in registration order, so a blocked
// engine can be skipped in favor of the next one.
package searchengine

import "strings"

// Result is a single search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Engine builds search URLs and parses result listings for one provider.
type Engine interface {
	Name() string
	SearchURL(query string) string
	ParseResults(html string) []Result
}

var (
	registry = map[string]Engine{}
	order    []string
)

// Register adds an engine to the registry.
func Register(e Engine) {
	key := strings.ToLower(e.Name())
	if _, ok := registry[key]; !ok {
		order = append(order, key)
	}
	registry[key] = e
}

// Get returns a registered engine by name.
func Get(name string) (Engine, bool) {
	e, ok := registry[strings.ToLower(name)]
	return e, ok
}

// All returns every registered engine in registration order.
func All() []Engine {
	engines := make([]Engine, 0, len(order))
	for _, key := range order {
		engines = append(engines, registry[key])
	}
	return engines
}
