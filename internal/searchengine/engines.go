package searchengine

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func init() {
	Register(&Google{})
	Register(&Bing{})
	Register(&DuckDuckGo{})
}

// anchorScan is the shared fallback: collect every absolute link on the
// page with visible text. Engines fall back to it when their result
// selectors come up empty (markup changes frequently).
func anchorScan(doc *goquery.Document) []Result {
	var results []Result
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !strings.HasPrefix(href, "http") {
			return
		}
		title := strings.TrimSpace(a.Text())
		if title == "" {
			return
		}
		results = append(results, Result{Title: title, URL: href})
	})
	return results
}

func parseDoc(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return doc
}

// Google searches www.google.com.
type Google struct{}

func (e *Google) Name() string { return "google" }

func (e *Google) SearchURL(query string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

func (e *Google) ParseResults(html string) []Result {
	doc := parseDoc(html)
	if doc == nil {
		return nil
	}
	var results []Result
	doc.Find("div.g").Each(func(_ int, g *goquery.Selection) {
		a := g.Find("a[href]").First()
		title := strings.TrimSpace(g.Find("h3").First().Text())
		href := a.AttrOr("href", "")
		if title == "" || !strings.HasPrefix(href, "http") {
			return
		}
		results = append(results, Result{
			Title:   title,
			URL:     href,
			Snippet: strings.TrimSpace(g.Find("div[data-sncf], div.VwiC3b").First().Text()),
		})
	})
	if len(results) == 0 {
		return anchorScan(doc)
	}
	return results
}

// Bing searches www.bing.com.
type Bing struct{}

func (e *Bing) Name() string { return "bing" }

func (e *Bing) SearchURL(query string) string {
	return "https://www.bing.com/search?q=" + url.QueryEscape(query)
}

func (e *Bing) ParseResults(html string) []Result {
	doc := parseDoc(html)
	if doc == nil {
		return nil
	}
	var results []Result
	doc.Find("#b_results li.b_algo").Each(func(_ int, li *goquery.Selection) {
		a := li.Find("h2 a").First()
		title := strings.TrimSpace(a.Text())
		href := a.AttrOr("href", "")
		if title == "" || href == "" {
			return
		}
		snippet := li.Find(".b_caption p").First()
		if snippet.Length() == 0 {
			snippet = li.Find("p").First()
		}
		results = append(results, Result{
			Title:   title,
			URL:     href,
			Snippet: strings.TrimSpace(snippet.Text()),
		})
	})
	if len(results) == 0 {
		return anchorScan(doc)
	}
	return results
}

// DuckDuckGo searches duckduckgo.com.
type DuckDuckGo struct{}

func (e *DuckDuckGo) Name() string { return "duckduckgo" }

func (e *DuckDuckGo) SearchURL(query string) string {
	return "https://duckduckgo.com/?q=" + url.QueryEscape(query)
}

func (e *DuckDuckGo) ParseResults(html string) []Result {
	doc := parseDoc(html)
	if doc == nil {
		return nil
	}
	var results []Result
	doc.Find("article[data-testid='result'], div.result").Each(func(_ int, r *goquery.Selection) {
		a := r.Find("a[data-testid='result-title-a'], a.result__a").First()
		title := strings.TrimSpace(a.Text())
		href := a.AttrOr("href", "")
		if title == "" || !strings.HasPrefix(href, "http") {
			return
		}
		results = append(results, Result{
			Title:   title,
			URL:     href,
			Snippet: strings.TrimSpace(r.Find("div[data-result='snippet'], .result__snippet").First().Text()),
		})
	})
	if len(results) == 0 {
		return anchorScan(doc)
	}
	return results
}
