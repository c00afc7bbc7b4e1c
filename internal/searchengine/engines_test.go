package searchengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryOrder(t *testing.T) {
	engines := All()
	require.Len(t, engines, 3)
	assert.Equal(t, "google", engines[0].Name())
	assert.Equal(t, "bing", engines[1].Name())
	assert.Equal(t, "duckduckgo", engines[2].Name())
}

func TestGet(t *testing.T) {
	e, ok := Get("Bing")
	require.True(t, ok)
	assert.Equal(t, "bing", e.Name())

	_, ok = Get("altavista")
	assert.False(t, ok)
}

func TestSearchURLEscapesQuery(t *testing.T) {
	e, _ := Get("google")
	assert.Equal(t,
		"https://www.google.com/search?q=examtopics+topic+1+question+34",
		e.SearchURL("examtopics topic 1 question 34"))
}

func TestGoogleParseResults(t *testing.T) {
	html := `
<div id="search">
  <div class="g">
    <a href="https://www.examtopics.com/discussions/x/view/1-topic-1-question-34-discussion/"><h3>Exam X topic 1 question 34 discussion</h3></a>
    <div class="VwiC3b">Question 34 discussion snippet.</div>
  </div>
  <div class="g">
    <a href="/relative/link"><h3>skipped</h3></a>
  </div>
</div>`
	e, _ := Get("google")
	results := e.ParseResults(html)
	require.Len(t, results, 1)
	assert.Equal(t, "Exam X topic 1 question 34 discussion", results[0].Title)
	assert.Contains(t, results[0].URL, "question-34-discussion")
	assert.Equal(t, "Question 34 discussion snippet.", results[0].Snippet)
}

func TestBingParseResults(t *testing.T) {
	html := `
<ol id="b_results">
  <li class="b_algo">
    <h2><a href="https://www.examtopics.com/discussions/x/view/1-topic-1-question-34-discussion/">Exam X question 34</a></h2>
    <div class="b_caption"><p>Snippet text.</p></div>
  </li>
</ol>`
	e, _ := Get("bing")
	results := e.ParseResults(html)
	require.Len(t, results, 1)
	assert.Equal(t, "Exam X question 34", results[0].Title)
	assert.Equal(t, "Snippet text.", results[0].Snippet)
}

func TestDuckDuckGoParseResults(t *testing.T) {
	html := `
<article data-testid="result">
  <a data-testid="result-title-a" href="https://www.examtopics.com/discussions/x/view/1-topic-1-question-34-discussion/">Exam X question 34</a>
  <div data-result="snippet">DDG snippet.</div>
</article>`
	e, _ := Get("duckduckgo")
	results := e.ParseResults(html)
	require.Len(t, results, 1)
	assert.Equal(t, "DDG snippet.", results[0].Snippet)
}

func TestAnchorScanFallback(t *testing.T) {
	html := `
<body>
  <a href="https://www.examtopics.com/discussions/x/view/9-topic-1-question-34-discussion/">Question 34 discussion</a>
  <a href="/internal">internal</a>
  <a href="https://example.com"></a>
</body>`
	e, _ := Get("google")
	results := e.ParseResults(html)
	require.Len(t, results, 1, "unknown markup falls back to plain anchors")
	assert.Equal(t, "Question 34 discussion", results[0].Title)
}
