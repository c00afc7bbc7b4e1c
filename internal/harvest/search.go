package harvest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
	"github.com/rs/zerolog"

	"github.com/MarcChen/CertifyHub/internal/examtopics"
	"github.com/MarcChen/CertifyHub/internal/fetch"
	"github.com/MarcChen/CertifyHub/internal/identity"
	"github.com/MarcChen/CertifyHub/internal/merge"
	"github.com/MarcChen/CertifyHub/internal/searchengine"
	"github.com/MarcChen/CertifyHub/internal/store"
)

// ErrNoMatchingResult means no search engine surfaced a usable discussion
// link for a question. Non-fatal; the question is reported unresolved.
var ErrNoMatchingResult = errors.New("harvest: no matching search result")

// Jaro-Winkler floor for the fuzzy relevance tier.
const fuzzyMatchThreshold = 0.82

// SearchReport summarizes a search-phase run.
type SearchReport struct {
	Attempted  int
	Recovered  int
	Unresolved []int
}

// SearchHarvester recovers paywalled questions one search at a time.
type SearchHarvester struct {
	fetcher fetch.Fetcher
	retry   fetch.Retry
	rotator *identity.Rotator
	merger  *merge.Merger
	store   *store.Store
	engines []searchengine.Engine
	log     zerolog.Logger

	// PersistPerBatch trades durability for throughput: persist once per
	// completed batch instead of after every merged question.
	PersistPerBatch bool
	// QuestionDelay paces requests within a batch, BatchDelay between
	// batches.
	QuestionDelay DelayRange
	BatchDelay    DelayRange
}

// NewSearchHarvester wires a search-phase harvester over all registered
// search engines.
func NewSearchHarvester(f fetch.Fetcher, retry fetch.Retry, rot *identity.Rotator, m *merge.Merger, st *store.Store, log zerolog.Logger) *SearchHarvester {
	return &SearchHarvester{
		fetcher:       f,
		retry:         retry,
		rotator:       rot,
		merger:        m,
		store:         st,
		engines:       searchengine.All(),
		log:           log,
		QuestionDelay: DelayRange{Min: 2 * time.Second, Max: 4 * time.Second},
		BatchDelay:    DelayRange{Min: 5 * time.Second, Max: 10 * time.Second},
	}
}

type searchResult struct {
	question int
	record   examtopics.Question
	err      error
}

// Run harvests every question in [StartQuestion, min(total, ceiling)] not
// already satisfied. Questions are processed in batches of BatchSize;
// fetches within a batch run concurrently but records are merged
// serially, so dataset write ordering stays deterministic. One unresolved
// question never blocks the rest of its batch.
func (h *SearchHarvester) Run(ctx context.Context, s *Session) (SearchReport, error) {
	var report SearchReport

	end := s.Total()
	if end == 0 {
		return report, fmt.Errorf("%w: no declared question count to bound the search range", ErrNoListing)
	}
	if s.MaxQuestions > 0 && s.MaxQuestions < end {
		end = s.MaxQuestions
	}

	var pending []int
	for i := s.StartQuestion; i <= end; i++ {
		if !h.merger.Has(s.Topic, i) {
			pending = append(pending, i)
		}
	}
	report.Attempted = len(pending)
	h.log.Info().
		Int("start", s.StartQuestion).
		Int("end", end).
		Int("pending", len(pending)).
		Msg("starting search phase")

	for start := 0; start < len(pending); start += s.BatchSize {
		// Reaching the ceiling or a cancellation stops scheduling new
		// batches; in-flight fetches below always finish and merge.
		if err := ctx.Err(); err != nil {
			report.Unresolved = append(report.Unresolved, pending[start:]...)
			break
		}

		batch := pending[start:min(start+s.BatchSize, len(pending))]
		results := make(chan searchResult, len(batch))
		for _, question := range batch {
			go func(question int) {
				record, err := h.harvestOne(ctx, s, question)
				results <- searchResult{question: question, record: record, err: err}
			}(question)
		}

		merged := false
		for range batch {
			res := <-results
			if res.err != nil {
				h.log.Warn().Int("question", res.question).Err(res.err).Msg("question unresolved")
				report.Unresolved = append(report.Unresolved, res.question)
				continue
			}
			if h.merger.Merge(res.record) != merge.SkippedDuplicate {
				h.store.MarkDirty()
				merged = true
			}
			report.Recovered++
			h.log.Info().Int("question", res.question).Msg("question recovered")

			if !h.PersistPerBatch && merged {
				if err := h.store.Persist(dataset(s, h.merger)); err != nil {
					return report, err
				}
			}
		}

		if h.PersistPerBatch && merged {
			if err := h.store.Persist(dataset(s, h.merger)); err != nil {
				return report, err
			}
		}

		if start+s.BatchSize < len(pending) {
			if err := h.BatchDelay.wait(ctx); err != nil {
				report.Unresolved = append(report.Unresolved, pending[start+s.BatchSize:]...)
				break
			}
		}
	}

	sort.Ints(report.Unresolved)
	return report, h.store.Persist(dataset(s, h.merger))
}

// harvestOne locates and extracts a single question. Every failure comes
// back as an error; the caller records it as unresolved and moves on.
func (h *SearchHarvester) harvestOne(ctx context.Context, s *Session, question int) (examtopics.Question, error) {
	link := h.findDiscussionURL(ctx, s, question)
	if link == "" {
		// Last resort: the discussion slug is predictable enough that a
		// direct guess often lands after redirects.
		link = s.Config.DirectDiscussionURL(s.Topic, question)
		h.log.Debug().Int("question", question).Str("url", link).Msg("no search hit, trying direct url")
	}

	res := h.retry.Do(ctx, h.fetcher, h.rotator, link, h.log)
	if res.Outcome != fetch.OutcomePage {
		return examtopics.Question{}, fmt.Errorf("discussion fetch failed (%s): %w", res.Outcome, errOf(res))
	}
	if examtopics.IsPaywalled(res.HTML) {
		// The fetcher already stripped display gating; the structural
		// content is still parsed below.
		h.log.Debug().Int("question", question).Msg("discussion page is display-gated")
	}

	record, err := examtopics.ParseDiscussion(res.HTML, s.Topic, question)
	if err != nil {
		return examtopics.Question{}, err
	}
	record.Source = examtopics.PhaseSearch

	// Pace before releasing the worker slot; a cancellation here does not
	// invalidate the record we already hold.
	_ = h.QuestionDelay.wait(ctx)
	return record, nil
}

func errOf(res fetch.Result) error {
	if res.Err != nil {
		return res.Err
	}
	return ErrNoMatchingResult
}

// findDiscussionURL queries each engine in order and applies the
// relevance rule to its results. Empty string means nothing matched.
func (h *SearchHarvester) findDiscussionURL(ctx context.Context, s *Session, question int) string {
	query := s.Config.SearchQuery(s.Topic, question)
	for _, engine := range h.engines {
		if ctx.Err() != nil {
			return ""
		}
		res := h.retry.Do(ctx, h.fetcher, h.rotator, engine.SearchURL(query), h.log)
		if res.Outcome != fetch.OutcomePage {
			continue
		}
		if link, ok := h.selectLink(engine.ParseResults(res.HTML), s, question); ok {
			h.log.Debug().
				Int("question", question).
				Str("engine", engine.Name()).
				Str("url", link).
				Msg("discussion link found")
			return link
		}
	}
	return ""
}

// selectLink picks the best-matching discussion link deterministically:
// an exact topic/question URL match beats a question-number mention in
// the title or snippet, which beats the highest Jaro-Winkler title
// similarity above the threshold. Ties keep the earliest result.
func (h *SearchHarvester) selectLink(results []searchengine.Result, s *Session, question int) (string, bool) {
	for _, r := range results {
		if s.Config.ValidDiscussionURL(r.URL, s.Topic, question) {
			return r.URL, true
		}
	}

	needle := fmt.Sprintf("question %d", question)
	for _, r := range results {
		if !strings.Contains(r.URL, "examtopics.com") || !strings.Contains(r.URL, "discussion") {
			continue
		}
		text := strings.ToLower(r.Title + " " + r.Snippet)
		if strings.Contains(text, needle+" ") || strings.HasSuffix(text, needle) || strings.Contains(text, needle+" discussion") {
			return r.URL, true
		}
	}

	expected := strings.ToLower(fmt.Sprintf("exam %s topic %d question %d discussion", s.Config.DisplayName, s.Topic, question))
	best := ""
	bestScore := fuzzyMatchThreshold
	for _, r := range results {
		if !strings.Contains(r.URL, "examtopics.com") {
			continue
		}
		score := matchr.JaroWinkler(strings.ToLower(r.Title), expected, false)
		if score > bestScore {
			bestScore = score
			best = r.URL
		}
	}
	return best, best != ""
}
