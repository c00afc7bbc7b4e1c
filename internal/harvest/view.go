package harvest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/MarcChen/CertifyHub/internal/browser"
	"github.com/MarcChen/CertifyHub/internal/examtopics"
	"github.com/MarcChen/CertifyHub/internal/fetch"
	"github.com/MarcChen/CertifyHub/internal/identity"
	"github.com/MarcChen/CertifyHub/internal/merge"
	"github.com/MarcChen/CertifyHub/internal/store"
)

// ErrNoListing is the run-level fatal condition: no view page could be
// recovered and no total count is known, so nothing bounds the search
// range. Everything else degrades to partial results.
var ErrNoListing = errors.New("harvest: could not recover the initial listing")

// In recursive mode, stop after this many consecutive views without
// questions.
const maxConsecutiveEmptyViews = 3

// ViewReport summarizes a view-phase run.
type ViewReport struct {
	PagesFetched   int
	PagesAbandoned []int
	Emitted        int
}

// DelayRange bounds the randomized pause between units of work. A zero
// Max disables the pause.
type DelayRange struct {
	Min, Max time.Duration
}

func (d DelayRange) wait(ctx context.Context) error {
	if d.Max <= 0 {
		return ctx.Err()
	}
	return browser.Pause(ctx, d.Min, d.Max)
}

// ViewHarvester walks the free listing pages.
type ViewHarvester struct {
	fetcher fetch.Fetcher
	retry   fetch.Retry
	rotator *identity.Rotator
	merger  *merge.Merger
	store   *store.Store
	log     zerolog.Logger

	// PageDelay spreads out view loads; the listing pages rate-limit
	// harder than the discussion pages.
	PageDelay DelayRange
}

// NewViewHarvester wires a view-phase harvester.
func NewViewHarvester(f fetch.Fetcher, retry fetch.Retry, rot *identity.Rotator, m *merge.Merger, st *store.Store, log zerolog.Logger) *ViewHarvester {
	return &ViewHarvester{
		fetcher:   f,
		retry:     retry,
		rotator:   rot,
		merger:    m,
		store:     st,
		log:       log,
		PageDelay: DelayRange{Min: 5 * time.Second, Max: 10 * time.Second},
	}
}

// Run fetches view pages starting at 1. Non-recursive runs cover the two
// free pages; recursive runs keep walking until pages come back empty or
// the declared total is reached. A page whose retries exhaust is abandoned
// and the harvest continues with whatever it already has.
func (h *ViewHarvester) Run(ctx context.Context, s *Session) (ViewReport, error) {
	var report ViewReport
	consecutiveEmpty := 0

	for n := 1; ; n++ {
		if !s.Recursive && n > freeViewPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		target := s.Config.ViewPageURL(n)
		h.log.Info().Int("view", n).Str("url", target).Msg("fetching view page")

		res := h.retry.Do(ctx, h.fetcher, h.rotator, target, h.log)
		if res.Outcome != fetch.OutcomePage {
			h.log.Warn().Int("view", n).Str("outcome", res.Outcome.String()).Msg("view page abandoned")
			report.PagesAbandoned = append(report.PagesAbandoned, n)
			if s.Recursive {
				// An abandoned page deep into a recursive walk usually
				// means the block has set in; stop instead of hammering.
				break
			}
			continue
		}
		report.PagesFetched++

		questions, total, err := examtopics.ParseViewPage(res.HTML, s.Topic)
		if err != nil {
			h.log.Warn().Int("view", n).Err(err).Msg("view page did not parse")
			report.PagesAbandoned = append(report.PagesAbandoned, n)
			continue
		}
		if s.SetTotal(total) {
			h.log.Info().Int("total_questions", total).Msg("discovered declared question count")
		}

		if len(questions) == 0 {
			consecutiveEmpty++
			if s.Recursive && consecutiveEmpty >= maxConsecutiveEmptyViews {
				h.log.Info().Int("view", n).Msg("consecutive empty views, stopping walk")
				break
			}
			continue
		}
		consecutiveEmpty = 0

		emitted := 0
		for _, q := range questions {
			if !s.withinCeiling(q.QuestionNumber) {
				continue
			}
			q.Source = examtopics.PhaseView
			if h.merger.Merge(q) != merge.SkippedDuplicate {
				h.store.MarkDirty()
				emitted++
			}
		}
		report.Emitted += emitted
		h.log.Info().Int("view", n).Int("new_questions", emitted).Msg("view page extracted")

		if err := h.store.Persist(dataset(s, h.merger)); err != nil {
			return report, err
		}

		if s.Recursive && s.Total() > 0 && h.merger.Len() >= s.Total() {
			h.log.Info().Msg("all declared questions recovered from views")
			break
		}

		if err := h.PageDelay.wait(ctx); err != nil {
			return report, err
		}
	}

	if report.Emitted == 0 && s.Total() == 0 && h.merger.Len() == 0 {
		return report, ErrNoListing
	}
	return report, nil
}
