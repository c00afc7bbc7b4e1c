package harvest

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/MarcChen/CertifyHub/internal/examtopics"
	"github.com/MarcChen/CertifyHub/internal/merge"
)

// Stats aggregates both phases of a run for the end-of-run summary.
type Stats struct {
	Certification  string
	Topic          int
	TotalDeclared  int
	Collected      int
	WithAnswer     int
	FromViews      int
	FromSearch     int
	ViewPages      int
	SearchAttempts int
	// Fetches is the number of page loads the run consumed, filled in by
	// the caller from the fetcher's counter.
	Fetches    int64
	Unresolved []int
}

// Collect builds run statistics from the final merger state and the two
// phase reports. Either report may be zero-valued when its phase was
// skipped.
func Collect(s *Session, m *merge.Merger, vr ViewReport, sr SearchReport) Stats {
	st := Stats{
		Certification:  s.Certification,
		Topic:          s.Topic,
		TotalDeclared:  s.Total(),
		ViewPages:      vr.PagesFetched,
		SearchAttempts: sr.Attempted,
		Unresolved:     sr.Unresolved,
	}
	for _, q := range m.Snapshot() {
		st.Collected++
		if q.CorrectAnswer != "" {
			st.WithAnswer++
		}
		switch q.Source {
		case examtopics.PhaseView:
			st.FromViews++
		case examtopics.PhaseSearch:
			st.FromSearch++
		}
	}
	return st
}

// Render writes the summary table to w.
func (st Stats) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Harvest Summary")
	t.AppendRows([]table.Row{
		{"Certification", st.Certification},
		{"Topic", st.Topic},
		{"Declared questions", orUnknown(st.TotalDeclared)},
		{"Collected", st.Collected},
		{"With answer", fmt.Sprintf("%d (%s)", st.WithAnswer, percent(st.WithAnswer, st.Collected))},
		{"From view pages", st.FromViews},
		{"From search", st.FromSearch},
		{"View pages fetched", st.ViewPages},
		{"Search attempts", st.SearchAttempts},
		{"Page fetches", st.Fetches},
		{"Unresolved", formatQuestionList(st.Unresolved)},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}

func orUnknown(n int) string {
	if n <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d", n)
}

func percent(part, whole int) string {
	if whole == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(part)/float64(whole)*100)
}

func formatQuestionList(qs []int) string {
	if len(qs) == 0 {
		return "none"
	}
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = fmt.Sprintf("%d", q)
	}
	return fmt.Sprintf("%d: %s", len(qs), strings.Join(parts, ", "))
}
