// Package harvest orchestrates the two-phase question harvest: the view
// phase walks freely accessible listing pages, the search phase recovers
// the paywalled remainder one question at a time.
package harvest

import (
	"fmt"
	"sync/atomic"

	"github.com/MarcChen/CertifyHub/internal/examtopics"
	"github.com/MarcChen/CertifyHub/internal/merge"
)

// Mode selects which phases run.
type Mode string

const (
	ModeViews  Mode = "views"
	ModeSearch Mode = "search"
	ModeAll    Mode = "all"
)

// ValidMode reports whether m is a known mode.
func ValidMode(m Mode) bool {
	return m == ModeViews || m == ModeSearch || m == ModeAll
}

// The first two view pages are free; search starts after the 20 questions
// they carry.
const (
	freeViewPages        = 2
	defaultStartQuestion = freeViewPages*10 + 1
)

// Session carries one run's immutable parameters. Only the discovered
// total mutates, set once by the view phase and read-only afterwards.
type Session struct {
	Certification string
	Config        examtopics.Config
	Topic         int
	StartQuestion int
	// MaxQuestions is an absolute ceiling on question numbers in the final
	// dataset; 0 means unbounded.
	MaxQuestions int
	Mode         Mode
	BatchSize    int
	Recursive    bool

	total atomic.Int64
}

// NewSession validates parameters and applies defaults.
func NewSession(certification string, mode Mode, topic, startQuestion, maxQuestions, batchSize int, recursive bool) (*Session, error) {
	cfg, ok := examtopics.Lookup(certification)
	if !ok {
		return nil, fmt.Errorf("unknown certification %q (known: %v)", certification, examtopics.Certifications())
	}
	if !ValidMode(mode) {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	if topic <= 0 {
		topic = 1
	}
	if startQuestion <= 0 {
		startQuestion = defaultStartQuestion
	}
	if batchSize <= 0 {
		batchSize = 3
	}
	return &Session{
		Certification: certification,
		Config:        cfg,
		Topic:         topic,
		StartQuestion: startQuestion,
		MaxQuestions:  maxQuestions,
		Mode:          mode,
		BatchSize:     batchSize,
		Recursive:     recursive,
	}, nil
}

// SetTotal records the exam's declared question count. The first non-zero
// observation wins; later observations are ignored.
func (s *Session) SetTotal(n int) bool {
	if n <= 0 {
		return false
	}
	return s.total.CompareAndSwap(0, int64(n))
}

// Total returns the discovered question count, 0 when unknown.
func (s *Session) Total() int {
	return int(s.total.Load())
}

// withinCeiling reports whether a question number is inside the session's
// requested maximum.
func (s *Session) withinCeiling(question int) bool {
	return s.MaxQuestions <= 0 || question <= s.MaxQuestions
}

// dataset builds the persistence snapshot for the current merger state.
func dataset(s *Session, m *merge.Merger) examtopics.Dataset {
	ds := examtopics.NewDataset(s.Config)
	ds.TotalQuestions = s.Total()
	ds.Questions = m.Snapshot()
	return ds
}
