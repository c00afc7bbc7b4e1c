// Package merge combines question records from both harvest phases into
// one deduplicated set, keyed by (topic, question number).
package merge

import (
	"sort"
	"sync"

	"github.com/MarcChen/CertifyHub/internal/examtopics"
)

// Outcome describes what a merge call did.
type Outcome int

const (
	Inserted Outcome = iota
	ReplacedIncomplete
	ReplacedPreferred
	SkippedDuplicate
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case ReplacedIncomplete:
		return "replaced_incomplete"
	case ReplacedPreferred:
		return "replaced_preferred"
	case SkippedDuplicate:
		return "skipped_duplicate"
	default:
		return "unknown"
	}
}

// Key identifies a question within one exam dataset.
type Key struct {
	Topic    int
	Question int
}

// Merger is the single serialization point between concurrent fetches and
// the dataset: all merges go through one mutex, so dataset ordering is
// deterministic per run regardless of fetch interleaving.
type Merger struct {
	mu      sync.Mutex
	prefer  examtopics.Phase
	records map[Key]examtopics.Question
}

// New creates a merger. prefer is the phase that wins when two complete
// records conflict; view-phase records are cheaper and higher trust, so
// callers normally pass PhaseView.
func New(prefer examtopics.Phase) *Merger {
	return &Merger{
		prefer:  prefer,
		records: make(map[Key]examtopics.Question),
	}
}

// Seed loads pre-existing records (resume) without affecting outcomes.
func (m *Merger) Seed(questions []examtopics.Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range questions {
		m.records[Key{Topic: q.TopicNumber, Question: q.QuestionNumber}] = q
	}
}

// Merge applies the dedup rule:
//   - no record for the key: insert
//   - existing record incomplete, incoming complete: replace
//   - both incomplete, incoming strictly richer: replace
//   - both complete, incoming from the preferred phase: replace
//   - otherwise the earlier record stays
func (m *Merger) Merge(q examtopics.Question) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key{Topic: q.TopicNumber, Question: q.QuestionNumber}
	existing, ok := m.records[key]
	if !ok {
		m.records[key] = q
		return Inserted
	}

	switch {
	case !existing.Complete() && q.Complete():
		m.records[key] = q
		return ReplacedIncomplete
	case !existing.Complete() && richer(q, existing):
		m.records[key] = q
		return ReplacedIncomplete
	case existing.Complete() && q.Complete() &&
		existing.Source != m.prefer && q.Source == m.prefer:
		// A preferred-phase record arriving late still wins the conflict.
		m.records[key] = q
		return ReplacedPreferred
	default:
		return SkippedDuplicate
	}
}

// richer reports whether a carries strictly more information than b.
func richer(a, b examtopics.Question) bool {
	if a.CorrectAnswer != "" && b.CorrectAnswer == "" {
		return true
	}
	return len(a.Choices) > len(b.Choices)
}

// Has reports whether a record exists for (topic, question).
func (m *Merger) Has(topic, question int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[Key{Topic: topic, Question: question}]
	return ok
}

// Len returns the number of merged records.
func (m *Merger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Snapshot returns all records ordered by (topic, question number).
func (m *Merger) Snapshot() []examtopics.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]examtopics.Question, 0, len(m.records))
	for _, q := range m.records {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TopicNumber != out[j].TopicNumber {
			return out[i].TopicNumber < out[j].TopicNumber
		}
		return out[i].QuestionNumber < out[j].QuestionNumber
	})
	return out
}
