package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcChen/CertifyHub/internal/examtopics"
)

func complete(topic, question int, source examtopics.Phase) examtopics.Question {
	return examtopics.Question{
		TopicNumber:    topic,
		QuestionNumber: question,
		Text:           "question text",
		Choices:        []examtopics.Choice{{Letter: "A"}, {Letter: "B"}},
		CorrectAnswer:  "A",
		Source:         source,
	}
}

func incomplete(topic, question int, source examtopics.Phase) examtopics.Question {
	return examtopics.Question{
		TopicNumber:    topic,
		QuestionNumber: question,
		Text:           "question text",
		Source:         source,
	}
}

func TestMergeInsert(t *testing.T) {
	m := New(examtopics.PhaseView)
	assert.Equal(t, Inserted, m.Merge(complete(1, 1, examtopics.PhaseView)))
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Has(1, 1))
	assert.False(t, m.Has(1, 2))
}

func TestMergeSameQuestionFromBothPhases(t *testing.T) {
	m := New(examtopics.PhaseView)
	m.Merge(complete(1, 7, examtopics.PhaseView))
	out := m.Merge(complete(1, 7, examtopics.PhaseSearch))

	assert.Equal(t, SkippedDuplicate, out)
	require.Equal(t, 1, m.Len(), "one record per (topic, question) no matter how many phases saw it")
	assert.Equal(t, examtopics.PhaseView, m.Snapshot()[0].Source)
}

func TestMergeCompleteReplacesIncomplete(t *testing.T) {
	m := New(examtopics.PhaseView)
	m.Merge(incomplete(1, 3, examtopics.PhaseView))
	out := m.Merge(complete(1, 3, examtopics.PhaseSearch))

	assert.Equal(t, ReplacedIncomplete, out)
	assert.Equal(t, examtopics.PhaseSearch, m.Snapshot()[0].Source)
}

func TestMergeRicherIncompleteReplaces(t *testing.T) {
	m := New(examtopics.PhaseView)
	m.Merge(incomplete(1, 3, examtopics.PhaseView))

	richer := incomplete(1, 3, examtopics.PhaseSearch)
	richer.Choices = []examtopics.Choice{{Letter: "A"}}
	assert.Equal(t, ReplacedIncomplete, m.Merge(richer))

	poorer := incomplete(1, 3, examtopics.PhaseView)
	assert.Equal(t, SkippedDuplicate, m.Merge(poorer))
}

func TestMergePreferredPhaseWinsLate(t *testing.T) {
	m := New(examtopics.PhaseView)
	m.Merge(complete(1, 5, examtopics.PhaseSearch))
	out := m.Merge(complete(1, 5, examtopics.PhaseView))

	assert.Equal(t, ReplacedPreferred, out, "displacing a complete record is not an incomplete replacement")
	assert.Equal(t, examtopics.PhaseView, m.Snapshot()[0].Source)
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "inserted", Inserted.String())
	assert.Equal(t, "replaced_incomplete", ReplacedIncomplete.String())
	assert.Equal(t, "replaced_preferred", ReplacedPreferred.String())
	assert.Equal(t, "skipped_duplicate", SkippedDuplicate.String())
}

func TestMergeKeysAreTopicScoped(t *testing.T) {
	m := New(examtopics.PhaseView)
	m.Merge(complete(1, 5, examtopics.PhaseView))
	m.Merge(complete(2, 5, examtopics.PhaseView))
	assert.Equal(t, 2, m.Len())
}

func TestSeedAndSnapshotOrder(t *testing.T) {
	m := New(examtopics.PhaseView)
	m.Seed([]examtopics.Question{
		complete(2, 1, examtopics.PhaseView),
		complete(1, 9, examtopics.PhaseSearch),
		complete(1, 2, examtopics.PhaseView),
	})

	snap := m.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, [2]int{1, 2}, [2]int{snap[0].TopicNumber, snap[0].QuestionNumber})
	assert.Equal(t, [2]int{1, 9}, [2]int{snap[1].TopicNumber, snap[1].QuestionNumber})
	assert.Equal(t, [2]int{2, 1}, [2]int{snap[2].TopicNumber, snap[2].QuestionNumber})
}
