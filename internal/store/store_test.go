package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcChen/CertifyHub/internal/examtopics"
)

func testDataset() examtopics.Dataset {
	return examtopics.Dataset{
		Title:         "Terraform Associate",
		Provider:      "hashicorp",
		Certification: "terraform-associate",
		Questions: []examtopics.Question{
			{TopicNumber: 1, QuestionNumber: 2, Text: "second"},
			{TopicNumber: 1, QuestionNumber: 1, Text: "first"},
		},
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "nope.json"))
	_, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := Open(path).Load()
	assert.Error(t, err)
}

func TestPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ds.json")
	s := Open(path)

	s.MarkDirty()
	require.NoError(t, s.Persist(testDataset()))

	loaded, ok, err := s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded.Questions, 2)
	assert.Equal(t, 1, loaded.Questions[0].QuestionNumber, "questions persist in number order")
	assert.Equal(t, "Terraform Associate", loaded.Title)
}

func TestPersistCleanIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.json")
	s := Open(path)

	require.NoError(t, s.Persist(testDataset()), "clean store writes nothing")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	s.MarkDirty()
	require.NoError(t, s.Persist(testDataset()))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	changed := testDataset()
	changed.Title = "something else"
	require.NoError(t, s.Persist(changed), "without MarkDirty the snapshot is ignored")
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPersistLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "ds.json"))
	s.MarkDirty()
	require.NoError(t, s.Persist(testDataset()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ds.json", entries[0].Name())
}
