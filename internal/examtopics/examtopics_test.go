package examtopics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	cfg, ok := Lookup("terraform-associate")
	require.True(t, ok)
	assert.Equal(t, "hashicorp", cfg.Provider)

	_, ok = Lookup("no-such-exam")
	assert.False(t, ok)
}

func TestCertificationsSorted(t *testing.T) {
	keys := Certifications()
	require.NotEmpty(t, keys)
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, DefaultCertification)
}

func TestURLBuilders(t *testing.T) {
	cfg, _ := Lookup("terraform-associate")

	assert.Equal(t,
		"https://www.examtopics.com/exams/hashicorp/terraform-associate/view/2/",
		cfg.ViewPageURL(2))
	assert.Equal(t,
		"examtopics hashicorp terraform-associate topic 1 question 34 discussion",
		cfg.SearchQuery(1, 34))
	assert.Equal(t,
		"https://www.examtopics.com/discussions/hashicorp/view/1-exam-terraform-associate-topic-1-question-34-discussion/",
		cfg.DirectDiscussionURL(1, 34))
}

func TestValidDiscussionURL(t *testing.T) {
	cfg, _ := Lookup("terraform-associate")

	exact := "https://www.examtopics.com/discussions/hashicorp/view/90210-exam-terraform-associate-topic-1-question-34-discussion/"
	assert.True(t, cfg.ValidDiscussionURL(exact, 1, 34))
	assert.False(t, cfg.ValidDiscussionURL(exact, 1, 3), "question 34 must not satisfy a lookup for question 3")
	assert.False(t, cfg.ValidDiscussionURL(exact, 2, 34))

	loose := "https://www.examtopics.com/discussions/hashicorp/some-mirror/topic-1-question-34-discussion"
	assert.True(t, cfg.ValidDiscussionURL(loose, 1, 34))

	assert.False(t, cfg.ValidDiscussionURL("https://example.com/topic-1-question-34-discussion", 1, 34))
}
