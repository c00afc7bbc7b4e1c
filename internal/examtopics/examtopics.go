// Package examtopics knows the ExamTopics site layout: certification
// configs, URL schemes and the HTML structure of view and discussion pages.
package examtopics

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Config describes one certification exam on the site.
type Config struct {
	Key         string
	Provider    string
	DisplayName string
	// ViewURL is the base listing URL; the view page number is appended.
	ViewURL string
	// URLPattern matches a discussion URL and captures topic and question
	// numbers as groups 1 and 2.
	URLPattern *regexp.Regexp
}

var configs = map[string]Config{
	"terraform-associate": {
		Key:         "terraform-associate",
		Provider:    "hashicorp",
		DisplayName: "Terraform Associate",
		ViewURL:     "https://www.examtopics.com/exams/hashicorp/terraform-associate/view/",
		URLPattern:  regexp.MustCompile(`examtopics\.com/discussions/hashicorp/view/\d+-exam-terraform-associate-topic-(\d+)-question-(\d+)-discussion`),
	},
	"professional-machine-learning-engineer": {
		Key:         "professional-machine-learning-engineer",
		Provider:    "google",
		DisplayName: "Professional Machine Learning Engineer",
		ViewURL:     "https://www.examtopics.com/exams/google/professional-machine-learning-engineer/view/",
		URLPattern:  regexp.MustCompile(`examtopics\.com/discussions/google/view/\d+-exam-professional-machine-learning-engineer-topic-(\d+)-question-(\d+)-discussion`),
	},
	"az-900": {
		Key:         "az-900",
		Provider:    "microsoft",
		DisplayName: "Microsoft Azure Fundamentals (AZ-900)",
		ViewURL:     "https://www.examtopics.com/exams/microsoft/az-900/view/",
		URLPattern:  regexp.MustCompile(`examtopics\.com/discussions/microsoft/view/\d+-exam-az-900-topic-(\d+)-question-(\d+)-discussion`),
	},
	"aws-certified-solutions-architect-associate-saa-c03": {
		Key:         "aws-certified-solutions-architect-associate-saa-c03",
		Provider:    "amazon",
		DisplayName: "AWS Certified Solutions Architect Associate (SAA-C03)",
		ViewURL:     "https://www.examtopics.com/exams/amazon/aws-certified-solutions-architect-associate-saa-c03/view/",
		URLPattern:  regexp.MustCompile(`examtopics\.com/discussions/amazon/view/\d+-exam-aws-certified-solutions-architect-associate-saa-c03-topic-(\d+)-question-(\d+)-discussion`),
	},
}

// DefaultCertification is used when no certification is given.
const DefaultCertification = "professional-machine-learning-engineer"

// Lookup returns the config for a certification key.
func Lookup(key string) (Config, bool) {
	cfg, ok := configs[key]
	return cfg, ok
}

// Certifications returns all known certification keys, sorted.
func Certifications() []string {
	keys := make([]string, 0, len(configs))
	for k := range configs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ViewPageURL returns the URL of view page n (1-based).
func (c Config) ViewPageURL(n int) string {
	return fmt.Sprintf("%s%d/", c.ViewURL, n)
}

// SearchQuery builds the search-engine query used to locate the discussion
// page of one question.
func (c Config) SearchQuery(topic, question int) string {
	return fmt.Sprintf("examtopics %s %s topic %d question %d discussion",
		c.Provider, c.Key, topic, question)
}

// DirectDiscussionURL guesses a discussion URL when search finds nothing.
// The leading discussion id is unknown, but the site redirects on the slug.
func (c Config) DirectDiscussionURL(topic, question int) string {
	return fmt.Sprintf("https://www.examtopics.com/discussions/%s/view/1-exam-%s-topic-%d-question-%d-discussion/",
		c.Provider, c.Key, topic, question)
}

// ValidDiscussionURL reports whether url points at the discussion page for
// the given topic and question. Exact pattern matches are authoritative; a
// looser slug check accepts URL variants the site has used over time.
func (c Config) ValidDiscussionURL(url string, topic, question int) bool {
	if !strings.Contains(url, "examtopics.com") {
		return false
	}
	if m := c.URLPattern.FindStringSubmatch(url); m != nil {
		return m[1] == fmt.Sprint(topic) && m[2] == fmt.Sprint(question)
	}
	hasTopic := strings.Contains(url, fmt.Sprintf("topic-%d", topic)) ||
		strings.Contains(url, fmt.Sprintf("topic%d", topic))
	hasQuestion := strings.Contains(url, fmt.Sprintf("question-%d-", question)) ||
		strings.Contains(url, fmt.Sprintf("question-%d-discussion", question))
	return hasTopic && hasQuestion
}
