// Package export renders a harvested dataset into study-friendly formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MarcChen/CertifyHub/internal/examtopics"
)

// Format renders the dataset in the requested format.
func Format(ds examtopics.Dataset, format string) (string, error) {
	switch strings.ToLower(format) {
	case "markdown":
		return toMarkdown(ds), nil
	case "csv":
		return toCSV(ds)
	case "json":
		b, err := json.MarshalIndent(ds, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

// toMarkdown renders a study guide: one section per question, answer and
// explanation folded behind a details block so the guide works for
// self-testing.
func toMarkdown(ds examtopics.Dataset) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", ds.Title)
	if ds.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", ds.Description)
	}
	fmt.Fprintf(&b, "%d questions collected", len(ds.Questions))
	if ds.TotalQuestions > 0 {
		fmt.Fprintf(&b, " of %d", ds.TotalQuestions)
	}
	b.WriteString("\n\n")

	for _, q := range ds.Questions {
		fmt.Fprintf(&b, "## Question %d (Topic %d)\n\n", q.QuestionNumber, q.TopicNumber)
		b.WriteString(q.Text)
		b.WriteString("\n\n")
		for _, c := range q.Choices {
			fmt.Fprintf(&b, "- **%s.** %s\n", c.Letter, c.Text)
		}
		if len(q.Choices) > 0 {
			b.WriteString("\n")
		}

		b.WriteString("<details><summary>Answer</summary>\n\n")
		if q.CorrectAnswer != "" {
			fmt.Fprintf(&b, "**Correct answer: %s**\n\n", q.CorrectAnswer)
		} else {
			b.WriteString("_No confirmed answer collected._\n\n")
		}
		if q.Explanation != "" {
			fmt.Fprintf(&b, "%s\n\n", q.Explanation)
		}
		for _, c := range q.Comments {
			if !c.HighlyVoted {
				continue
			}
			fmt.Fprintf(&b, "> %s (%d upvotes", c.Content, c.Upvotes)
			if c.SelectedAnswer != "" {
				fmt.Fprintf(&b, ", voted %s", c.SelectedAnswer)
			}
			b.WriteString(")\n\n")
		}
		b.WriteString("</details>\n\n")
	}

	return b.String()
}

func toCSV(ds examtopics.Dataset) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	header := []string{"topic", "question", "text", "choices", "correct_answer", "explanation", "source"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, q := range ds.Questions {
		choices := make([]string, len(q.Choices))
		for i, c := range q.Choices {
			choices[i] = fmt.Sprintf("%s. %s", c.Letter, c.Text)
		}
		row := []string{
			fmt.Sprint(q.TopicNumber),
			fmt.Sprint(q.QuestionNumber),
			q.Text,
			strings.Join(choices, "\n"),
			q.CorrectAnswer,
			q.Explanation,
			string(q.Source),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}
