package examtopics

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// ErrParseFailure is returned when a page does not match the expected
// extraction structure.
var ErrParseFailure = errors.New("examtopics: page structure did not match extraction pattern")

var (
	questionNumberRe = regexp.MustCompile(`Question\s*#?(\d+)`)
	totalQuestionsRe = regexp.MustCompile(`(?i)Questions:?\s*(\d+)`)
	topicQuestionRe  = regexp.MustCompile(`[Tt]opic\s+(\d+)\s+[Qq]uestion\s+(\d+)`)
)

var mdConverter = md.NewConverter("", true, nil)

// htmlToMarkdown renders a selection's inner HTML as markdown text,
// falling back to plain text when conversion fails.
func htmlToMarkdown(s *goquery.Selection) string {
	html, err := s.Html()
	if err != nil {
		return strings.TrimSpace(s.Text())
	}
	out, err := mdConverter.ConvertString(html)
	if err != nil {
		return strings.TrimSpace(s.Text())
	}
	return strings.TrimSpace(out)
}

// ParseViewPage extracts all question cards from a free listing page along
// with the declared total question count (0 when the page does not state it).
func ParseViewPage(html string, topic int) ([]Question, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	var questions []Question
	doc.Find("div.exam-question-card").Each(func(_ int, card *goquery.Selection) {
		q, ok := parseQuestionCard(card, topic)
		if !ok {
			return
		}
		questions = append(questions, q)
	})

	return questions, parseTotalCount(doc), nil
}

// parseTotalCount looks for the "Exam Questions: N" banner.
func parseTotalCount(doc *goquery.Document) int {
	total := 0
	doc.Find(".examQa__item, div, span, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := totalQuestionsRe.FindStringSubmatch(s.Text())
		if m == nil {
			return true
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return true
		}
		total = n
		return false
	})
	return total
}

func parseQuestionCard(card *goquery.Selection, topic int) (Question, bool) {
	q := Question{TopicNumber: topic}

	header := card.Find("div.card-header").First().Text()
	if m := questionNumberRe.FindStringSubmatch(header); m != nil {
		q.QuestionNumber, _ = strconv.Atoi(m[1])
	}
	if q.QuestionNumber == 0 {
		return Question{}, false
	}

	if body := card.Find("div.question-body p.card-text").First(); body.Length() > 0 {
		q.Text = htmlToMarkdown(body)
	}
	q.Choices, q.CorrectAnswer = parseChoices(card)
	if q.CorrectAnswer == "" {
		q.CorrectAnswer = strings.TrimSpace(card.Find("span.correct-answer").First().Text())
	}
	if expl := card.Find("div.question-explanation").First(); expl.Length() > 0 {
		q.Explanation = htmlToMarkdown(expl)
	}

	return q, true
}

// parseChoices reads the multi-choice list. The site marks the correct
// option with a "correct-hidden" class that is suppressed by CSS only.
func parseChoices(s *goquery.Selection) ([]Choice, string) {
	var choices []Choice
	correct := ""
	s.Find("li.multi-choice-item").Each(func(_ int, item *goquery.Selection) {
		letter := strings.TrimSpace(item.Find("span.multi-choice-letter").First().Text())
		letter = strings.TrimSuffix(letter, ".")
		text := strings.TrimSpace(item.Text())
		if letter != "" {
			text = strings.TrimSpace(strings.TrimPrefix(text, letter+"."))
		}
		isCorrect := strings.Contains(item.AttrOr("class", ""), "correct-hidden")
		if isCorrect {
			correct = letter
		}
		choices = append(choices, Choice{Letter: letter, Text: text, IsCorrect: isCorrect})
	})
	return choices, correct
}

// ParseDiscussion extracts a single question from its discussion page.
// topic and question are the expected numbers and fill in when the page
// itself does not state them.
func ParseDiscussion(html string, topic, question int) (Question, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Question{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	q := Question{TopicNumber: topic, QuestionNumber: question}
	if m := topicQuestionRe.FindStringSubmatch(doc.Find("title").Text()); m != nil {
		q.TopicNumber, _ = strconv.Atoi(m[1])
		q.QuestionNumber, _ = strconv.Atoi(m[2])
	}

	body := doc.Find("div.question-body").First()
	if text := body.Find("p.card-text").First(); text.Length() > 0 {
		q.Text = htmlToMarkdown(text)
	} else if body.Length() > 0 {
		q.Text = strings.TrimSpace(body.Text())
	}
	if q.Text == "" {
		return Question{}, fmt.Errorf("%w: no question text on discussion page", ErrParseFailure)
	}

	q.Choices, q.CorrectAnswer = parseChoices(doc.Selection)
	if q.CorrectAnswer == "" {
		q.CorrectAnswer = strings.TrimSpace(doc.Find("span.correct-answer").First().Text())
	}

	q.Comments = parseComments(doc)
	if expl := doc.Find("div.question-explanation").First(); expl.Length() > 0 {
		q.Explanation = htmlToMarkdown(expl)
	} else if len(q.Comments) > 0 {
		q.Explanation = q.Comments[0].Content
	}

	return q, nil
}

const maxComments = 5

// parseComments collects the top discussion comments, highest upvoted first.
func parseComments(doc *goquery.Document) []Comment {
	var comments []Comment
	doc.Find("div.comment-container").EachWithBreak(func(i int, c *goquery.Selection) bool {
		if i >= maxComments {
			return false
		}
		upvotes, _ := strconv.Atoi(strings.TrimSpace(c.Find("span.upvote-count").First().Text()))
		selected := strings.TrimSpace(c.Find("div.comment-selected-answers").First().Text())
		selected = strings.TrimSpace(strings.TrimPrefix(selected, "Selected Answer:"))
		comments = append(comments, Comment{
			Username:       strings.TrimSpace(c.Find("h5.comment-username").First().Text()),
			Content:        htmlToMarkdown(c.Find("div.comment-content").First()),
			Upvotes:        upvotes,
			HighlyVoted:    strings.Contains(c.Find("span.badge").Text(), "Highly Voted"),
			SelectedAnswer: selected,
		})
		return true
	})
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Upvotes > comments[j].Upvotes
	})
	return comments
}

var paywallMarkers = []string{"premium", "subscribe", "paywall"}

// IsPaywalled reports whether the page gates content behind a premium
// overlay. The underlying question markup is usually still present.
func IsPaywalled(html string) bool {
	lower := strings.ToLower(html)
	for _, m := range paywallMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
