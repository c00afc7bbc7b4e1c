package examtopics

// Phase identifies which harvesting pass produced a record.
type Phase string

const (
	PhaseView   Phase = "view"
	PhaseSearch Phase = "search"
)

// Choice is a single answer option of a question.
type Choice struct {
	Letter    string `json:"letter"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Comment is a discussion comment attached to a question.
type Comment struct {
	Username       string `json:"username"`
	Content        string `json:"content"`
	Upvotes        int    `json:"upvotes"`
	HighlyVoted    bool   `json:"is_highly_voted"`
	SelectedAnswer string `json:"selected_answer,omitempty"`
}

// Question is one exam question. QuestionNumber is unique within
// (certification, topic) in the final dataset.
type Question struct {
	QuestionNumber int       `json:"question_number"`
	TopicNumber    int       `json:"topic_number"`
	Text           string    `json:"text"`
	Choices        []Choice  `json:"choices"`
	CorrectAnswer  string    `json:"correct_answer"`
	Explanation    string    `json:"explanation,omitempty"`
	Comments       []Comment `json:"comments,omitempty"`
	Source         Phase     `json:"source"`
}

// Complete reports whether the record carries enough data to be served:
// question text, at least one choice and a known correct answer.
func (q Question) Complete() bool {
	return q.Text != "" && len(q.Choices) > 0 && q.CorrectAnswer != ""
}

// Dataset is the durable artifact consumed by the static content server.
// Field names are stable; do not rename.
type Dataset struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Provider       string     `json:"provider"`
	Certification  string     `json:"certification"`
	TotalQuestions int        `json:"total_questions,omitempty"`
	Questions      []Question `json:"questions"`
}

// NewDataset creates an empty dataset for a certification.
func NewDataset(cfg Config) Dataset {
	return Dataset{
		Title:         cfg.DisplayName + " Exam Questions",
		Description:   "Harvested from ExamTopics",
		Provider:      cfg.Provider,
		Certification: cfg.Key,
		Questions:     []Question{},
	}
}
