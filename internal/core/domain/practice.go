package domain

// QuestionType categorizes generated practice questions.
type QuestionType string

const (
	QuestionConceptual  QuestionType = "conceptual"
	QuestionApplication QuestionType = "application"
	QuestionNumerical   QuestionType = "numerical"
)

// PracticeQuestion is one generated question with its worked solution.
type PracticeQuestion struct {
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	Answer        string       `json:"answer"`
	SolutionSteps []string     `json:"solution_steps"`
	Difficulty    string       `json:"difficulty"`
	Topic         string       `json:"topic"`
}

// PracticeSet bundles a topic's questions with a pace-sized theory summary.
type PracticeSet struct {
	Topic         string             `json:"topic"`
	Questions     []PracticeQuestion `json:"questions"`
	TheorySummary string             `json:"theory_summary"`
}
