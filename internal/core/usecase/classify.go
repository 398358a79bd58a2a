package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/score-labs/score-backend/internal/core/ports"
)

// Intent labels recognized by the classifier.
const (
	IntentExplain  = "explain"
	IntentPractice = "practice"
	IntentRevise   = "revise"
	IntentQuestion = "question"
)

// IntentClassifier maps a free-form query to one of four study intents.
// Anything unexpected from the model, including a failed call, falls back
// to explain.
type IntentClassifier struct {
	oracle ports.Oracle
}

func NewIntentClassifier(oracle ports.Oracle) *IntentClassifier {
	return &IntentClassifier{oracle: oracle}
}

func (c *IntentClassifier) Classify(ctx context.Context, query string) string {
	prompt := fmt.Sprintf(`Classify the user's intent.

Query: %s

Intents:
- explain: User wants explanation/theory
- practice: User wants practice questions
- revise: User wants quick review/summary
- question: User is asking a specific question

Return ONLY one word: explain, practice, revise, or question.`, query)

	raw, err := c.oracle.Complete(ctx, prompt)
	if err != nil {
		return IntentExplain
	}

	intent := strings.ToLower(strings.TrimSpace(raw))
	switch intent {
	case IntentExplain, IntentPractice, IntentRevise, IntentQuestion:
		return intent
	default:
		return IntentExplain
	}
}
