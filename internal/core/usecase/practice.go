package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
)

// PracticeGenerator builds pace-sized practice sets from deck material:
// conceptual, application and numerical questions with worked solutions,
// plus a theory summary sized to the pace's theory ratio.
type PracticeGenerator struct {
	oracle    ports.Oracle
	retriever *Retriever
	counts    map[domain.Pace]domain.QuestionCounts
}

func NewPracticeGenerator(oracle ports.Oracle, retriever *Retriever, counts map[domain.Pace]domain.QuestionCounts) *PracticeGenerator {
	if counts == nil {
		counts = domain.DefaultQuestionCounts()
	}
	return &PracticeGenerator{
		oracle:    oracle,
		retriever: retriever,
		counts:    counts,
	}
}

// Generate produces a practice set for one topic. Question generation
// degrades per group: a failed oracle call drops that group rather than
// failing the set. Retrieval failure is fatal, there is nothing to build
// questions from.
func (g *PracticeGenerator) Generate(ctx context.Context, userID, deckID, topic string, pace domain.Pace) (*domain.PracticeSet, error) {
	material, err := g.retriever.RetrieveForTopic(ctx, userID, deckID, topic, 0)
	if err != nil {
		return nil, fmt.Errorf("retrieve topic material: %w", err)
	}
	if material == "" {
		material = fmt.Sprintf("Topic: %s\n(Limited material available for this topic)", topic)
	}

	pace = domain.NormalizePace(string(pace))
	budget := g.counts[pace]

	var questions []domain.PracticeQuestion
	questions = append(questions, g.generate(ctx, domain.QuestionConceptual, material, topic, budget.Conceptual)...)
	questions = append(questions, g.generate(ctx, domain.QuestionApplication, material, topic, budget.Application)...)
	questions = append(questions, g.generate(ctx, domain.QuestionNumerical, material, topic, budget.Numerical)...)

	return &domain.PracticeSet{
		Topic:         topic,
		Questions:     questions,
		TheorySummary: g.theorySummary(ctx, material, topic, pace),
	}, nil
}

var questionGuidance = map[domain.QuestionType]string{
	domain.QuestionConceptual: `Types of conceptual questions:
- Definitions: "What is X?"
- Explanations: "Explain how X works"
- Comparisons: "Compare X and Y"
- Advantages/Disadvantages: "What are the benefits of X?"`,
	domain.QuestionApplication: `Types of application questions:
- Scenario analysis: "Given this situation, what would happen?"
- Tracing: "Trace through this algorithm/process"
- Classification: "Which category does this belong to?"
- Problem-solving: "How would you solve this problem using X?"`,
	domain.QuestionNumerical: `Types of numerical questions:
- Calculations with specific numbers and data
- Complexity or capacity analysis
- Any computation relevant to the topic
If numerical questions don't apply, generate calculation-adjacent questions.`,
}

type generatedQuestion struct {
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	SolutionSteps []string `json:"solution_steps"`
	Difficulty    string   `json:"difficulty"`
}

func (g *PracticeGenerator) generate(ctx context.Context, qtype domain.QuestionType, material, topic string, count int) []domain.PracticeQuestion {
	if count <= 0 {
		return nil
	}

	prompt := fmt.Sprintf(`Generate %d %s questions about this topic.

Topic: %s
Context: %s

%s

For EACH question, return a JSON object with:
- "question": the question text
- "answer": concise final answer
- "solution_steps": array of step-by-step solution
- "difficulty": "easy", "medium", or "hard"

Return as a JSON array of objects.
Return ONLY the JSON array.`, count, qtype, topic, material, questionGuidance[qtype])

	raw, err := g.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil
	}

	var decoded []generatedQuestion
	if err := decodeJSON(raw, &decoded); err != nil {
		return nil
	}

	var out []domain.PracticeQuestion
	for _, q := range decoded {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		difficulty := q.Difficulty
		if difficulty == "" {
			difficulty = "medium"
		}
		out = append(out, domain.PracticeQuestion{
			Type:          qtype,
			Question:      q.Question,
			Answer:        q.Answer,
			SolutionSteps: q.SolutionSteps,
			Difficulty:    difficulty,
			Topic:         topic,
		})
	}
	return out
}

var summaryDepth = map[domain.Pace]string{
	domain.PaceSlow:   "Provide a comprehensive, detailed explanation with examples. Cover all nuances.",
	domain.PaceMedium: "Provide a balanced explanation with key points and one example.",
	domain.PaceFast:   "Provide a brief summary with only essential points for quick revision.",
}

func (g *PracticeGenerator) theorySummary(ctx context.Context, material, topic string, pace domain.Pace) string {
	prompt := fmt.Sprintf(`Explain this topic based on the provided context.

Topic: %s
Context: %s

Instructions: %s

IMPORTANT:
- Use ONLY information from the context
- Do NOT add external knowledge
- If something is not in the context, say "Not covered in your material"`,
		topic, material, summaryDepth[pace])

	summary, err := g.oracle.Complete(ctx, prompt)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(summary)
}

// FormatPracticeSet renders a practice set as display text.
func FormatPracticeSet(set *domain.PracticeSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TOPIC: %s\n\n", set.Topic)
	b.WriteString("THEORY\n")
	b.WriteString(set.TheorySummary)
	b.WriteString("\n\nPRACTICE QUESTIONS\n")

	for i, q := range set.Questions {
		fmt.Fprintf(&b, "\nQuestion %d (%s) [%s]\n", i+1, strings.ToUpper(string(q.Type)), q.Difficulty)
		fmt.Fprintf(&b, "Q: %s\n\n", q.Question)
		fmt.Fprintf(&b, "Answer: %s\n\n", q.Answer)
		b.WriteString("Solution Steps:\n")
		for j, step := range q.SolutionSteps {
			fmt.Fprintf(&b, "  %d. %s\n", j+1, step)
		}
	}
	return b.String()
}
