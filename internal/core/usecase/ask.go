package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
)

// AskUseCase is the response policy: it runs the full query pipeline
// (classify, domain check, hierarchical retrieval, coverage check) and picks
// one of three strategies. Scope takes precedence over coverage, and a
// well-formed request always gets an answer, never a bare error.
type AskUseCase struct {
	decks      ports.DeckRepository
	classifier *IntentClassifier
	guard      *DomainGuard
	retriever  *Retriever
	coverage   *CoverageChecker
	oracle     ports.Oracle
	internet   *InternetOracle
}

func NewAskUseCase(
	decks ports.DeckRepository,
	classifier *IntentClassifier,
	guard *DomainGuard,
	retriever *Retriever,
	coverage *CoverageChecker,
	oracle ports.Oracle,
	internet *InternetOracle,
) *AskUseCase {
	return &AskUseCase{
		decks:      decks,
		classifier: classifier,
		guard:      guard,
		retriever:  retriever,
		coverage:   coverage,
		oracle:     oracle,
		internet:   internet,
	}
}

// Ask answers one query against a deck.
func (uc *AskUseCase) Ask(ctx context.Context, userID, deckID, query string, pace domain.Pace) (*domain.Answer, error) {
	deck, err := uc.decks.GetDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}
	if deck.UserID != userID {
		return nil, domain.WrapError(domain.ErrAccessDenied, "ask", errors.New("deck belongs to another user"))
	}

	pace = domain.NormalizePace(string(pace))
	intent := uc.classifier.Classify(ctx, query)

	check, err := uc.guard.Check(ctx, query, deck.Syllabus, deck.SyllabusTopics)
	if err != nil {
		return nil, fmt.Errorf("domain check: %w", err)
	}

	retrieval, err := uc.retriever.Retrieve(ctx, userID, deckID, query, pace, true)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	report := uc.coverage.Check(retrieval.Documents, retrieval.Scores, query)

	// Analytics only; a logging failure never blocks the answer.
	_ = uc.decks.LogQuery(ctx, domain.QueryLogEntry{
		DeckID:    deckID,
		Query:     query,
		Intent:    intent,
		Covered:   report.Sufficient,
		Pace:      string(pace),
		Timestamp: time.Now().UTC(),
	})

	switch {
	case check.InScope && report.Sufficient:
		return uc.answerLocal(ctx, intent, query, pace, retrieval, report)
	case !check.InScope:
		return uc.answerExternal(ctx, intent, query, deck.Syllabus), nil
	default:
		return uc.answerBlended(ctx, intent, query, pace, retrieval, report), nil
	}
}

func (uc *AskUseCase) answerLocal(
	ctx context.Context,
	intent, query string,
	pace domain.Pace,
	retrieval *domain.RetrievalResult,
	report *domain.CoverageReport,
) (*domain.Answer, error) {
	text, err := uc.respond(ctx, strings.Join(retrieval.Documents, "\n\n"), query, pace)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &domain.Answer{
		Intent:             intent,
		Strategy:           domain.StrategyLocal,
		InScope:            true,
		Covered:            true,
		CoverageConfidence: report.Confidence,
		Text:               text,
		Warning:            uc.coverage.Warning(report.Confidence),
		InternetEnhanced:   false,
	}, nil
}

func (uc *AskUseCase) answerExternal(ctx context.Context, intent, query, syllabus string) *domain.Answer {
	external := uc.internet.Answer(ctx, query)

	var b strings.Builder
	b.WriteString("Topic Outside Syllabus Scope\n\n")
	b.WriteString(uc.outOfScopeNote(ctx, query, syllabus))
	b.WriteString("\n\n")
	b.WriteString(FormatExternalAnswer(external))

	return &domain.Answer{
		Intent:             intent,
		Strategy:           domain.StrategyExternal,
		InScope:            false,
		Covered:            false,
		CoverageConfidence: 0.0,
		Text:               b.String(),
		Warning:            "This topic is not in your current syllabus.",
		InternetEnhanced:   true,
	}
}

func (uc *AskUseCase) answerBlended(
	ctx context.Context,
	intent, query string,
	pace domain.Pace,
	retrieval *domain.RetrievalResult,
	report *domain.CoverageReport,
) *domain.Answer {
	var b strings.Builder
	b.WriteString("Limited Coverage in Your Material\n\n")
	b.WriteString(report.Reason)
	b.WriteString("\n\n")

	if len(retrieval.Documents) > 0 {
		if local, err := uc.respond(ctx, strings.Join(retrieval.Documents, "\n\n"), query, pace); err == nil && local != "" {
			b.WriteString("From Your Material:\n")
			b.WriteString(local)
			b.WriteString("\n\n")
		}
	}

	external := uc.internet.Answer(ctx, query)
	b.WriteString(FormatExternalAnswer(external))

	return &domain.Answer{
		Intent:             intent,
		Strategy:           domain.StrategyBlended,
		InScope:            true,
		Covered:            false,
		CoverageConfidence: report.Confidence,
		Text:               b.String(),
		Warning:            report.Reason,
		InternetEnhanced:   true,
	}
}

// respond generates a syllabus-bounded answer from retrieved context only.
func (uc *AskUseCase) respond(ctx context.Context, material, query string, pace domain.Pace) (string, error) {
	prompt := fmt.Sprintf(`You are a syllabus-bounded learning system.

Rules (MANDATORY):
1. Use ONLY the information present in the provided context.
2. Do NOT introduce any concepts not found in the context.
3. If something is not in the context, say: "Not covered in your material."
4. Do NOT mention unrelated topics.
5. Give full theory for each concept, not just names.

Context:
%s

User question:
%s

Pace:
%s

Output format (STRICT):
THEORY:
(detailed explanation of each relevant concept)

PRACTICE QUESTIONS:
(at least 3)

ANSWERS:
(with explanations)

STEP-BY-STEP SOLUTIONS:
(detailed)`, material, query, pace)

	return uc.oracle.Complete(ctx, prompt)
}

// outOfScopeNote is a short, bounded acknowledgement for queries outside the
// syllabus. Oracle failure falls back to a fixed sentence.
func (uc *AskUseCase) outOfScopeNote(ctx context.Context, query, syllabus string) string {
	excerpt := syllabus
	if len(excerpt) > 500 {
		excerpt = excerpt[:500] + "..."
	}

	prompt := fmt.Sprintf(`The user asked about a topic outside their study syllabus.

User's syllabus covers:
%s

User asked:
%s

Provide a BRIEF (2-3 sentences) helpful response that:
1. Acknowledges this is outside their syllabus
2. Gives a one-sentence definition/overview
3. Suggests focusing on their syllabus topics

Keep it SHORT and HELPFUL.`, excerpt, query)

	note, err := uc.oracle.Complete(ctx, prompt)
	if err != nil || strings.TrimSpace(note) == "" {
		return "This topic is not in your current syllabus scope."
	}
	return note
}
