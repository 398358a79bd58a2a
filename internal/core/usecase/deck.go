package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
)

// Minimum stored documents for a syllabus topic to count as covered in the
// deck coverage report.
const topicCoveredFloor = 2

// DeckUseCase owns user and deck lifecycle: creation, listing, deletion and
// the per-deck syllabus coverage report. Deleting a deck also drops its
// vector namespace and any live session, so no orphaned content remains
// retrievable.
type DeckUseCase struct {
	users     ports.UserRepository
	decks     ports.DeckRepository
	vectors   ports.VectorStore
	retriever *Retriever
	sessions  ports.SessionStore
}

func NewDeckUseCase(
	users ports.UserRepository,
	decks ports.DeckRepository,
	vectors ports.VectorStore,
	retriever *Retriever,
	sessions ports.SessionStore,
) *DeckUseCase {
	return &DeckUseCase{
		users:     users,
		decks:     decks,
		vectors:   vectors,
		retriever: retriever,
		sessions:  sessions,
	}
}

func (uc *DeckUseCase) CreateUser(ctx context.Context, username, email string) (*domain.User, error) {
	if username == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create user", errors.New("empty username"))
	}
	user := &domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (uc *DeckUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (uc *DeckUseCase) CreateDeck(ctx context.Context, userID, name, subject, syllabus string) (*domain.Deck, error) {
	if _, err := uc.users.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("verify user: %w", err)
	}
	if name == "" || syllabus == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create deck", errors.New("name and syllabus are required"))
	}

	now := time.Now().UTC()
	deck := &domain.Deck{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Subject:   subject,
		Syllabus:  syllabus,
		Status:    domain.DeckStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.decks.CreateDeck(ctx, deck); err != nil {
		return nil, fmt.Errorf("create deck: %w", err)
	}
	return deck, nil
}

// GetDeck loads a deck and enforces ownership.
func (uc *DeckUseCase) GetDeck(ctx context.Context, userID, deckID string) (*domain.Deck, error) {
	deck, err := uc.decks.GetDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}
	if deck.UserID != userID {
		return nil, domain.WrapError(domain.ErrAccessDenied, "get deck", errors.New("deck belongs to another user"))
	}
	return deck, nil
}

func (uc *DeckUseCase) ListDecks(ctx context.Context, userID string) ([]domain.Deck, error) {
	decks, err := uc.decks.ListDecks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	return decks, nil
}

func (uc *DeckUseCase) ListIngestedFiles(ctx context.Context, userID, deckID string) ([]domain.IngestedFile, error) {
	if _, err := uc.GetDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	files, err := uc.decks.ListIngestedFiles(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("list ingested files: %w", err)
	}
	return files, nil
}

// DeleteDeck removes the deck record, its vector namespace and any live
// session. The namespace drop runs after the record delete; a failure there
// surfaces so the operator can retry, committed deck state is already gone.
func (uc *DeckUseCase) DeleteDeck(ctx context.Context, userID, deckID string) error {
	if _, err := uc.GetDeck(ctx, userID, deckID); err != nil {
		return err
	}
	if err := uc.decks.DeleteDeck(ctx, deckID, userID); err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	if uc.sessions != nil {
		uc.sessions.Delete(userID, deckID)
	}
	ns := domain.Namespace{UserID: userID, DeckID: deckID}
	if err := uc.vectors.DeleteNamespace(ctx, ns); err != nil {
		return fmt.Errorf("delete vector namespace: %w", err)
	}
	return nil
}

// TopicCoverage checks each syllabus topic against the deck's stored
// material: a topic counts as covered when at least two documents answer a
// direct retrieval for it, without expansion.
func (uc *DeckUseCase) TopicCoverage(ctx context.Context, userID, deckID string) (*domain.DeckCoverageReport, error) {
	deck, err := uc.GetDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}

	report := &domain.DeckCoverageReport{TotalTopics: len(deck.SyllabusTopics)}
	for _, topic := range deck.SyllabusTopics {
		result, err := uc.retriever.Retrieve(ctx, userID, deckID, topic, domain.PaceMedium, false)
		if err != nil {
			return nil, fmt.Errorf("retrieve topic %q: %w", topic, err)
		}
		covered := result.TotalFound >= topicCoveredFloor
		if covered {
			report.CoveredTopics++
		}
		report.Topics = append(report.Topics, domain.TopicCoverageEntry{
			Topic:          topic,
			DocumentsFound: result.TotalFound,
			Covered:        covered,
		})
	}
	if report.TotalTopics > 0 {
		report.CoverageRatio = float64(report.CoveredTopics) / float64(report.TotalTopics)
	}
	return report, nil
}
