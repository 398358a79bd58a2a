package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/score-labs/score-backend/internal/core/domain"
)

type deckUserRepoFake struct {
	users map[string]*domain.User
}

func (f *deckUserRepoFake) CreateUser(_ context.Context, user *domain.User) error {
	if f.users == nil {
		f.users = map[string]*domain.User{}
	}
	f.users[user.ID] = user
	return nil
}

func (f *deckUserRepoFake) GetUser(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrUserNotFound, "get user", errors.New(id))
	}
	return user, nil
}

func (f *deckUserRepoFake) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.WrapError(domain.ErrUserNotFound, "get user by username", errors.New(username))
}

type deckRepoLifecycleFake struct {
	askDeckRepoFake
	deleted []string
}

func (f *deckRepoLifecycleFake) CreateDeck(_ context.Context, deck *domain.Deck) error {
	f.deck = deck
	return nil
}

func (f *deckRepoLifecycleFake) DeleteDeck(_ context.Context, id, _ string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type deckVectorFake struct {
	retrieveVectorFake
	deletedNamespaces []domain.Namespace
}

func (f *deckVectorFake) DeleteNamespace(_ context.Context, ns domain.Namespace) error {
	f.deletedNamespaces = append(f.deletedNamespaces, ns)
	return nil
}

type sessionStoreFake struct {
	deleted []string
}

func (f *sessionStoreFake) GetOrCreate(userID, deckID string) *domain.Session {
	return &domain.Session{UserID: userID, DeckID: deckID}
}
func (f *sessionStoreFake) Get(string, string) (*domain.Session, bool) { return nil, false }
func (f *sessionStoreFake) Save(*domain.Session)                      {}
func (f *sessionStoreFake) Delete(userID, deckID string) {
	f.deleted = append(f.deleted, userID+":"+deckID)
}

func TestCreateDeckRequiresExistingUser(t *testing.T) {
	users := &deckUserRepoFake{}
	uc := NewDeckUseCase(users, &deckRepoLifecycleFake{}, &deckVectorFake{}, nil, nil)

	if _, err := uc.CreateDeck(context.Background(), "ghost", "OS", "cs", "syllabus"); err == nil {
		t.Fatalf("expected error for unknown user")
	}

	user, err := uc.CreateUser(context.Background(), "sam", "sam@example.com")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	deck, err := uc.CreateDeck(context.Background(), user.ID, "OS", "cs", "syllabus")
	if err != nil {
		t.Fatalf("CreateDeck() error = %v", err)
	}
	if deck.Status != domain.DeckStatusCreated || deck.ID == "" {
		t.Fatalf("deck malformed: %+v", deck)
	}
}

func TestDeleteDeckDropsNamespaceAndSession(t *testing.T) {
	repo := &deckRepoLifecycleFake{}
	repo.deck = &domain.Deck{ID: "deck-1", UserID: "user-1"}
	vectors := &deckVectorFake{}
	sessions := &sessionStoreFake{}
	uc := NewDeckUseCase(&deckUserRepoFake{}, repo, vectors, nil, sessions)

	if err := uc.DeleteDeck(context.Background(), "user-1", "deck-1"); err != nil {
		t.Fatalf("DeleteDeck() error = %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatalf("deck record not deleted")
	}
	if len(vectors.deletedNamespaces) != 1 || vectors.deletedNamespaces[0].DeckID != "deck-1" {
		t.Fatalf("vector namespace not dropped: %v", vectors.deletedNamespaces)
	}
	if len(sessions.deleted) != 1 {
		t.Fatalf("session not cleared")
	}
}

func TestDeleteDeckForeignUser(t *testing.T) {
	repo := &deckRepoLifecycleFake{}
	repo.deck = &domain.Deck{ID: "deck-1", UserID: "owner"}
	uc := NewDeckUseCase(&deckUserRepoFake{}, repo, &deckVectorFake{}, nil, nil)

	err := uc.DeleteDeck(context.Background(), "intruder", "deck-1")
	if !domain.IsKind(err, domain.ErrAccessDenied) {
		t.Fatalf("error = %v, want access denied", err)
	}
}

func TestTopicCoverageReport(t *testing.T) {
	repo := &deckRepoLifecycleFake{}
	repo.deck = &domain.Deck{
		ID:             "deck-1",
		UserID:         "user-1",
		SyllabusTopics: []string{"Scheduling", "Paging", "Deadlocks"},
	}
	// Coverage probes run at medium depth without expansion.
	vectors := &deckVectorFake{}
	vectors.byLimit = map[int][]domain.RetrievedDocument{
		12: docs("a", "b"),
	}
	retriever := NewRetriever(&retrieveEmbedderFake{}, vectors, nil, nil)
	uc := NewDeckUseCase(&deckUserRepoFake{}, repo, vectors, retriever, nil)

	report, err := uc.TopicCoverage(context.Background(), "user-1", "deck-1")
	if err != nil {
		t.Fatalf("TopicCoverage() error = %v", err)
	}
	if report.TotalTopics != 3 || report.CoveredTopics != 3 {
		t.Fatalf("report wrong: %+v", report)
	}
	if report.CoverageRatio != 1.0 {
		t.Fatalf("ratio = %f, want 1.0", report.CoverageRatio)
	}
	for _, entry := range report.Topics {
		if entry.DocumentsFound != 2 || !entry.Covered {
			t.Fatalf("entry wrong: %+v", entry)
		}
	}
}

func TestTopicCoverageEmptyDeckUncovered(t *testing.T) {
	repo := &deckRepoLifecycleFake{}
	repo.deck = &domain.Deck{
		ID:             "deck-1",
		UserID:         "user-1",
		SyllabusTopics: []string{"Scheduling"},
	}
	vectors := &deckVectorFake{}
	retriever := NewRetriever(&retrieveEmbedderFake{}, vectors, nil, nil)
	uc := NewDeckUseCase(&deckUserRepoFake{}, repo, vectors, retriever, nil)

	report, err := uc.TopicCoverage(context.Background(), "user-1", "deck-1")
	if err != nil {
		t.Fatalf("TopicCoverage() error = %v", err)
	}
	if report.CoveredTopics != 0 || report.Topics[0].Covered {
		t.Fatalf("empty deck should cover nothing: %+v", report)
	}
}
