package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/score-labs/score-backend/internal/core/domain"
)

type teachSessionStoreFake struct {
	sessions map[string]*domain.Session
}

func (f *teachSessionStoreFake) key(userID, deckID string) string { return userID + ":" + deckID }

func (f *teachSessionStoreFake) GetOrCreate(userID, deckID string) *domain.Session {
	if f.sessions == nil {
		f.sessions = map[string]*domain.Session{}
	}
	if s, ok := f.sessions[f.key(userID, deckID)]; ok {
		return s
	}
	s := &domain.Session{ID: "s1", UserID: userID, DeckID: deckID, ContextWindow: 10}
	f.sessions[f.key(userID, deckID)] = s
	return s
}

func (f *teachSessionStoreFake) Get(userID, deckID string) (*domain.Session, bool) {
	s, ok := f.sessions[f.key(userID, deckID)]
	return s, ok
}

func (f *teachSessionStoreFake) Save(s *domain.Session) {
	if f.sessions == nil {
		f.sessions = map[string]*domain.Session{}
	}
	f.sessions[f.key(s.UserID, s.DeckID)] = s
}

func (f *teachSessionStoreFake) Delete(userID, deckID string) {
	delete(f.sessions, f.key(userID, deckID))
}

type teachOracleFake struct{}

func (teachOracleFake) Complete(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "expert tutor teaching"):
		return "lesson content", nil
	case strings.Contains(prompt, "worked examples"):
		return "example content", nil
	case strings.Contains(prompt, "Explain this topic"):
		return "summary", nil
	case strings.Contains(prompt, "Generate"):
		return `[{"question": "Q", "answer": "A"}]`, nil
	default:
		return "answer content", nil
	}
}

func newTeachFixture(topics []string) (*TeachUseCase, *teachSessionStoreFake) {
	repo := &askDeckRepoFake{deck: &domain.Deck{
		ID:             "deck-1",
		UserID:         "user-1",
		Syllabus:       "OS",
		SyllabusTopics: topics,
	}}
	vectors := &retrieveVectorFake{byLimit: map[int][]domain.RetrievedDocument{
		8: docs("chunk one", "chunk two"),
	}}
	retriever := NewRetriever(&retrieveEmbedderFake{}, vectors, nil, nil)
	oracle := teachOracleFake{}
	sessions := &teachSessionStoreFake{}
	practice := NewPracticeGenerator(oracle, retriever, nil)
	return NewTeachUseCase(repo, sessions, retriever, practice, oracle), sessions
}

func TestStartTeachesFirstTopic(t *testing.T) {
	uc, sessions := newTeachFixture([]string{"Scheduling", "Paging"})

	reply, err := uc.Start(context.Background(), "user-1", "deck-1", "", domain.PaceMedium)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if reply.Topic != "Scheduling" || reply.Message != "lesson content" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if !reply.AwaitingInput || reply.Mode != domain.ModeAwaiting {
		t.Fatalf("session should await input after a lesson")
	}
	session, _ := sessions.Get("user-1", "deck-1")
	if !session.Teaching.Active || session.Teaching.CurrentTopic() != "Scheduling" {
		t.Fatalf("teaching state wrong: %+v", session.Teaching)
	}
}

func TestStartAtNamedTopic(t *testing.T) {
	uc, _ := newTeachFixture([]string{"Scheduling", "Paging"})

	reply, err := uc.Start(context.Background(), "user-1", "deck-1", "paging", domain.PaceSlow)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if reply.Topic != "Paging" {
		t.Fatalf("expected start at Paging, got %q", reply.Topic)
	}
}

func TestNextAdvancesAndCompletes(t *testing.T) {
	uc, sessions := newTeachFixture([]string{"Scheduling", "Paging"})
	if _, err := uc.Start(context.Background(), "user-1", "deck-1", "", domain.PaceMedium); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	reply, err := uc.HandleInput(context.Background(), "user-1", "deck-1", "next")
	if err != nil {
		t.Fatalf("HandleInput() error = %v", err)
	}
	if reply.Topic != "Paging" {
		t.Fatalf("expected advance to Paging, got %q", reply.Topic)
	}

	reply, err = uc.HandleInput(context.Background(), "user-1", "deck-1", "next")
	if err != nil {
		t.Fatalf("HandleInput() error = %v", err)
	}
	if reply.ActionTaken != "completed_syllabus" || reply.AwaitingInput {
		t.Fatalf("expected completion, got %+v", reply)
	}
	session, _ := sessions.Get("user-1", "deck-1")
	if session.Teaching.Active || len(session.Teaching.TopicsCompleted) != 2 {
		t.Fatalf("completion state wrong: %+v", session.Teaching)
	}
}

func TestSlowerMarksTopicForReview(t *testing.T) {
	uc, sessions := newTeachFixture([]string{"Scheduling"})
	if _, err := uc.Start(context.Background(), "user-1", "deck-1", "", domain.PaceMedium); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, err := uc.HandleInput(context.Background(), "user-1", "deck-1", "I don't understand"); err != nil {
		t.Fatalf("HandleInput() error = %v", err)
	}
	session, _ := sessions.Get("user-1", "deck-1")
	if len(session.Teaching.TopicsNeedingReview) != 1 || session.Teaching.TopicsNeedingReview[0] != "Scheduling" {
		t.Fatalf("topic not marked for review: %+v", session.Teaching)
	}
}

func TestPracticeDuringTeaching(t *testing.T) {
	uc, _ := newTeachFixture([]string{"Scheduling"})
	if _, err := uc.Start(context.Background(), "user-1", "deck-1", "", domain.PaceMedium); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	reply, err := uc.HandleInput(context.Background(), "user-1", "deck-1", "test me")
	if err != nil {
		t.Fatalf("HandleInput() error = %v", err)
	}
	if reply.ActionTaken != "provided_practice" || !strings.Contains(reply.Message, "PRACTICE QUESTIONS") {
		t.Fatalf("practice not provided: %+v", reply)
	}
}

func TestExitPausesSession(t *testing.T) {
	uc, sessions := newTeachFixture([]string{"Scheduling", "Paging"})
	if _, err := uc.Start(context.Background(), "user-1", "deck-1", "", domain.PaceMedium); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	reply, err := uc.HandleInput(context.Background(), "user-1", "deck-1", "stop")
	if err != nil {
		t.Fatalf("HandleInput() error = %v", err)
	}
	if reply.Mode != domain.ModeFreeChat {
		t.Fatalf("expected free chat mode, got %s", reply.Mode)
	}
	session, _ := sessions.Get("user-1", "deck-1")
	if session.Teaching.Active {
		t.Fatalf("session still active after exit")
	}

	resumed, err := uc.Resume(context.Background(), "user-1", "deck-1")
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if resumed.Topic != "Scheduling" {
		t.Fatalf("resume should continue at current topic, got %q", resumed.Topic)
	}
}

func TestHandleInputWithoutSession(t *testing.T) {
	uc, _ := newTeachFixture([]string{"Scheduling"})
	_, err := uc.HandleInput(context.Background(), "user-1", "deck-1", "next")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input", err)
	}
}

func TestParseUserAction(t *testing.T) {
	cases := []struct {
		input string
		want  domain.UserAction
	}{
		{"next", domain.ActionNextTopic},
		{"please continue", domain.ActionNextTopic},
		{"explain more please", domain.ActionExplainMore},
		{"I'm confused", domain.ActionExplainSlower},
		{"give me practice problems", domain.ActionPractice},
		{"show me an example", domain.ActionExample},
		{"say that again", domain.ActionRepeat},
		{"skip to deadlocks", domain.ActionSkip},
		{"stop", domain.ActionExit},
		{"what is a semaphore?", domain.ActionQuestion},
	}
	for _, tc := range cases {
		if got := ParseUserAction(tc.input); got != tc.want {
			t.Fatalf("ParseUserAction(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}
