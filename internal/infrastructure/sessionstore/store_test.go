package sessionstore

import (
	"testing"
	"time"

	"github.com/score-labs/score-backend/internal/core/domain"
)

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	store := New(time.Minute, time.Minute)

	first := store.GetOrCreate("user-1", "deck-1")
	if first.ID == "" || first.Mode != domain.ModeIdle {
		t.Fatalf("fresh session malformed: %+v", first)
	}

	second := store.GetOrCreate("user-1", "deck-1")
	if second.ID != first.ID {
		t.Fatalf("expected same session, got %q and %q", first.ID, second.ID)
	}
}

func TestSessionsIsolatedPerDeck(t *testing.T) {
	store := New(time.Minute, time.Minute)

	a := store.GetOrCreate("user-1", "deck-1")
	b := store.GetOrCreate("user-1", "deck-2")
	if a.ID == b.ID {
		t.Fatalf("decks must not share sessions")
	}
}

func TestSaveAndGet(t *testing.T) {
	store := New(time.Minute, time.Minute)

	session := store.GetOrCreate("user-1", "deck-1")
	session.Mode = domain.ModeTeaching
	store.Save(session)

	got, ok := store.Get("user-1", "deck-1")
	if !ok || got.Mode != domain.ModeTeaching {
		t.Fatalf("saved state lost: %+v ok=%v", got, ok)
	}
	if got.LastActivity.IsZero() {
		t.Fatalf("Save should stamp activity")
	}
}

func TestDeleteRemovesSession(t *testing.T) {
	store := New(time.Minute, time.Minute)

	store.GetOrCreate("user-1", "deck-1")
	store.Delete("user-1", "deck-1")
	if _, ok := store.Get("user-1", "deck-1"); ok {
		t.Fatalf("session should be gone")
	}
}

func TestSessionExpiresAfterTTL(t *testing.T) {
	store := New(10*time.Millisecond, time.Millisecond)

	store.GetOrCreate("user-1", "deck-1")
	time.Sleep(30 * time.Millisecond)
	if _, ok := store.Get("user-1", "deck-1"); ok {
		t.Fatalf("session should have expired")
	}
}
