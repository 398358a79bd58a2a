package sessionstore

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/score-labs/score-backend/internal/core/domain"
)

const defaultContextWindow = 10

// Store keeps interactive sessions in process memory with a sliding TTL.
// Losing a session on restart only resets teaching progress, so durable
// storage would be overkill here.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration

	mu sync.Mutex
}

func New(ttl, cleanupInterval time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &Store{
		cache: cache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

func key(userID, deckID string) string {
	return userID + ":" + deckID
}

func (s *Store) GetOrCreate(userID, deckID string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache.Get(key(userID, deckID)); ok {
		session := v.(*domain.Session)
		session.LastActivity = time.Now().UTC()
		s.cache.Set(key(userID, deckID), session, s.ttl)
		return session
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		DeckID:        deckID,
		CreatedAt:     now,
		LastActivity:  now,
		Mode:          domain.ModeIdle,
		ContextWindow: defaultContextWindow,
	}
	s.cache.Set(key(userID, deckID), session, s.ttl)
	return session
}

func (s *Store) Get(userID, deckID string) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(key(userID, deckID))
	if !ok {
		return nil, false
	}
	session := v.(*domain.Session)
	// Sliding expiration: reading keeps an active session alive.
	s.cache.Set(key(userID, deckID), session, s.ttl)
	return session, true
}

func (s *Store) Save(session *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.LastActivity = time.Now().UTC()
	s.cache.Set(key(session.UserID, session.DeckID), session, s.ttl)
}

func (s *Store) Delete(userID, deckID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(key(userID, deckID))
}
