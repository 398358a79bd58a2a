package ports

import (
	"context"
	"io"

	"github.com/score-labs/score-backend/internal/core/domain"
)

// Oracle is the single text-completion capability every LLM-backed component
// consumes. One prompt in, one completion out, no session state.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder maps text to fixed-length L2-normalized vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists per-(user,deck) isolated embedding collections.
// Namespace isolation is mandatory; cross-namespace leakage is a correctness
// violation.
type VectorStore interface {
	Upsert(ctx context.Context, ns domain.Namespace, documents []string, vectors [][]float32, metadata []map[string]string) error
	Query(ctx context.Context, ns domain.Namespace, vector []float32, limit int) ([]domain.RetrievedDocument, error)
	Count(ctx context.Context, ns domain.Namespace) (int, error)
	DeleteNamespace(ctx context.Context, ns domain.Namespace) error
}

// UserRepository persists user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// DeckRepository persists deck state: syllabus text, cached parsed topics,
// ingested-file records and chunk counters.
type DeckRepository interface {
	CreateDeck(ctx context.Context, deck *domain.Deck) error
	GetDeck(ctx context.Context, id string) (*domain.Deck, error)
	ListDecks(ctx context.Context, userID string) ([]domain.Deck, error)
	DeleteDeck(ctx context.Context, id, userID string) error
	SaveSyllabusTopics(ctx context.Context, deckID string, topics []string) error
	RecordIngestedFile(ctx context.Context, file domain.IngestedFile) error
	ListIngestedFiles(ctx context.Context, deckID string) ([]domain.IngestedFile, error)
	LogQuery(ctx context.Context, entry domain.QueryLogEntry) error
}

// ObjectStorage stages uploaded source files until the worker processes them.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// IngestionJob describes one queued ingestion batch for a deck.
type IngestionJob struct {
	JobID  string            `json:"job_id"`
	UserID string            `json:"user_id"`
	DeckID string            `json:"deck_id"`
	Files  []IngestionSource `json:"files"`
}

// IngestionSource points at one staged file within a job.
type IngestionSource struct {
	Filename   string `json:"filename"`
	StorageKey string `json:"storage_key"`
}

// MessageQueue publishes/consumes ingestion jobs.
type MessageQueue interface {
	PublishIngestionJob(ctx context.Context, job IngestionJob) error
	SubscribeIngestionJobs(ctx context.Context, handler func(context.Context, IngestionJob) error) error
}

// TextExtractor turns a staged source file into plain text. Unsupported or
// corrupt files fail per-file without aborting a batch.
type TextExtractor interface {
	Extract(ctx context.Context, storageKey, filename string) (string, error)
}

// WebSearcher queries an external search engine, restricted to whitelisted
// domains. Results feed labeled external answers only and are never stored.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error)
}

// TopicGraph caches topic expansions. Failures must degrade to oracle-only
// expansion, never abort retrieval.
type TopicGraph interface {
	Expansions(ctx context.Context, topic string) ([]string, error)
	SaveExpansion(ctx context.Context, topic string, subtopics []string) error
}

// SessionStore keeps per-(user,deck) interactive session state with a TTL
// tied to last activity. Implementations are in-process caches; no context.
type SessionStore interface {
	GetOrCreate(userID, deckID string) *domain.Session
	Get(userID, deckID string) (*domain.Session, bool)
	Save(session *domain.Session)
	Delete(userID, deckID string)
}
