package domain

import "time"

type DeckStatus string

const (
	DeckStatusCreated DeckStatus = "created"
	DeckStatusActive  DeckStatus = "active"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Deck is a user's isolated study unit: one syllabus, one vector namespace,
// one set of ingested files. SyllabusTopics caches the parsed topic list so
// the domain guard, retriever and teaching flow do not re-parse per request.
type Deck struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Name           string     `json:"name"`
	Subject        string     `json:"subject"`
	Syllabus       string     `json:"syllabus"`
	SyllabusTopics []string   `json:"syllabus_topics"`
	ChunkCount     int        `json:"chunk_count"`
	Status         DeckStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IngestedFile is an append-only record of one file processed into a deck.
type IngestedFile struct {
	DeckID        string    `json:"deck_id"`
	Filename      string    `json:"filename"`
	ChunksCreated int       `json:"chunks_created"`
	IngestedAt    time.Time `json:"ingested_at"`
}

// TopicCoverageEntry reports how much stored material one syllabus topic
// has.
type TopicCoverageEntry struct {
	Topic          string `json:"topic"`
	DocumentsFound int    `json:"documents_found"`
	Covered        bool   `json:"covered"`
}

// DeckCoverageReport is the per-deck syllabus coverage analysis.
type DeckCoverageReport struct {
	TotalTopics   int                  `json:"total_topics"`
	CoveredTopics int                  `json:"covered_topics"`
	CoverageRatio float64              `json:"coverage_ratio"`
	Topics        []TopicCoverageEntry `json:"topics"`
}

// QueryLogEntry records one answered query for analytics.
type QueryLogEntry struct {
	DeckID    string    `json:"deck_id"`
	Query     string    `json:"query"`
	Intent    string    `json:"intent"`
	Covered   bool      `json:"covered"`
	Pace      string    `json:"pace"`
	Timestamp time.Time `json:"timestamp"`
}
