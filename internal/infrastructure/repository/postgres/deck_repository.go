package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/score-labs/score-backend/internal/core/domain"
)

type DeckRepository struct {
	db *sql.DB
}

func NewDeckRepository(db *sql.DB) *DeckRepository {
	return &DeckRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DeckRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS decks (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	name TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	syllabus TEXT NOT NULL,
	syllabus_topics JSONB NOT NULL DEFAULT '[]'::jsonb,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ingested_files (
	deck_id TEXT NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
	filename TEXT NOT NULL,
	chunks_created INTEGER NOT NULL,
	ingested_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS query_log (
	deck_id TEXT NOT NULL,
	query TEXT NOT NULL,
	intent TEXT NOT NULL,
	covered BOOLEAN NOT NULL,
	pace TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decks_user_id ON decks(user_id);
CREATE INDEX IF NOT EXISTS idx_ingested_files_deck_id ON ingested_files(deck_id);
CREATE INDEX IF NOT EXISTS idx_query_log_deck_id ON query_log(deck_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DeckRepository) CreateDeck(ctx context.Context, deck *domain.Deck) error {
	topicsJSON, err := json.Marshal(topicsOrEmpty(deck.SyllabusTopics))
	if err != nil {
		return fmt.Errorf("marshal syllabus topics: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO decks (
	id, user_id, name, subject, syllabus, syllabus_topics, chunk_count, status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		deck.ID, deck.UserID, deck.Name, deck.Subject, deck.Syllabus, topicsJSON,
		deck.ChunkCount, string(deck.Status), deck.CreatedAt, deck.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert deck: %w", err)
	}
	return nil
}

func (r *DeckRepository) GetDeck(ctx context.Context, id string) (*domain.Deck, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, name, subject, syllabus, syllabus_topics, chunk_count, status, created_at, updated_at
FROM decks
WHERE id = $1
`, id)

	var deck domain.Deck
	var topicsRaw []byte
	var status string

	err := row.Scan(
		&deck.ID, &deck.UserID, &deck.Name, &deck.Subject, &deck.Syllabus,
		&topicsRaw, &deck.ChunkCount, &status, &deck.CreatedAt, &deck.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDeckNotFound, "get deck", errors.New(id))
		}
		return nil, fmt.Errorf("scan deck: %w", err)
	}

	if err := json.Unmarshal(topicsRaw, &deck.SyllabusTopics); err != nil {
		return nil, fmt.Errorf("unmarshal syllabus topics: %w", err)
	}
	deck.Status = domain.DeckStatus(status)
	return &deck, nil
}

func (r *DeckRepository) ListDecks(ctx context.Context, userID string) ([]domain.Deck, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, name, subject, syllabus, syllabus_topics, chunk_count, status, created_at, updated_at
FROM decks
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query decks: %w", err)
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		var deck domain.Deck
		var topicsRaw []byte
		var status string
		if err := rows.Scan(
			&deck.ID, &deck.UserID, &deck.Name, &deck.Subject, &deck.Syllabus,
			&topicsRaw, &deck.ChunkCount, &status, &deck.CreatedAt, &deck.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan deck row: %w", err)
		}
		if err := json.Unmarshal(topicsRaw, &deck.SyllabusTopics); err != nil {
			return nil, fmt.Errorf("unmarshal syllabus topics: %w", err)
		}
		deck.Status = domain.DeckStatus(status)
		decks = append(decks, deck)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decks: %w", err)
	}
	return decks, nil
}

func (r *DeckRepository) DeleteDeck(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM decks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete deck rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDeckNotFound, "delete deck", errors.New(id))
	}
	return nil
}

func (r *DeckRepository) SaveSyllabusTopics(ctx context.Context, deckID string, topics []string) error {
	topicsJSON, err := json.Marshal(topicsOrEmpty(topics))
	if err != nil {
		return fmt.Errorf("marshal syllabus topics: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE decks
SET syllabus_topics = $2, status = $3, updated_at = $4
WHERE id = $1
`, deckID, topicsJSON, string(domain.DeckStatusActive), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save syllabus topics: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save syllabus topics rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDeckNotFound, "save syllabus topics", errors.New(deckID))
	}
	return nil
}

// RecordIngestedFile appends the file record and bumps the deck chunk counter
// in one transaction.
func (r *DeckRepository) RecordIngestedFile(ctx context.Context, file domain.IngestedFile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO ingested_files (deck_id, filename, chunks_created, ingested_at)
VALUES ($1,$2,$3,$4)
`, file.DeckID, file.Filename, file.ChunksCreated, file.IngestedAt); err != nil {
		return fmt.Errorf("insert ingested file: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE decks
SET chunk_count = chunk_count + $2, updated_at = $3
WHERE id = $1
`, file.DeckID, file.ChunksCreated, time.Now().UTC()); err != nil {
		return fmt.Errorf("bump chunk count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest tx: %w", err)
	}
	return nil
}

func (r *DeckRepository) ListIngestedFiles(ctx context.Context, deckID string) ([]domain.IngestedFile, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT deck_id, filename, chunks_created, ingested_at
FROM ingested_files
WHERE deck_id = $1
ORDER BY ingested_at
`, deckID)
	if err != nil {
		return nil, fmt.Errorf("query ingested files: %w", err)
	}
	defer rows.Close()

	var files []domain.IngestedFile
	for rows.Next() {
		var file domain.IngestedFile
		if err := rows.Scan(&file.DeckID, &file.Filename, &file.ChunksCreated, &file.IngestedAt); err != nil {
			return nil, fmt.Errorf("scan ingested file: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingested files: %w", err)
	}
	return files, nil
}

func (r *DeckRepository) LogQuery(ctx context.Context, entry domain.QueryLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO query_log (deck_id, query, intent, covered, pace, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, entry.DeckID, entry.Query, entry.Intent, entry.Covered, entry.Pace, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	return nil
}

func topicsOrEmpty(topics []string) []string {
	if topics == nil {
		return []string{}
	}
	return topics
}
