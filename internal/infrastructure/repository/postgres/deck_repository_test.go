package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/score-labs/score-backend/internal/core/domain"
)

func newDeckRepoWithMock(t *testing.T) (*DeckRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DeckRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetDeckReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newDeckRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, user_id, name, subject, syllabus").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetDeck(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDeckNotFound) {
		t.Fatalf("expected ErrDeckNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetDeckUnmarshalsTopics(t *testing.T) {
	repo, mock, done := newDeckRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "name", "subject", "syllabus", "syllabus_topics",
		"chunk_count", "status", "created_at", "updated_at",
	}).AddRow("deck-1", "user-1", "OS", "cs", "syllabus text",
		[]byte(`["Scheduling","Paging"]`), 12, "active", now, now)

	mock.ExpectQuery("SELECT id, user_id, name, subject, syllabus").
		WithArgs("deck-1").
		WillReturnRows(rows)

	deck, err := repo.GetDeck(context.Background(), "deck-1")
	if err != nil {
		t.Fatalf("GetDeck() error = %v", err)
	}
	if len(deck.SyllabusTopics) != 2 || deck.SyllabusTopics[0] != "Scheduling" {
		t.Fatalf("topics = %v", deck.SyllabusTopics)
	}
	if deck.Status != domain.DeckStatusActive || deck.ChunkCount != 12 {
		t.Fatalf("deck = %+v", deck)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteDeckNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newDeckRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM decks").
		WithArgs("deck-1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteDeck(context.Background(), "deck-1", "intruder")
	if !domain.IsKind(err, domain.ErrDeckNotFound) {
		t.Fatalf("expected ErrDeckNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveSyllabusTopicsMarksDeckActive(t *testing.T) {
	repo, mock, done := newDeckRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE decks").
		WithArgs("deck-1", []byte(`["A","B"]`), "active", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveSyllabusTopics(context.Background(), "deck-1", []string{"A", "B"}); err != nil {
		t.Fatalf("SaveSyllabusTopics() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordIngestedFileBumpsChunkCountTransactionally(t *testing.T) {
	repo, mock, done := newDeckRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ingested_files").
		WithArgs("deck-1", "notes.pdf", 7, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE decks").
		WithArgs("deck-1", 7, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RecordIngestedFile(context.Background(), domain.IngestedFile{
		DeckID:        "deck-1",
		Filename:      "notes.pdf",
		ChunksCreated: 7,
		IngestedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("RecordIngestedFile() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLogQueryInsertsEntry(t *testing.T) {
	repo, mock, done := newDeckRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO query_log").
		WithArgs("deck-1", "what is paging", "explain", true, "medium", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.LogQuery(context.Background(), domain.QueryLogEntry{
		DeckID:    "deck-1",
		Query:     "what is paging",
		Intent:    "explain",
		Covered:   true,
		Pace:      "medium",
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("LogQuery() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
