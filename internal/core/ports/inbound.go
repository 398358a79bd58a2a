package ports

import (
	"context"
	"io"

	"github.com/score-labs/score-backend/internal/core/domain"
)

// UploadedFile is one multipart file handed to the upload orchestrator.
type UploadedFile struct {
	Filename string
	Body     io.Reader
}

// DeckUploader is the inbound contract for staging files and enqueueing an
// ingestion job.
type DeckUploader interface {
	Upload(ctx context.Context, userID, deckID string, files []UploadedFile) (IngestionJob, error)
}

// DeckIngestor is the inbound contract for running the ingestion pipeline on
// a queued job.
type DeckIngestor interface {
	IngestJob(ctx context.Context, job IngestionJob) (*domain.PipelineResult, error)
}

// QuestionAnswerer is the inbound contract for the full ask pipeline:
// classify, domain-check, retrieve, coverage-check, respond.
type QuestionAnswerer interface {
	Ask(ctx context.Context, userID, deckID, query string, pace domain.Pace) (*domain.Answer, error)
}
