package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
)

// UploadUseCase stages uploaded files in object storage and enqueues one
// ingestion job for the worker. Nothing is chunked or embedded on the
// request path.
type UploadUseCase struct {
	decks   ports.DeckRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewUploadUseCase(
	decks ports.DeckRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *UploadUseCase {
	return &UploadUseCase{
		decks:   decks,
		storage: storage,
		queue:   queue,
	}
}

func (uc *UploadUseCase) Upload(ctx context.Context, userID, deckID string, files []ports.UploadedFile) (ports.IngestionJob, error) {
	deck, err := uc.decks.GetDeck(ctx, deckID)
	if err != nil {
		return ports.IngestionJob{}, fmt.Errorf("load deck: %w", err)
	}
	if deck.UserID != userID {
		return ports.IngestionJob{}, domain.WrapError(domain.ErrAccessDenied, "upload", errors.New("deck belongs to another user"))
	}
	if len(files) == 0 {
		return ports.IngestionJob{}, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("no files supplied"))
	}

	job := ports.IngestionJob{
		JobID:  uuid.NewString(),
		UserID: userID,
		DeckID: deckID,
	}
	for _, file := range files {
		key := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeFilename(file.Filename))
		if err := uc.storage.Save(ctx, key, file.Body); err != nil {
			return ports.IngestionJob{}, fmt.Errorf("save %s to object storage: %w", file.Filename, err)
		}
		job.Files = append(job.Files, ports.IngestionSource{
			Filename:   file.Filename,
			StorageKey: key,
		})
	}

	if err := uc.queue.PublishIngestionJob(ctx, job); err != nil {
		return ports.IngestionJob{}, fmt.Errorf("publish ingestion job: %w", err)
	}
	return job, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "upload.bin"
	}
	return base
}

// Chunker is the splitting strategy consumed by the pipeline.
type Chunker interface {
	Chunk(text, sourceFile string) []domain.Chunk
}

// PipelineUseCase runs the worker side of ingestion: extract, chunk, map
// against the syllabus, embed and upsert. Jobs for the same deck serialize
// on a per-deck mutex so concurrent batches cannot interleave writes to one
// deck's vector space or counters; different decks proceed in parallel.
type PipelineUseCase struct {
	decks     ports.DeckRepository
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	chunker   Chunker
	mapper    *TopicMapper
	embedder  ports.Embedder
	vectors   ports.VectorStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewPipelineUseCase(
	decks ports.DeckRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	chunker Chunker,
	mapper *TopicMapper,
	embedder ports.Embedder,
	vectors ports.VectorStore,
) *PipelineUseCase {
	return &PipelineUseCase{
		decks:     decks,
		storage:   storage,
		extractor: extractor,
		chunker:   chunker,
		mapper:    mapper,
		embedder:  embedder,
		vectors:   vectors,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (uc *PipelineUseCase) deckLock(deckID string) *sync.Mutex {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	lock, ok := uc.locks[deckID]
	if !ok {
		lock = &sync.Mutex{}
		uc.locks[deckID] = lock
	}
	return lock
}

// IngestJob processes one queued batch. Files fail individually; a corrupt
// upload never aborts its siblings.
func (uc *PipelineUseCase) IngestJob(ctx context.Context, job ports.IngestionJob) (*domain.PipelineResult, error) {
	lock := uc.deckLock(job.DeckID)
	lock.Lock()
	defer lock.Unlock()

	deck, err := uc.decks.GetDeck(ctx, job.DeckID)
	if err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}
	if deck.UserID != job.UserID {
		return nil, domain.WrapError(domain.ErrAccessDenied, "ingest", errors.New("deck belongs to another user"))
	}

	topics := deck.SyllabusTopics
	if len(topics) == 0 {
		topics = uc.mapper.ParseSyllabus(ctx, deck.Syllabus)
		if err := uc.decks.SaveSyllabusTopics(ctx, job.DeckID, topics); err != nil {
			return nil, fmt.Errorf("cache syllabus topics: %w", err)
		}
	}

	result := &domain.PipelineResult{
		DeckID:         job.DeckID,
		SyllabusTopics: topics,
	}
	for _, source := range job.Files {
		fileResult := uc.ingestFile(ctx, deck, topics, source)
		result.Results = append(result.Results, fileResult)
		result.FilesProcessed++
		result.TotalChunks += fileResult.ChunksCreated
		result.TotalFiltered += fileResult.ChunksDropped
	}
	return result, nil
}

func (uc *PipelineUseCase) ingestFile(
	ctx context.Context,
	deck *domain.Deck,
	topics []string,
	source ports.IngestionSource,
) domain.IngestionResult {
	failed := func(err error) domain.IngestionResult {
		return domain.IngestionResult{Filename: source.Filename, Error: err.Error()}
	}

	text, err := uc.extractor.Extract(ctx, source.StorageKey, source.Filename)
	if err != nil {
		return failed(fmt.Errorf("extract: %w", err))
	}

	chunks := uc.chunker.Chunk(text, source.Filename)
	if len(chunks) == 0 {
		return failed(errors.New("no text content after chunking"))
	}

	mapped, dropped := uc.mapper.MapToSyllabus(ctx, chunks, deck.Syllabus, topics)
	if len(mapped) == 0 {
		// Everything was out of syllabus scope. Not an error: record the
		// drop counts and move on.
		return domain.IngestionResult{
			Filename:      source.Filename,
			Success:       true,
			ChunksDropped: dropped,
		}
	}

	documents := make([]string, len(mapped))
	metadata := make([]map[string]string, len(mapped))
	for i, mc := range mapped {
		documents[i] = mc.Content
		metadata[i] = map[string]string{
			"source_file": mc.SourceFile,
			"topics":      strings.Join(mc.Topics, ","),
			"relevance":   fmt.Sprintf("%.2f", mc.Relevance),
		}
	}

	vectors, err := uc.embedder.Embed(ctx, documents)
	if err != nil {
		return failed(fmt.Errorf("embed: %w", err))
	}
	if len(vectors) != len(documents) {
		return failed(fmt.Errorf("vectors/documents mismatch: %d/%d", len(vectors), len(documents)))
	}

	ns := domain.Namespace{UserID: deck.UserID, DeckID: deck.ID}
	if err := uc.vectors.Upsert(ctx, ns, documents, vectors, metadata); err != nil {
		return failed(fmt.Errorf("upsert vectors: %w", err))
	}

	if err := uc.decks.RecordIngestedFile(ctx, domain.IngestedFile{
		DeckID:        deck.ID,
		Filename:      source.Filename,
		ChunksCreated: len(mapped),
	}); err != nil {
		return failed(fmt.Errorf("record ingested file: %w", err))
	}

	// Staged uploads are scratch space; removal is best effort.
	_ = uc.storage.Remove(ctx, source.StorageKey)

	return domain.IngestionResult{
		Filename:      source.Filename,
		Success:       true,
		ChunksCreated: len(mapped),
		ChunksDropped: dropped,
	}
}
