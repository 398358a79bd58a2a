package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/score-labs/score-backend/internal/config"
	"github.com/score-labs/score-backend/internal/core/ports"
	"github.com/score-labs/score-backend/internal/core/usecase"
	"github.com/score-labs/score-backend/internal/infrastructure/chunking"
	"github.com/score-labs/score-backend/internal/infrastructure/embedding/ollama"
	"github.com/score-labs/score-backend/internal/infrastructure/extractor"
	neo4jgraph "github.com/score-labs/score-backend/internal/infrastructure/graph/neo4j"
	"github.com/score-labs/score-backend/internal/infrastructure/llm/groq"
	"github.com/score-labs/score-backend/internal/infrastructure/queue/nats"
	"github.com/score-labs/score-backend/internal/infrastructure/repository/postgres"
	"github.com/score-labs/score-backend/internal/infrastructure/resilience"
	"github.com/score-labs/score-backend/internal/infrastructure/search/ddg"
	"github.com/score-labs/score-backend/internal/infrastructure/sessionstore"
	"github.com/score-labs/score-backend/internal/infrastructure/storage/localfs"
	"github.com/score-labs/score-backend/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue

	DeckUC     *usecase.DeckUseCase
	UploadUC   ports.DeckUploader
	PipelineUC ports.DeckIngestor
	AskUC      ports.QuestionAnswerer
	PracticeUC *usecase.PracticeGenerator
	TeachUC    *usecase.TeachUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	decks := postgres.NewDeckRepository(db)
	users := postgres.NewUserRepository(db)
	if err := decks.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	oracle := groq.NewWithOptions(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel, groq.Options{
		RequestsPerMinute:  cfg.GroqRequestsPerMinute,
		ResilienceExecutor: executor,
	})
	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel)
	vectors := qdrant.New(cfg.QdrantURL)

	// The topic graph is optional; without it expansion falls back to the
	// oracle on every call.
	var graph ports.TopicGraph
	var closeGraph func()
	if cfg.Neo4jURI != "" {
		g, err := neo4jgraph.New(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, fmt.Errorf("init topic graph: %w", err)
		}
		graph = g
		closeGraph = func() {
			if err := g.Close(ctx); err != nil {
				slog.Warn("close topic graph", "error", err)
			}
		}
	}

	searcher := ddg.New(cfg.SearchWhitelist)

	sessions := sessionstore.New(time.Duration(cfg.SessionTTLMinutes)*time.Minute, 0)

	profiles, err := config.LoadPaceProfiles(cfg.PaceProfilesPath)
	if err != nil {
		return nil, fmt.Errorf("load pace profiles: %w", err)
	}

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinChunkSize)
	extract := extractor.NewDispatcher(storage)

	mapper := usecase.NewTopicMapper(oracle, cfg.MinRelevance)
	expander := usecase.NewTopicExpander(oracle, graph)
	retriever := usecase.NewRetriever(embedder, vectors, expander, profiles)
	guard := usecase.NewDomainGuard(embedder, cfg.DomainThreshold, cfg.TopicThreshold)
	coverage := usecase.NewCoverageChecker(0, 0, 0, 0)
	classifier := usecase.NewIntentClassifier(oracle)
	internet := usecase.NewInternetOracle(searcher, oracle)

	askUC := usecase.NewAskUseCase(decks, classifier, guard, retriever, coverage, oracle, internet)
	practiceUC := usecase.NewPracticeGenerator(oracle, retriever, nil)
	teachUC := usecase.NewTeachUseCase(decks, sessions, retriever, practiceUC, oracle)
	deckUC := usecase.NewDeckUseCase(users, decks, vectors, retriever, sessions)
	uploadUC := usecase.NewUploadUseCase(decks, storage, queue)
	pipelineUC := usecase.NewPipelineUseCase(decks, storage, extract, chunker, mapper, embedder, vectors)

	return &App{
		Config: cfg,
		Queue:  queue,

		DeckUC:     deckUC,
		UploadUC:   uploadUC,
		PipelineUC: pipelineUC,
		AskUC:      askUC,
		PracticeUC: practiceUC,
		TeachUC:    teachUC,

		closeFn: func() {
			queue.Close()
			if closeGraph != nil {
				closeGraph()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
