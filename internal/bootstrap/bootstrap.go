package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/chipfilings/assistant/internal/config"
	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/ports"
	"github.com/chipfilings/assistant/internal/core/usecase"
	"github.com/chipfilings/assistant/internal/infrastructure/fragment"
	"github.com/chipfilings/assistant/internal/infrastructure/llm/openai"
	"github.com/chipfilings/assistant/internal/infrastructure/pdftext"
	"github.com/chipfilings/assistant/internal/infrastructure/queue/nats"
	"github.com/chipfilings/assistant/internal/infrastructure/repository/memory"
	"github.com/chipfilings/assistant/internal/infrastructure/repository/postgres"
	"github.com/chipfilings/assistant/internal/infrastructure/resilience"
	"github.com/chipfilings/assistant/internal/infrastructure/search/tavily"
	"github.com/chipfilings/assistant/internal/infrastructure/sections"
	"github.com/chipfilings/assistant/internal/infrastructure/storage/localfs"
	"github.com/chipfilings/assistant/internal/infrastructure/vector/pinecone"
)

type App struct {
	Config   config.Config
	Registry *domain.Registry

	Queue      ports.MessageQueue
	Vector     ports.VectorStore
	Web        ports.WebSearcher
	FilingRepo ports.FilingRepository

	QueryUC   *usecase.QueryUseCase
	CompareUC *usecase.CompareUseCase
	AskUC     ports.QuestionService
	FilingUC  ports.FilingService
	ExtractUC ports.SectionExtractProcessor
	EnrichUC  ports.Enricher

	closeFn func()
}

// Telemetry carries the optional metrics recorders each binary wires in.
// Zero value disables recording.
type Telemetry struct {
	Answer  ports.AnswerTelemetry
	Extract ports.ExtractTelemetry
}

// New wires the full application for the api and worker binaries.
func New(ctx context.Context, cfg config.Config, tel Telemetry) (*App, error) {
	registry, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	vector := newVectorStore(cfg, resilience.NewExecutor(resilience.PineconePolicy()))

	llm := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIGenModel, cfg.OpenAIEmbedModel, resilience.NewExecutor(resilience.OpenAIPolicy()))
	embedder := openai.NewEmbedder(llm)
	generator := openai.NewGenerator(llm)
	web := tavily.New(cfg.TavilyAPIKey, resilience.NewExecutor(resilience.TavilyPolicy()))

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	sectionStore, err := sections.New(cfg.SectionsDir)
	if err != nil {
		return nil, fmt.Errorf("init section store: %w", err)
	}
	textSource := pdftext.NewExtractor(cfg.FilingsDir)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.QueuePolicy()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	filingRepo, checkpoint, closeDB, err := newRepositories(ctx, cfg)
	if err != nil {
		queue.Close()
		return nil, err
	}

	queryUC := usecase.NewQueryUseCase(embedder, vector, generator, cfg.RAGTopK, cfg.RetrievalMinScore)
	compareUC := usecase.NewCompareUseCase(embedder, vector, generator, cfg.RAGPerCompany)
	router := usecase.NewQueryRouter(registry)

	var agentUC *usecase.AgentAnswerUseCase
	if cfg.AgentModeEnabled {
		agentUC = usecase.NewAgentAnswerUseCase(compareUC, web, generator, registry, domain.AgentLimits{
			MaxIterations: cfg.AgentMaxIterations,
			Timeout:       time.Duration(cfg.AgentTimeoutSeconds) * time.Second,
		}, tel.Answer)
	}

	askUC := usecase.NewAskUseCase(router, queryUC, compareUC, web, generator, agentUC, tel.Answer)
	filingUC := usecase.NewFilingUseCase(registry, filingRepo, queue)
	extractUC := usecase.NewSectionExtractUseCase(registry, textSource, storage, generator, sectionStore, filingRepo, tel.Extract)
	enrichUC := usecase.NewEnrichUseCase(registry, vector, textSource, sectionStore, checkpoint, fragment.Longest, pdftext.LocatePage)

	return &App{
		Config:   cfg,
		Registry: registry,

		Queue:      queue,
		Vector:     vector,
		Web:        web,
		FilingRepo: filingRepo,

		QueryUC:   queryUC,
		CompareUC: compareUC,
		AskUC:     askUC,
		FilingUC:  filingUC,
		ExtractUC: extractUC,
		EnrichUC:  enrichUC,

		closeFn: func() {
			queue.Close()
			closeDB()
		},
	}, nil
}

// CLIApp is the reduced wiring for the filings CLI: the vector index, the
// local filing artifacts, and optional enrichment checkpoints. No LLM, web
// search, or queue connections are made.
type CLIApp struct {
	Config   config.Config
	Registry *domain.Registry
	Vector   ports.VectorStore
	EnrichUC ports.Enricher

	closeFn func()
}

func NewCLI(ctx context.Context, cfg config.Config) (*CLIApp, error) {
	registry, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	vector := newVectorStore(cfg, resilience.NewExecutor(resilience.PineconePolicy()))

	sectionStore, err := sections.New(cfg.SectionsDir)
	if err != nil {
		return nil, fmt.Errorf("init section store: %w", err)
	}
	textSource := pdftext.NewExtractor(cfg.FilingsDir)

	_, checkpoint, closeDB, err := newRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	enrichUC := usecase.NewEnrichUseCase(registry, vector, textSource, sectionStore, checkpoint, fragment.Longest, pdftext.LocatePage)

	return &CLIApp{
		Config:   cfg,
		Registry: registry,
		Vector:   vector,
		EnrichUC: enrichUC,
		closeFn:  closeDB,
	}, nil
}

// MCPApp wires only the retrieval surfaces the MCP tools need.
type MCPApp struct {
	Config   config.Config
	Registry *domain.Registry
	Vector   ports.VectorStore
	Web      ports.WebSearcher

	QueryUC   *usecase.QueryUseCase
	CompareUC *usecase.CompareUseCase
}

func NewMCP(ctx context.Context, cfg config.Config) (*MCPApp, error) {
	registry, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	vector := newVectorStore(cfg, resilience.NewExecutor(resilience.PineconePolicy()))

	llm := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIGenModel, cfg.OpenAIEmbedModel, resilience.NewExecutor(resilience.OpenAIPolicy()))
	embedder := openai.NewEmbedder(llm)
	generator := openai.NewGenerator(llm)
	web := tavily.New(cfg.TavilyAPIKey, resilience.NewExecutor(resilience.TavilyPolicy()))

	return &MCPApp{
		Config:    cfg,
		Registry:  registry,
		Vector:    vector,
		Web:       web,
		QueryUC:   usecase.NewQueryUseCase(embedder, vector, generator, cfg.RAGTopK, cfg.RetrievalMinScore),
		CompareUC: usecase.NewCompareUseCase(embedder, vector, generator, cfg.RAGPerCompany),
	}, nil
}

func loadRegistry(cfg config.Config) (*domain.Registry, error) {
	if cfg.CompaniesFile != "" {
		registry, err := domain.LoadRegistryFile(cfg.CompaniesFile)
		if err != nil {
			return nil, fmt.Errorf("load company registry: %w", err)
		}
		return registry, nil
	}
	return domain.DefaultRegistry(), nil
}

// newVectorStore makes no network calls: when the index host is not
// configured the client resolves it lazily on its first data-plane call,
// so input validation always runs before any Pinecone traffic.
func newVectorStore(cfg config.Config, executor *resilience.Executor) ports.VectorStore {
	if cfg.PineconeIndexHost != "" {
		return pinecone.New(cfg.PineconeIndexHost, cfg.PineconeAPIKey, executor)
	}
	return pinecone.NewWithIndex(cfg.PineconeAPIKey, cfg.PineconeIndexName, executor)
}

// newRepositories returns the filing repository and enrichment checkpoint
// log. With a Postgres DSN both are durable; without one, filing state is
// in-memory and enrichment runs without checkpoints.
func newRepositories(ctx context.Context, cfg config.Config) (ports.FilingRepository, ports.EnrichmentLog, func(), error) {
	if cfg.PostgresDSN == "" {
		return memory.NewFilingRepository(), nil, func() {}, nil
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
	}

	filingRepo := postgres.NewFilingRepository(db)
	if err := filingRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("ensure filings schema: %w", err)
	}

	enrichmentRepo := postgres.NewEnrichmentRepository(db)
	if err := enrichmentRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("ensure enrichment schema: %w", err)
	}

	return filingRepo, enrichmentRepo, func() { _ = db.Close() }, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func (a *CLIApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
