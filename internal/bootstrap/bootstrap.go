package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/agent-orchestrator/internal/agents"
	"github.com/kirillkom/agent-orchestrator/internal/config"
	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/core/ports"
	"github.com/kirillkom/agent-orchestrator/internal/core/usecase"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/capability"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/fallback"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/llm/hf"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/llm/openai"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/modelfactory"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/queue/nats"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/ratelimit"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/resilience"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/tools/mcpclient"
	"github.com/kirillkom/agent-orchestrator/internal/observability/metrics"
)

// App wires the whole orchestrator once at startup. Optional backends
// (postgres, nats, neo4j, mcp) are skipped when unconfigured and reported
// through the capability registry.
type App struct {
	Config config.Config

	Metrics      *metrics.OrchestratorMetrics
	Capabilities *capability.Registry
	Limiter      *ratelimit.Limiter
	Registry     *agents.Registry
	Fallback     ports.ResponseFallback
	Supervisor   *usecase.Supervisor
	TurnHistory  ports.TurnHistory

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	m := metrics.NewOrchestratorMetrics(cfg.MetricsNamespace, cfg.ServiceName)
	capabilities := capability.NewRegistry()
	executor := resilience.NewExecutor(resilience.DefaultPolicy())
	limiter := ratelimit.NewLimiter(ratelimit.Limits{
		PerMinute: cfg.RateLimitPerMinute,
		PerHour:   cfg.RateLimitPerHour,
		PerDay:    cfg.RateLimitPerDay,
	})

	profiles, err := config.LoadAgentProfiles(cfg.AgentProfilesPath)
	if err != nil {
		return nil, fmt.Errorf("load agent profiles: %w", err)
	}

	factory := modelfactory.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, executor)
	buildClient := func(agentType domain.AgentType) (*openai.Client, error) {
		params := map[string]any{
			modelfactory.ParamModel:          cfg.OpenAIModel,
			modelfactory.ParamTemperature:    cfg.OpenAITemperature,
			modelfactory.ParamTimeoutSeconds: cfg.OpenAITimeoutSec,
		}
		if profile, ok := profiles[string(agentType)]; ok {
			if profile.Model != "" {
				params[modelfactory.ParamModel] = profile.Model
			}
			if profile.Temperature != 0 {
				params[modelfactory.ParamTemperature] = profile.Temperature
			}
			if profile.MaxTokens != 0 {
				params[modelfactory.ParamMaxTokens] = profile.MaxTokens
			}
		}
		client, err := factory.CreateModelClient(params)
		if err != nil {
			return nil, fmt.Errorf("build %s model client: %w", agentType, err)
		}
		return client, nil
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, error) {
		closeAll()
		return nil, err
	}

	openAIPresent := cfg.OpenAIAPIKey != ""
	capabilities.Set(capability.ComponentOpenAI, openAIPresent)
	capabilities.Set(capability.ComponentHuggingFace, cfg.HFAPIToken != "")

	var (
		recorder  ports.TurnRecorder
		history   ports.TurnHistory
		taskStore ports.TaskStore
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return fail(fmt.Errorf("open postgres: %w", err))
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return fail(fmt.Errorf("ensure schema: %w", err))
		}
		turnRepo := postgres.NewTurnRepository(db)
		recorder = turnRepo
		history = turnRepo
		taskStore = postgres.NewTaskRepository(db)
	}
	capabilities.Set(capability.ComponentPostgres, recorder != nil)

	var events ports.EventPublisher
	if cfg.NATSURL != "" {
		publisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return fail(fmt.Errorf("init message queue: %w", err))
		}
		closers = append(closers, publisher.Close)
		events = publisher
	}
	capabilities.Set(capability.ComponentNATS, events != nil)

	var graph ports.KnowledgeGraph
	if cfg.Neo4jURI != "" {
		store, err := neo4j.NewStore(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, "")
		if err != nil {
			return fail(fmt.Errorf("init knowledge graph: %w", err))
		}
		closers = append(closers, func() { _ = store.Close(context.Background()) })
		graph = store
	}
	capabilities.Set(capability.ComponentNeo4j, graph != nil)

	var tools ports.ToolCaller
	if cfg.ComputerUseEnabled && cfg.MCPServerURL != "" {
		mcp, err := mcpclient.New(ctx, cfg.MCPServerURL)
		if err != nil {
			return fail(fmt.Errorf("init mcp client: %w", err))
		}
		closers = append(closers, func() { _ = mcp.Close() })
		tools = mcp
	}
	capabilities.Set(capability.ComponentMCP, tools != nil)

	agentMap := make(map[domain.AgentType]ports.Agent)
	for _, agentType := range []domain.AgentType{
		domain.AgentTypeResearch,
		domain.AgentTypeCode,
		domain.AgentTypeImage,
		domain.AgentTypeAudio,
		domain.AgentTypeReasoning,
	} {
		client, err := buildClient(agentType)
		if err != nil {
			return fail(err)
		}
		agentMap[agentType] = agents.NewPromptAgent(agentType, client)
	}

	knowledgeClient, err := buildClient(domain.AgentTypeKnowledge)
	if err != nil {
		return fail(err)
	}
	agentMap[domain.AgentTypeKnowledge] = agents.NewKnowledgeAgent(knowledgeClient, graph)

	if taskStore != nil {
		taskClient, err := buildClient(domain.AgentTypeTask)
		if err != nil {
			return fail(err)
		}
		agentMap[domain.AgentTypeTask] = agents.NewTaskAgent(taskClient, taskStore)
	}
	if tools != nil {
		computerClient, err := buildClient(domain.AgentTypeComputerUse)
		if err != nil {
			return fail(err)
		}
		agentMap[domain.AgentTypeComputerUse] = agents.NewComputerUseAgent(computerClient, tools, cfg.ComputerUseSafetyMode)
	}

	registry := agents.NewRegistry(agentMap)
	if err := registry.StartAll(ctx); err != nil {
		return fail(fmt.Errorf("start agents: %w", err))
	}

	var primary, secondary fallback.Generator
	if openAIPresent {
		client, err := buildClient(domain.AgentTypeSupervisor)
		if err != nil {
			return fail(err)
		}
		primary = client
	}
	if cfg.HFAPIToken != "" {
		secondary = hf.New(hf.Options{
			BaseURL:  cfg.HFBaseURL,
			Token:    cfg.HFAPIToken,
			Model:    cfg.HFModel,
			Executor: executor,
		})
	}
	chain := fallback.NewChain(primary, secondary)

	classifierClient, err := buildClient(domain.AgentTypeSupervisor)
	if err != nil {
		return fail(err)
	}
	classifier := openai.NewClassifier(classifierClient)

	defaultAgent, ok := domain.ParseAgentType(cfg.DefaultAgent)
	if !ok {
		defaultAgent = domain.AgentTypeKnowledge
	}
	supervisor := usecase.NewSupervisor(classifier, registry, chain, recorder, events, m, usecase.SupervisorOptions{
		ServiceName:       cfg.ServiceName,
		DefaultAgent:      defaultAgent,
		AgentTimeout:      time.Duration(cfg.AgentTimeoutSec) * time.Second,
		ClassifierTimeout: time.Duration(cfg.ClassifierTimeoutSec) * time.Second,
	})

	return &App{
		Config:       cfg,
		Metrics:      m,
		Capabilities: capabilities,
		Limiter:      limiter,
		Registry:     registry,
		Fallback:     chain,
		Supervisor:   supervisor,
		TurnHistory:  history,
		closeFn:      closeAll,
	}, nil
}

func (a *App) Close() {
	_ = a.Registry.StopAll(context.Background())
	if a.closeFn != nil {
		a.closeFn()
	}
}
