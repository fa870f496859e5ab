package ports

import (
	"context"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
)

// Agent is the uniform execution contract every specialized agent implements.
// The supervisor never inspects concrete agent identity beyond the enum key.
type Agent interface {
	Execute(ctx context.Context, messages []domain.Message, contextData map[string]any, metadata map[string]any) (domain.AgentResult, error)
	GetStatus() domain.AgentStatus
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	HealthCheck(ctx context.Context) bool
}

// AgentRegistry resolves the agent bound to a routing key. The registry is
// built once and immutable for the orchestrator's lifetime.
type AgentRegistry interface {
	Lookup(agentType domain.AgentType) (Agent, bool)
	All() []Agent
}

// IntentClassifier picks exactly one agent type for a chat turn.
type IntentClassifier interface {
	Classify(ctx context.Context, input string, contextData map[string]any) (domain.RoutingDecision, error)
}

// ResponseFallback is the layered degradation chain. GenerateResponse never
// fails; the terminal tier always yields non-empty text.
type ResponseFallback interface {
	GenerateResponse(ctx context.Context, input string, contextData map[string]any) domain.FallbackResult
	CapabilitiesInfo() map[string]bool
}

// ModelClient issues remote completion calls for one configured model.
type ModelClient interface {
	Complete(ctx context.Context, messages []domain.Message) (string, error)
	CompleteJSON(ctx context.Context, prompt string) (string, error)
}

// TurnRecorder persists completed turns when a database is configured.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, turn domain.TurnRecord) error
}

// TurnHistory reads back a client's recently recorded turns, newest first.
type TurnHistory interface {
	ListRecentTurns(ctx context.Context, clientID string, limit int) ([]domain.TurnRecord, error)
}

// EventPublisher emits turn-completed events for downstream consumers.
type EventPublisher interface {
	PublishTurnCompleted(ctx context.Context, event domain.TurnEvent) error
}

// KnowledgeGraph serves fact lookups for the knowledge agent.
type KnowledgeGraph interface {
	LookupFacts(ctx context.Context, query string, limit int) ([]domain.Fact, error)
}

// TaskStore persists and retrieves tasks for the task agent.
type TaskStore interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	ListTasks(ctx context.Context, clientID string, includeDeleted bool) ([]domain.Task, error)
	GetTaskByID(ctx context.Context, clientID, taskID string) (*domain.Task, error)
	UpdateTask(ctx context.Context, task *domain.Task) error
	SoftDeleteTask(ctx context.Context, clientID, taskID string) error
}

// ToolCaller invokes one named tool on an external tool server.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, arguments map[string]any) (string, error)
}
