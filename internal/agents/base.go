package agents

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/core/ports"
)

// BaseAgent is the shared implementation of the agent contract: a system
// prompt in front of a model client plus lifecycle bookkeeping. Specialized
// agents embed it and override Execute when they need more than prompting.
type BaseAgent struct {
	id           string
	name         string
	agentType    domain.AgentType
	systemPrompt string
	model        ports.ModelClient

	mu    sync.Mutex
	state string
}

func NewBaseAgent(agentType domain.AgentType, name, systemPrompt string, model ports.ModelClient) *BaseAgent {
	return &BaseAgent{
		id:           uuid.NewString(),
		name:         name,
		agentType:    agentType,
		systemPrompt: systemPrompt,
		model:        model,
		state:        domain.AgentStateCreated,
	}
}

func (a *BaseAgent) Execute(ctx context.Context, messages []domain.Message, contextData map[string]any, metadata map[string]any) (domain.AgentResult, error) {
	wire := make([]domain.Message, 0, len(messages)+1)
	wire = append(wire, domain.Message{Role: domain.RoleSystem, Content: a.systemPrompt})
	wire = append(wire, messages...)

	response, err := a.model.Complete(ctx, wire)
	if err != nil {
		return domain.AgentResult{}, fmt.Errorf("%s agent: %w", a.agentType, err)
	}
	return domain.AgentResult{
		Response: response,
		Metadata: map[string]any{"agent_id": a.id},
	}, nil
}

func (a *BaseAgent) GetStatus() domain.AgentStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return domain.AgentStatus{
		ID:     a.id,
		Name:   a.name,
		Type:   a.agentType,
		Status: a.state,
	}
}

// Start is idempotent; a second call is a no-op.
func (a *BaseAgent) Start(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = domain.AgentStateRunning
	return nil
}

func (a *BaseAgent) Stop(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = domain.AgentStateStopped
	return nil
}

func (a *BaseAgent) HealthCheck(_ context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model != nil && a.state == domain.AgentStateRunning
}
