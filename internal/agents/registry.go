package agents

import (
	"context"
	"fmt"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/core/ports"
)

// Registry is the immutable routing table from agent type to agent. It is
// built once at bootstrap; lookups need no locking.
type Registry struct {
	agents map[domain.AgentType]ports.Agent
	order  []domain.AgentType
}

func NewRegistry(agents map[domain.AgentType]ports.Agent) *Registry {
	order := make([]domain.AgentType, 0, len(agents))
	for _, agentType := range domain.WorkerAgentTypes() {
		if _, ok := agents[agentType]; ok {
			order = append(order, agentType)
		}
	}
	return &Registry{agents: agents, order: order}
}

func (r *Registry) Lookup(agentType domain.AgentType) (ports.Agent, bool) {
	agent, ok := r.agents[agentType]
	return agent, ok
}

// All returns agents in stable worker-type order.
func (r *Registry) All() []ports.Agent {
	out := make([]ports.Agent, 0, len(r.order))
	for _, agentType := range r.order {
		out = append(out, r.agents[agentType])
	}
	return out
}

func (r *Registry) StartAll(ctx context.Context) error {
	for _, agentType := range r.order {
		if err := r.agents[agentType].Start(ctx); err != nil {
			return fmt.Errorf("start %s agent: %w", agentType, err)
		}
	}
	return nil
}

func (r *Registry) StopAll(ctx context.Context) error {
	var firstErr error
	for _, agentType := range r.order {
		if err := r.agents[agentType].Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop %s agent: %w", agentType, err)
		}
	}
	return firstErr
}
