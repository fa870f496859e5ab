package domain

import "strings"

// AgentType is the closed routing key for the orchestrator. Values are stable
// and used as registry map keys and wire identifiers.
type AgentType string

const (
	AgentTypeSupervisor  AgentType = "supervisor"
	AgentTypeResearch    AgentType = "research"
	AgentTypeCode        AgentType = "code"
	AgentTypeKnowledge   AgentType = "knowledge"
	AgentTypeTask        AgentType = "task"
	AgentTypeImage       AgentType = "image"
	AgentTypeAudio       AgentType = "audio"
	AgentTypeReasoning   AgentType = "reasoning"
	AgentTypeComputerUse AgentType = "computer_use"
)

// WorkerAgentTypes lists every dispatchable agent type, excluding the
// supervisor itself. Order is stable for status listings.
func WorkerAgentTypes() []AgentType {
	return []AgentType{
		AgentTypeResearch,
		AgentTypeCode,
		AgentTypeKnowledge,
		AgentTypeTask,
		AgentTypeImage,
		AgentTypeAudio,
		AgentTypeReasoning,
		AgentTypeComputerUse,
	}
}

func ParseAgentType(raw string) (AgentType, bool) {
	candidate := AgentType(strings.ToLower(strings.TrimSpace(raw)))
	switch candidate {
	case AgentTypeSupervisor, AgentTypeResearch, AgentTypeCode, AgentTypeKnowledge,
		AgentTypeTask, AgentTypeImage, AgentTypeAudio, AgentTypeReasoning, AgentTypeComputerUse:
		return candidate, true
	default:
		return "", false
	}
}

// RoutingDecision is the classifier's single best pick for one chat turn.
// It is created once per turn and never mutated afterwards.
type RoutingDecision struct {
	AgentType  AgentType      `json:"agent_type"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
	Context    map[string]any `json:"context,omitempty"`
}

// AgentStatus is the cheap introspection payload every agent exposes.
type AgentStatus struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Type   AgentType `json:"type"`
	Status string    `json:"status"`
}

const (
	AgentStateCreated = "created"
	AgentStateRunning = "running"
	AgentStateStopped = "stopped"
)

// AgentResult is the unit of work an agent returns to the supervisor.
type AgentResult struct {
	Response string         `json:"response"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
