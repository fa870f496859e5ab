package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one chat message. Content is plain text for most messages; tool
// results may carry a structured payload instead.
type Message struct {
	Role     Role           `json:"role"`
	Content  any            `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EffectiveRole resolves the role used for downstream model calls. A message
// becomes a tool message when its metadata carries a tool-call id or its
// structured content marks itself as a tool result.
func (m Message) EffectiveRole() Role {
	if m.Metadata != nil {
		if _, ok := m.Metadata["tool_call_id"]; ok {
			return RoleTool
		}
	}
	if payload, ok := m.Content.(map[string]any); ok {
		if kind, ok := payload["type"].(string); ok && kind == "tool_result" {
			return RoleTool
		}
	}
	return m.Role
}

// Text flattens message content to a string for prompt assembly.
func (m Message) Text() string {
	switch content := m.Content.(type) {
	case string:
		return content
	case map[string]any:
		if result, ok := content["result"].(string); ok {
			return result
		}
		if text, ok := content["text"].(string); ok {
			return text
		}
		return ""
	default:
		return ""
	}
}

type StepStatus string

const (
	StepStatusOK    StepStatus = "ok"
	StepStatusError StepStatus = "error"
)

// ExecutionStep records one dispatch attempt inside a turn. Steps are
// appended in dispatch order and never mutated or removed.
type ExecutionStep struct {
	AgentType AgentType  `json:"agent_type"`
	Input     string     `json:"input"`
	Output    string     `json:"output"`
	Timestamp time.Time  `json:"timestamp"`
	Status    StepStatus `json:"status"`
}

// ChatRequest is the supervisor's inbound contract for one chat turn.
type ChatRequest struct {
	Input    string         `json:"input"`
	Stream   bool           `json:"stream"`
	ClientID string         `json:"client_id,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

// ChatResponse is produced exactly once per processed chat request.
// Metadata always carries the turn's full execution history.
type ChatResponse struct {
	Response  string         `json:"response"`
	AgentType AgentType      `json:"agent_type"`
	Messages  []Message      `json:"messages"`
	Metadata  map[string]any `json:"metadata"`
}

type FallbackProvider string

const (
	FallbackProviderOpenAI      FallbackProvider = "openai"
	FallbackProviderHuggingFace FallbackProvider = "huggingface"
	FallbackProviderRules       FallbackProvider = "rule_based_fsm"
	FallbackProviderTemplate    FallbackProvider = "emergency_template"
)

// FallbackResult is what the degradation chain returns. Level is the 0-based
// tier index that produced the response and strictly increases as the chain
// descends.
type FallbackResult struct {
	Response string           `json:"response"`
	Provider FallbackProvider `json:"provider_used"`
	Level    int              `json:"fallback_level"`
	Metadata map[string]any   `json:"metadata,omitempty"`
}

// TurnRecord is the persisted copy of one completed turn.
type TurnRecord struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	Input         string          `json:"input"`
	Response      string          `json:"response"`
	AgentType     AgentType       `json:"agent_type"`
	FallbackLevel int             `json:"fallback_level"`
	Steps         []ExecutionStep `json:"steps"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TurnEvent is published to the message bus after a turn completes.
type TurnEvent struct {
	TurnID        string           `json:"turn_id"`
	AgentType     AgentType        `json:"agent_type"`
	Provider      FallbackProvider `json:"provider,omitempty"`
	FallbackLevel int              `json:"fallback_level"`
	DurationMS    float64          `json:"duration_ms"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Fact is a knowledge-graph lookup result used by the knowledge agent.
type Fact struct {
	Subject  string  `json:"subject"`
	Relation string  `json:"relation"`
	Object   string  `json:"object"`
	Score    float64 `json:"score,omitempty"`
}
