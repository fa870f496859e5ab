package agents

import (
	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/core/ports"
)

var systemPrompts = map[domain.AgentType]string{
	domain.AgentTypeResearch: "You are a research assistant. Gather relevant information, " +
		"cite what you rely on, and answer with a short structured summary.",
	domain.AgentTypeCode: "You are a programming assistant. Produce working code with a brief " +
		"explanation. Prefer small complete examples over fragments.",
	domain.AgentTypeImage: "You describe and reason about images. When asked to create one, " +
		"return a detailed generation prompt instead.",
	domain.AgentTypeAudio: "You handle audio-related requests: transcription summaries, " +
		"speech notes and audio processing advice.",
	domain.AgentTypeReasoning: "You solve multi-step problems. Think through the steps " +
		"and present the conclusion with its key justification.",
}

// NewPromptAgent builds one of the pure prompt-driven agents. Research, code,
// image, audio and reasoning agents differ only in their system prompt.
func NewPromptAgent(agentType domain.AgentType, model ports.ModelClient) *BaseAgent {
	return NewBaseAgent(agentType, string(agentType)+"-agent", systemPrompts[agentType], model)
}
