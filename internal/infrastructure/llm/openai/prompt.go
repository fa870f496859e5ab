package openai

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
)

func buildRoutingPrompt(input string, contextData map[string]any) string {
	const maxSnippet = 4000
	snippet := truncateUTF8(input, maxSnippet)

	types := make([]string, 0, len(domain.WorkerAgentTypes()))
	for _, agentType := range domain.WorkerAgentTypes() {
		types = append(types, string(agentType))
	}

	contextLine := "(none)"
	if hint, ok := contextData["routing_hint"].(string); ok && strings.TrimSpace(hint) != "" {
		contextLine = strings.TrimSpace(hint)
	}

	return fmt.Sprintf(`You are an intent router for a multi-agent assistant.
Return strict JSON object with keys:
agent_type (one of: %s), confidence (number from 0 to 1), reasoning (string).
Pick exactly one agent type. No markdown, no extra keys.

Routing hint:
%s

User request:
%s`, strings.Join(types, ", "), contextLine, snippet)
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
