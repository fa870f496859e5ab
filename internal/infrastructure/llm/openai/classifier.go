package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
)

// Classifier picks the target agent type for a chat turn with a model call.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) Classify(ctx context.Context, input string, contextData map[string]any) (domain.RoutingDecision, error) {
	raw, err := c.client.CompleteJSON(ctx, buildRoutingPrompt(input, contextData))
	if err != nil {
		return domain.RoutingDecision{}, err
	}

	var payload struct {
		AgentType  string  `json:"agent_type"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return domain.RoutingDecision{}, fmt.Errorf("parse routing json: %w", err)
	}

	agentType, ok := domain.ParseAgentType(payload.AgentType)
	if !ok || agentType == domain.AgentTypeSupervisor {
		return domain.RoutingDecision{}, fmt.Errorf("routing picked unknown agent type %q", payload.AgentType)
	}

	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return domain.RoutingDecision{
		AgentType:  agentType,
		Confidence: confidence,
		Reasoning:  strings.TrimSpace(payload.Reasoning),
		Context:    contextData,
	}, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
