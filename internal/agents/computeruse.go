package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/core/ports"
)

// safeTools is the action allowlist enforced when safety mode is on. Anything
// outside it is rejected before reaching the tool server.
var safeTools = map[string]bool{
	"screenshot":    true,
	"read_file":     true,
	"list_files":    true,
	"browse":        true,
	"search":        true,
	"clipboard_get": true,
}

// ComputerUseAgent drives an external tool server. The model plans one tool
// call per turn; safety mode restricts execution to read-only tools.
type ComputerUseAgent struct {
	*BaseAgent
	tools      ports.ToolCaller
	safetyMode bool
}

func NewComputerUseAgent(model ports.ModelClient, tools ports.ToolCaller, safetyMode bool) *ComputerUseAgent {
	prompt := "You operate a computer through a fixed tool set. Plan exactly one tool call."
	return &ComputerUseAgent{
		BaseAgent:  NewBaseAgent(domain.AgentTypeComputerUse, "computer-use-agent", prompt, model),
		tools:      tools,
		safetyMode: safetyMode,
	}
}

type toolPlan struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

func (a *ComputerUseAgent) Execute(ctx context.Context, messages []domain.Message, contextData map[string]any, metadata map[string]any) (domain.AgentResult, error) {
	if a.tools == nil {
		return domain.AgentResult{}, fmt.Errorf("computer-use agent: no tool server configured")
	}
	if len(messages) == 0 {
		return domain.AgentResult{}, fmt.Errorf("computer-use agent: empty conversation")
	}

	raw, err := a.model.CompleteJSON(ctx, buildToolPlanPrompt(messages[len(messages)-1].Text()))
	if err != nil {
		return domain.AgentResult{}, fmt.Errorf("computer-use plan: %w", err)
	}
	var plan toolPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return domain.AgentResult{}, fmt.Errorf("computer-use plan decode: %w", err)
	}
	plan.Tool = strings.TrimSpace(plan.Tool)
	if plan.Tool == "" {
		return domain.AgentResult{}, fmt.Errorf("computer-use plan: no tool selected")
	}
	if a.safetyMode && !safeTools[plan.Tool] {
		return domain.AgentResult{}, fmt.Errorf("computer-use: tool %q blocked by safety mode", plan.Tool)
	}

	output, err := a.tools.CallTool(ctx, plan.Tool, plan.Arguments)
	if err != nil {
		return domain.AgentResult{}, fmt.Errorf("computer-use execute: %w", err)
	}
	return domain.AgentResult{
		Response: output,
		Metadata: map[string]any{"agent_id": a.id, "tool": plan.Tool},
	}, nil
}

func buildToolPlanPrompt(input string) string {
	return fmt.Sprintf(`Pick one tool call for the user's request as JSON:
{"tool":"...","arguments":{...}}
Return only JSON.
Request:
%s`, input)
}
