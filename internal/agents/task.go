package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/core/ports"
)

// TaskAgent turns natural-language requests into task store operations. The
// model plans a single action as JSON; the agent executes it and summarizes
// the outcome.
type TaskAgent struct {
	*BaseAgent
	tasks ports.TaskStore
}

func NewTaskAgent(model ports.ModelClient, tasks ports.TaskStore) *TaskAgent {
	prompt := "You translate task-management requests into structured actions."
	return &TaskAgent{
		BaseAgent: NewBaseAgent(domain.AgentTypeTask, "task-agent", prompt, model),
		tasks:     tasks,
	}
}

type taskPlan struct {
	Action string         `json:"action"`
	Input  map[string]any `json:"input"`
}

func (a *TaskAgent) Execute(ctx context.Context, messages []domain.Message, contextData map[string]any, metadata map[string]any) (domain.AgentResult, error) {
	if a.tasks == nil {
		return domain.AgentResult{}, fmt.Errorf("task agent: no task store configured")
	}
	if len(messages) == 0 {
		return domain.AgentResult{}, fmt.Errorf("task agent: empty conversation")
	}

	clientID, _ := metadata["client_id"].(string)
	if clientID == "" {
		clientID = "anonymous"
	}

	raw, err := a.model.CompleteJSON(ctx, buildTaskPlanPrompt(messages[len(messages)-1].Text()))
	if err != nil {
		return domain.AgentResult{}, fmt.Errorf("task agent plan: %w", err)
	}
	var plan taskPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return domain.AgentResult{}, fmt.Errorf("task agent plan decode: %w", err)
	}

	output, err := a.runAction(ctx, clientID, plan)
	if err != nil {
		return domain.AgentResult{}, err
	}
	return domain.AgentResult{
		Response: output,
		Metadata: map[string]any{"agent_id": a.id, "task_action": plan.Action},
	}, nil
}

func (a *TaskAgent) runAction(ctx context.Context, clientID string, plan taskPlan) (string, error) {
	action := strings.ToLower(strings.TrimSpace(plan.Action))
	switch action {
	case "create":
		title := strings.TrimSpace(stringInput(plan.Input, "title", ""))
		if title == "" {
			return "", fmt.Errorf("task create requires title")
		}
		now := time.Now().UTC()
		task := &domain.Task{
			ID:        uuid.NewString(),
			ClientID:  clientID,
			Title:     title,
			Details:   strings.TrimSpace(stringInput(plan.Input, "details", "")),
			Status:    domain.TaskStatusOpen,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if dueRaw := strings.TrimSpace(stringInput(plan.Input, "due_at", "")); dueRaw != "" {
			dueAt, err := time.Parse(time.RFC3339, dueRaw)
			if err != nil {
				return "", fmt.Errorf("task create due_at: %w", err)
			}
			task.DueAt = &dueAt
		}
		if err := a.tasks.CreateTask(ctx, task); err != nil {
			return "", fmt.Errorf("task create: %w", err)
		}
		return fmt.Sprintf("Created task %q (id %s).", task.Title, task.ID), nil
	case "list":
		includeDeleted := boolInput(plan.Input, "include_deleted", false)
		tasks, err := a.tasks.ListTasks(ctx, clientID, includeDeleted)
		if err != nil {
			return "", fmt.Errorf("task list: %w", err)
		}
		if len(tasks) == 0 {
			return "You have no tasks.", nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "You have %d task(s):\n", len(tasks))
		for _, task := range tasks {
			fmt.Fprintf(&b, "- [%s] %s (id %s)\n", task.Status, task.Title, task.ID)
		}
		return b.String(), nil
	case "get":
		id := strings.TrimSpace(stringInput(plan.Input, "id", ""))
		if id == "" {
			return "", fmt.Errorf("task get requires id")
		}
		task, err := a.tasks.GetTaskByID(ctx, clientID, id)
		if err != nil {
			return "", fmt.Errorf("task get: %w", err)
		}
		payload, _ := json.Marshal(task)
		return string(payload), nil
	case "complete":
		id := strings.TrimSpace(stringInput(plan.Input, "id", ""))
		if id == "" {
			return "", fmt.Errorf("task complete requires id")
		}
		task, err := a.tasks.GetTaskByID(ctx, clientID, id)
		if err != nil {
			return "", fmt.Errorf("task complete load: %w", err)
		}
		task.Status = domain.TaskStatusCompleted
		task.UpdatedAt = time.Now().UTC()
		if err := a.tasks.UpdateTask(ctx, task); err != nil {
			return "", fmt.Errorf("task complete: %w", err)
		}
		return fmt.Sprintf("Marked task %q as completed.", task.Title), nil
	case "delete":
		id := strings.TrimSpace(stringInput(plan.Input, "id", ""))
		if id == "" {
			return "", fmt.Errorf("task delete requires id")
		}
		if err := a.tasks.SoftDeleteTask(ctx, clientID, id); err != nil {
			return "", fmt.Errorf("task delete: %w", err)
		}
		return fmt.Sprintf("Deleted task %s.", id), nil
	default:
		return "", fmt.Errorf("unsupported task action: %s", plan.Action)
	}
}

func buildTaskPlanPrompt(input string) string {
	return fmt.Sprintf(`Convert the user's request into one JSON action for this schema:
{"action":"create|list|get|complete|delete","input":{"title":"...","details":"...","due_at":"RFC3339","id":"...","include_deleted":false}}
Only include input fields that apply. Return only JSON.
Request:
%s`, input)
}

func stringInput(input map[string]any, key, fallback string) string {
	if value, ok := input[key]; ok {
		if s, ok := value.(string); ok {
			return s
		}
		return fmt.Sprint(value)
	}
	return fallback
}

func boolInput(input map[string]any, key string, fallback bool) bool {
	if value, ok := input[key]; ok {
		if b, ok := value.(bool); ok {
			return b
		}
	}
	return fallback
}
