package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/core/ports"
	"github.com/kirillkom/agent-orchestrator/internal/observability/metrics"
)

type SupervisorOptions struct {
	ServiceName       string
	DefaultAgent      domain.AgentType
	AgentTimeout      time.Duration
	ClassifierTimeout time.Duration
}

// Supervisor runs the per-turn control loop: classify, dispatch, degrade.
// Worker failures are contained here; a processed turn always yields a
// response, and the full dispatch history rides along in metadata.
type Supervisor struct {
	classifier ports.IntentClassifier
	registry   ports.AgentRegistry
	fallback   ports.ResponseFallback
	recorder   ports.TurnRecorder
	events     ports.EventPublisher
	metrics    *metrics.OrchestratorMetrics
	opts       SupervisorOptions

	now func() time.Time
}

func NewSupervisor(
	classifier ports.IntentClassifier,
	registry ports.AgentRegistry,
	fallback ports.ResponseFallback,
	recorder ports.TurnRecorder,
	events ports.EventPublisher,
	m *metrics.OrchestratorMetrics,
	opts SupervisorOptions,
) *Supervisor {
	if opts.DefaultAgent == "" {
		opts.DefaultAgent = domain.AgentTypeKnowledge
	}
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = 45 * time.Second
	}
	if opts.ClassifierTimeout <= 0 {
		opts.ClassifierTimeout = 15 * time.Second
	}
	return &Supervisor{
		classifier: classifier,
		registry:   registry,
		fallback:   fallback,
		recorder:   recorder,
		events:     events,
		metrics:    m,
		opts:       opts,
		now:        time.Now,
	}
}

func (s *Supervisor) ProcessChatRequest(ctx context.Context, request domain.ChatRequest) (*domain.ChatResponse, error) {
	input := strings.TrimSpace(request.Input)
	if input == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process chat request",
			errors.New("empty input"))
	}

	turnID := uuid.NewString()
	started := s.now()
	decision := s.classify(ctx, input, request.Context)

	history := make([]domain.ExecutionStep, 0, 2)
	var (
		response       string
		responseAgent  = decision.AgentType
		fallbackResult *domain.FallbackResult
	)

	agent, registered := s.registry.Lookup(decision.AgentType)
	if !registered {
		// A routed-but-unregistered agent is a deployment configuration
		// error, not a user error.
		slog.Error("agent_not_registered", "turn_id", turnID, "agent_type", decision.AgentType)
		history = append(history, domain.ExecutionStep{
			AgentType: decision.AgentType,
			Input:     input,
			Output:    domain.ErrAgentNotRegistered.Error(),
			Timestamp: s.now(),
			Status:    domain.StepStatusError,
		})
		responseAgent = domain.AgentTypeSupervisor
	} else {
		result, err := s.dispatch(ctx, agent, request, turnID)
		step := domain.ExecutionStep{
			AgentType: decision.AgentType,
			Input:     input,
			Timestamp: s.now(),
		}
		if err != nil {
			slog.Warn("agent_dispatch_failed", "turn_id", turnID, "agent_type", decision.AgentType, "error", err)
			step.Output = err.Error()
			step.Status = domain.StepStatusError
		} else {
			step.Output = result.Response
			step.Status = domain.StepStatusOK
			response = result.Response
		}
		history = append(history, step)
	}

	if response == "" {
		result := s.fallback.GenerateResponse(ctx, input, request.Context)
		fallbackResult = &result
		response = result.Response
		history = append(history, domain.ExecutionStep{
			AgentType: domain.AgentTypeSupervisor,
			Input:     input,
			Output:    result.Response,
			Timestamp: s.now(),
			Status:    domain.StepStatusOK,
		})
		if s.metrics != nil {
			s.metrics.ObserveFallback(s.opts.ServiceName, string(result.Provider), result.Level)
		}
	}

	metadata := map[string]any{
		"turn_id":           turnID,
		"execution_history": history,
		"workflow_state":    "completed",
		"routing": map[string]any{
			"agent_type": decision.AgentType,
			"confidence": decision.Confidence,
			"reasoning":  decision.Reasoning,
		},
	}
	if fallbackResult != nil {
		metadata["provider_used"] = fallbackResult.Provider
		metadata["fallback_level"] = fallbackResult.Level
	}

	chatResponse := &domain.ChatResponse{
		Response:  response,
		AgentType: responseAgent,
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: input},
			{Role: domain.RoleAssistant, Content: response},
		},
		Metadata: metadata,
	}

	duration := s.now().Sub(started)
	status := "ok"
	if fallbackResult != nil {
		status = "fallback"
	}
	if s.metrics != nil {
		s.metrics.ObserveTurn(s.opts.ServiceName, string(responseAgent), status, duration)
	}
	slog.Info("turn_completed",
		"turn_id", turnID,
		"agent_type", responseAgent,
		"status", status,
		"duration_ms", duration.Milliseconds(),
	)

	s.persist(ctx, turnID, request, chatResponse, history, fallbackResult, duration)
	return chatResponse, nil
}

// classify never fails the turn: classifier errors route to the default agent
// with zero confidence.
func (s *Supervisor) classify(ctx context.Context, input string, contextData map[string]any) domain.RoutingDecision {
	classifyCtx, cancel := context.WithTimeout(ctx, s.opts.ClassifierTimeout)
	defer cancel()

	started := s.now()
	decision, err := s.classifier.Classify(classifyCtx, input, contextData)
	if s.metrics != nil {
		s.metrics.ObserveClassification(s.opts.ServiceName, s.now().Sub(started), err != nil)
	}
	if err != nil {
		slog.Warn("classification_failed", "error", err, "default_agent", s.opts.DefaultAgent)
		return domain.RoutingDecision{
			AgentType:  s.opts.DefaultAgent,
			Confidence: 0,
			Reasoning:  "classifier unavailable, default route",
		}
	}
	return decision
}

func (s *Supervisor) dispatch(ctx context.Context, agent ports.Agent, request domain.ChatRequest, turnID string) (domain.AgentResult, error) {
	dispatchCtx, cancel := context.WithTimeout(ctx, s.opts.AgentTimeout)
	defer cancel()

	messages := []domain.Message{{Role: domain.RoleUser, Content: request.Input}}
	metadata := map[string]any{
		"turn_id":   turnID,
		"client_id": request.ClientID,
	}
	return agent.Execute(dispatchCtx, messages, request.Context, metadata)
}

// persist stores the turn and emits its event when those backends are wired.
// Failures here are logged, never surfaced: the user already has a response.
func (s *Supervisor) persist(ctx context.Context, turnID string, request domain.ChatRequest, response *domain.ChatResponse, history []domain.ExecutionStep, fallbackResult *domain.FallbackResult, duration time.Duration) {
	createdAt := s.now().UTC()
	fallbackLevel := 0
	var provider domain.FallbackProvider
	if fallbackResult != nil {
		fallbackLevel = fallbackResult.Level
		provider = fallbackResult.Provider
	}
	if s.recorder != nil {
		turn := domain.TurnRecord{
			ID:            turnID,
			ClientID:      request.ClientID,
			Input:         request.Input,
			Response:      response.Response,
			AgentType:     response.AgentType,
			FallbackLevel: fallbackLevel,
			Steps:         history,
			CreatedAt:     createdAt,
		}
		if err := s.recorder.RecordTurn(ctx, turn); err != nil {
			slog.Warn("turn_record_failed", "turn_id", turnID, "error", err)
		}
	}
	if s.events != nil {
		event := domain.TurnEvent{
			TurnID:        turnID,
			AgentType:     response.AgentType,
			Provider:      provider,
			FallbackLevel: fallbackLevel,
			DurationMS:    float64(duration.Milliseconds()),
			CreatedAt:     createdAt,
		}
		if err := s.events.PublishTurnCompleted(ctx, event); err != nil {
			slog.Warn("turn_event_publish_failed", "turn_id", turnID, "error", err)
		}
	}
}
