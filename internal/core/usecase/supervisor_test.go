package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/core/ports"
)

type fakeClassifier struct {
	decision domain.RoutingDecision
	err      error
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, _ map[string]any) (domain.RoutingDecision, error) {
	return f.decision, f.err
}

type fakeAgent struct {
	agentType domain.AgentType
	response  string
	err       error
	calls     int
}

func (f *fakeAgent) Execute(_ context.Context, _ []domain.Message, _ map[string]any, _ map[string]any) (domain.AgentResult, error) {
	f.calls++
	if f.err != nil {
		return domain.AgentResult{}, f.err
	}
	return domain.AgentResult{Response: f.response}, nil
}

func (f *fakeAgent) GetStatus() domain.AgentStatus {
	return domain.AgentStatus{Type: f.agentType, Status: domain.AgentStateRunning}
}

func (f *fakeAgent) Start(_ context.Context) error { return nil }

func (f *fakeAgent) Stop(_ context.Context) error { return nil }

func (f *fakeAgent) HealthCheck(_ context.Context) bool { return true }

type fakeRegistry struct {
	agents map[domain.AgentType]ports.Agent
}

func (f *fakeRegistry) Lookup(agentType domain.AgentType) (ports.Agent, bool) {
	agent, ok := f.agents[agentType]
	return agent, ok
}

func (f *fakeRegistry) All() []ports.Agent {
	out := make([]ports.Agent, 0, len(f.agents))
	for _, agent := range f.agents {
		out = append(out, agent)
	}
	return out
}

type fakeFallback struct {
	result domain.FallbackResult
	calls  int
}

func (f *fakeFallback) GenerateResponse(_ context.Context, _ string, _ map[string]any) domain.FallbackResult {
	f.calls++
	return f.result
}

func (f *fakeFallback) CapabilitiesInfo() map[string]bool { return map[string]bool{} }

type fakeRecorder struct {
	turns []domain.TurnRecord
}

func (f *fakeRecorder) RecordTurn(_ context.Context, turn domain.TurnRecord) error {
	f.turns = append(f.turns, turn)
	return nil
}

type fakeEvents struct {
	events []domain.TurnEvent
}

func (f *fakeEvents) PublishTurnCompleted(_ context.Context, event domain.TurnEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newSupervisorUnderTest(classifier ports.IntentClassifier, registry ports.AgentRegistry, fallback ports.ResponseFallback, recorder ports.TurnRecorder) *Supervisor {
	return NewSupervisor(classifier, registry, fallback, recorder, nil, nil, SupervisorOptions{
		ServiceName:  "test",
		DefaultAgent: domain.AgentTypeKnowledge,
	})
}

func TestProcessChatRequestRoutesToClassifiedAgent(t *testing.T) {
	code := &fakeAgent{agentType: domain.AgentTypeCode, response: "here is your function"}
	registry := &fakeRegistry{agents: map[domain.AgentType]ports.Agent{domain.AgentTypeCode: code}}
	classifier := &fakeClassifier{decision: domain.RoutingDecision{AgentType: domain.AgentTypeCode, Confidence: 0.9}}
	fallback := &fakeFallback{}

	supervisor := newSupervisorUnderTest(classifier, registry, fallback, nil)
	response, err := supervisor.ProcessChatRequest(context.Background(), domain.ChatRequest{Input: "write a sort function"})
	if err != nil {
		t.Fatalf("ProcessChatRequest() error = %v", err)
	}
	if response.AgentType != domain.AgentTypeCode {
		t.Fatalf("expected code agent, got %s", response.AgentType)
	}
	if response.Response != "here is your function" {
		t.Fatalf("unexpected response %q", response.Response)
	}
	if fallback.calls != 0 {
		t.Fatalf("successful dispatch must not touch the fallback chain")
	}

	history, ok := response.Metadata["execution_history"].([]domain.ExecutionStep)
	if !ok || len(history) != 1 {
		t.Fatalf("expected one execution step, got %v", response.Metadata["execution_history"])
	}
	if history[0].Status != domain.StepStatusOK {
		t.Fatalf("expected ok step, got %s", history[0].Status)
	}
}

func TestProcessChatRequestDefaultsWhenClassifierFails(t *testing.T) {
	knowledge := &fakeAgent{agentType: domain.AgentTypeKnowledge, response: "best effort answer"}
	registry := &fakeRegistry{agents: map[domain.AgentType]ports.Agent{domain.AgentTypeKnowledge: knowledge}}
	classifier := &fakeClassifier{err: errors.New("classifier down")}

	supervisor := newSupervisorUnderTest(classifier, registry, &fakeFallback{}, nil)
	response, err := supervisor.ProcessChatRequest(context.Background(), domain.ChatRequest{Input: "hello"})
	if err != nil {
		t.Fatalf("classifier failure must not fail the turn, got %v", err)
	}
	if response.AgentType != domain.AgentTypeKnowledge {
		t.Fatalf("expected default agent, got %s", response.AgentType)
	}

	routing, _ := response.Metadata["routing"].(map[string]any)
	if routing["confidence"] != 0.0 {
		t.Fatalf("default route must carry zero confidence, got %v", routing["confidence"])
	}
}

func TestProcessChatRequestContainsAgentFailure(t *testing.T) {
	broken := &fakeAgent{agentType: domain.AgentTypeCode, err: errors.New("model exploded")}
	registry := &fakeRegistry{agents: map[domain.AgentType]ports.Agent{domain.AgentTypeCode: broken}}
	classifier := &fakeClassifier{decision: domain.RoutingDecision{AgentType: domain.AgentTypeCode, Confidence: 0.8}}
	fallback := &fakeFallback{result: domain.FallbackResult{
		Response: "degraded answer",
		Provider: domain.FallbackProviderRules,
		Level:    2,
	}}

	supervisor := newSupervisorUnderTest(classifier, registry, fallback, nil)
	response, err := supervisor.ProcessChatRequest(context.Background(), domain.ChatRequest{Input: "write code"})
	if err != nil {
		t.Fatalf("agent failure must be contained, got %v", err)
	}
	if response.Response != "degraded answer" {
		t.Fatalf("expected fallback response, got %q", response.Response)
	}
	if fallback.calls != 1 {
		t.Fatalf("expected exactly one fallback call, got %d", fallback.calls)
	}
	if response.Metadata["fallback_level"] != 2 {
		t.Fatalf("expected fallback level in metadata, got %v", response.Metadata["fallback_level"])
	}

	history, _ := response.Metadata["execution_history"].([]domain.ExecutionStep)
	if len(history) != 2 {
		t.Fatalf("expected failed attempt plus fallback step, got %d", len(history))
	}
	if history[0].Status != domain.StepStatusError {
		t.Fatalf("failed attempt must stay in history, got %s", history[0].Status)
	}
	if history[1].AgentType != domain.AgentTypeSupervisor {
		t.Fatalf("fallback step must be attributed to the supervisor, got %s", history[1].AgentType)
	}
}

func TestProcessChatRequestHandlesUnregisteredAgent(t *testing.T) {
	registry := &fakeRegistry{agents: map[domain.AgentType]ports.Agent{}}
	classifier := &fakeClassifier{decision: domain.RoutingDecision{AgentType: domain.AgentTypeImage, Confidence: 0.7}}
	fallback := &fakeFallback{result: domain.FallbackResult{
		Response: "degraded answer",
		Provider: domain.FallbackProviderTemplate,
		Level:    3,
	}}

	supervisor := newSupervisorUnderTest(classifier, registry, fallback, nil)
	response, err := supervisor.ProcessChatRequest(context.Background(), domain.ChatRequest{Input: "draw a cat"})
	if err != nil {
		t.Fatalf("missing agent must be contained, got %v", err)
	}
	if response.AgentType != domain.AgentTypeSupervisor {
		t.Fatalf("no agent ran, expected supervisor marker, got %s", response.AgentType)
	}
	if fallback.calls != 1 {
		t.Fatalf("expected fallback for unregistered agent")
	}
}

func TestProcessChatRequestRejectsEmptyInput(t *testing.T) {
	supervisor := newSupervisorUnderTest(&fakeClassifier{}, &fakeRegistry{}, &fakeFallback{}, nil)

	_, err := supervisor.ProcessChatRequest(context.Background(), domain.ChatRequest{Input: "   "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestProcessChatRequestRecordsTurn(t *testing.T) {
	code := &fakeAgent{agentType: domain.AgentTypeCode, response: "done"}
	registry := &fakeRegistry{agents: map[domain.AgentType]ports.Agent{domain.AgentTypeCode: code}}
	classifier := &fakeClassifier{decision: domain.RoutingDecision{AgentType: domain.AgentTypeCode, Confidence: 1}}
	recorder := &fakeRecorder{}

	supervisor := newSupervisorUnderTest(classifier, registry, &fakeFallback{}, recorder)
	if _, err := supervisor.ProcessChatRequest(context.Background(), domain.ChatRequest{Input: "x", ClientID: "c-1"}); err != nil {
		t.Fatalf("ProcessChatRequest() error = %v", err)
	}
	if len(recorder.turns) != 1 {
		t.Fatalf("expected one recorded turn, got %d", len(recorder.turns))
	}
	if recorder.turns[0].ClientID != "c-1" || recorder.turns[0].AgentType != domain.AgentTypeCode {
		t.Fatalf("unexpected turn record %+v", recorder.turns[0])
	}
}

func TestProcessChatRequestPublishesEventWithProvider(t *testing.T) {
	broken := &fakeAgent{agentType: domain.AgentTypeCode, err: errors.New("model exploded")}
	registry := &fakeRegistry{agents: map[domain.AgentType]ports.Agent{domain.AgentTypeCode: broken}}
	classifier := &fakeClassifier{decision: domain.RoutingDecision{AgentType: domain.AgentTypeCode, Confidence: 0.8}}
	fallback := &fakeFallback{result: domain.FallbackResult{
		Response: "degraded answer",
		Provider: domain.FallbackProviderRules,
		Level:    2,
	}}
	events := &fakeEvents{}

	supervisor := NewSupervisor(classifier, registry, fallback, nil, events, nil, SupervisorOptions{
		ServiceName:  "test",
		DefaultAgent: domain.AgentTypeKnowledge,
	})
	if _, err := supervisor.ProcessChatRequest(context.Background(), domain.ChatRequest{Input: "write code"}); err != nil {
		t.Fatalf("ProcessChatRequest() error = %v", err)
	}

	if len(events.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(events.events))
	}
	event := events.events[0]
	if event.Provider != domain.FallbackProviderRules || event.FallbackLevel != 2 {
		t.Fatalf("event must carry the answering provider, got %+v", event)
	}
	if event.TurnID == "" {
		t.Fatalf("event must carry the turn id")
	}
}

func TestProcessChatRequestPublishesEventWithoutProviderOnDirectAnswer(t *testing.T) {
	code := &fakeAgent{agentType: domain.AgentTypeCode, response: "done"}
	registry := &fakeRegistry{agents: map[domain.AgentType]ports.Agent{domain.AgentTypeCode: code}}
	classifier := &fakeClassifier{decision: domain.RoutingDecision{AgentType: domain.AgentTypeCode, Confidence: 1}}
	events := &fakeEvents{}

	supervisor := NewSupervisor(classifier, registry, &fakeFallback{}, nil, events, nil, SupervisorOptions{
		ServiceName:  "test",
		DefaultAgent: domain.AgentTypeKnowledge,
	})
	if _, err := supervisor.ProcessChatRequest(context.Background(), domain.ChatRequest{Input: "x"}); err != nil {
		t.Fatalf("ProcessChatRequest() error = %v", err)
	}

	if len(events.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(events.events))
	}
	if event := events.events[0]; event.Provider != "" || event.FallbackLevel != 0 {
		t.Fatalf("direct answer must not claim a fallback provider, got %+v", event)
	}
}
