package fallback

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
)

type fakeGenerator struct {
	text  string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateFromPrompt(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestGenerateResponseUsesPrimaryFirst(t *testing.T) {
	primary := &fakeGenerator{text: "primary answer"}
	secondary := &fakeGenerator{text: "secondary answer"}
	chain := NewChain(primary, secondary)

	result := chain.GenerateResponse(context.Background(), "anything", nil)
	if result.Provider != domain.FallbackProviderOpenAI || result.Level != 0 {
		t.Fatalf("expected primary tier, got %s level %d", result.Provider, result.Level)
	}
	if result.Response != "primary answer" {
		t.Fatalf("unexpected response %q", result.Response)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary must not be called when primary succeeds")
	}
}

func TestGenerateResponseDescendsToSecondary(t *testing.T) {
	primary := &fakeGenerator{err: errors.New("upstream down")}
	secondary := &fakeGenerator{text: "secondary answer"}
	chain := NewChain(primary, secondary)

	result := chain.GenerateResponse(context.Background(), "anything", nil)
	if result.Provider != domain.FallbackProviderHuggingFace || result.Level != 1 {
		t.Fatalf("expected secondary tier, got %s level %d", result.Provider, result.Level)
	}
}

func TestGenerateResponseMatchesRuleTier(t *testing.T) {
	broken := errors.New("upstream down")
	chain := NewChain(&fakeGenerator{err: broken}, &fakeGenerator{err: broken})

	result := chain.GenerateResponse(context.Background(), "hello there", nil)
	if result.Provider != domain.FallbackProviderRules || result.Level != 2 {
		t.Fatalf("expected rule tier, got %s level %d", result.Provider, result.Level)
	}
	if result.Response == "" {
		t.Fatalf("rule tier must produce text")
	}
}

func TestGenerateResponseTerminalTemplateNeverEmpty(t *testing.T) {
	broken := errors.New("upstream down")
	chain := NewChain(&fakeGenerator{err: broken}, &fakeGenerator{err: broken})

	result := chain.GenerateResponse(context.Background(), "zzz qqq xyzzy", nil)
	if result.Provider != domain.FallbackProviderTemplate || result.Level != 3 {
		t.Fatalf("expected terminal tier, got %s level %d", result.Provider, result.Level)
	}
	if result.Response == "" {
		t.Fatalf("terminal tier must always produce text")
	}
}

func TestGenerateResponseSkipsEmptyCompletions(t *testing.T) {
	chain := NewChain(&fakeGenerator{text: "   "}, &fakeGenerator{text: "real answer"})

	result := chain.GenerateResponse(context.Background(), "anything", nil)
	if result.Provider != domain.FallbackProviderHuggingFace {
		t.Fatalf("blank primary output must descend, got %s", result.Provider)
	}
}

func TestCapabilitiesInfoReflectsWiring(t *testing.T) {
	chain := NewChain(&fakeGenerator{text: "x"}, nil)

	info := chain.CapabilitiesInfo()
	if !info[string(domain.FallbackProviderOpenAI)] {
		t.Fatalf("primary must report available")
	}
	if info[string(domain.FallbackProviderHuggingFace)] {
		t.Fatalf("missing secondary must report unavailable")
	}
	if !info[string(domain.FallbackProviderRules)] || !info[string(domain.FallbackProviderTemplate)] {
		t.Fatalf("local tiers are always available")
	}

	// Mutating the snapshot must not leak into the cached probe.
	info[string(domain.FallbackProviderOpenAI)] = false
	if again := chain.CapabilitiesInfo(); !again[string(domain.FallbackProviderOpenAI)] {
		t.Fatalf("capability snapshot must be a copy")
	}
}

func TestCapabilitiesInfoSafeForConcurrentFirstCallers(t *testing.T) {
	chain := NewChain(&fakeGenerator{text: "x"}, nil)

	const callers = 16
	results := make(chan map[string]bool, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- chain.CapabilitiesInfo()
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	for info := range results {
		if !info[string(domain.FallbackProviderOpenAI)] ||
			info[string(domain.FallbackProviderHuggingFace)] ||
			!info[string(domain.FallbackProviderRules)] ||
			!info[string(domain.FallbackProviderTemplate)] {
			t.Fatalf("racing first callers must all see the same wiring, got %+v", info)
		}
	}
}
