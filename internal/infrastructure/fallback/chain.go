package fallback

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
)

// Generator produces free-form text from a single prompt. Both remote tiers
// of the chain satisfy it.
type Generator interface {
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}

// Chain is the layered degradation path behind every failed agent dispatch.
// Tiers are tried strictly in order: primary model, secondary model, rule
// table, emergency template. The terminal tier cannot fail, so
// GenerateResponse always returns usable text.
type Chain struct {
	primary   Generator
	secondary Generator
	rules     *RuleResponder

	probeOnce    sync.Once
	capabilities map[string]bool
}

func NewChain(primary, secondary Generator) *Chain {
	return &Chain{
		primary:   primary,
		secondary: secondary,
		rules:     NewRuleResponder(),
	}
}

// GenerateResponse walks the chain until a tier produces text. The result
// carries the provider and 0-based tier level that answered.
func (c *Chain) GenerateResponse(ctx context.Context, input string, contextData map[string]any) domain.FallbackResult {
	prompt := buildFallbackPrompt(input, contextData)

	if c.primary != nil {
		if text, err := c.primary.GenerateFromPrompt(ctx, prompt); err == nil && strings.TrimSpace(text) != "" {
			return domain.FallbackResult{
				Response: strings.TrimSpace(text),
				Provider: domain.FallbackProviderOpenAI,
				Level:    0,
			}
		} else if err != nil {
			slog.Warn("fallback_tier_failed", "provider", domain.FallbackProviderOpenAI, "level", 0, "error", err)
		}
	}

	if c.secondary != nil {
		if text, err := c.secondary.GenerateFromPrompt(ctx, prompt); err == nil && strings.TrimSpace(text) != "" {
			return domain.FallbackResult{
				Response: strings.TrimSpace(text),
				Provider: domain.FallbackProviderHuggingFace,
				Level:    1,
			}
		} else if err != nil {
			slog.Warn("fallback_tier_failed", "provider", domain.FallbackProviderHuggingFace, "level", 1, "error", err)
		}
	}

	if text, matched := c.rules.Respond(input); matched {
		return domain.FallbackResult{
			Response: text,
			Provider: domain.FallbackProviderRules,
			Level:    2,
			Metadata: map[string]any{"matched_rule": true},
		}
	}

	return domain.FallbackResult{
		Response: emergencyTemplate,
		Provider: domain.FallbackProviderTemplate,
		Level:    3,
	}
}

// CapabilitiesInfo reports which tiers are wired. Probed once and cached for
// the chain's lifetime.
func (c *Chain) CapabilitiesInfo() map[string]bool {
	c.probeOnce.Do(func() {
		c.capabilities = map[string]bool{
			string(domain.FallbackProviderOpenAI):      c.primary != nil,
			string(domain.FallbackProviderHuggingFace): c.secondary != nil,
			string(domain.FallbackProviderRules):       true,
			string(domain.FallbackProviderTemplate):    true,
		}
	})

	snapshot := make(map[string]bool, len(c.capabilities))
	for key, value := range c.capabilities {
		snapshot[key] = value
	}
	return snapshot
}

func buildFallbackPrompt(input string, contextData map[string]any) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant. Answer the user's message concisely.\n\n")
	if hint, ok := contextData["routing_hint"].(string); ok && hint != "" {
		b.WriteString("Context: ")
		b.WriteString(hint)
		b.WriteString("\n\n")
	}
	b.WriteString("User: ")
	b.WriteString(input)
	return b.String()
}

const emergencyTemplate = "I'm having trouble reaching my language services right now. " +
	"Please try again in a moment, or rephrase your request."
