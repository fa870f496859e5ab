package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/core/ports"
)

const knowledgeFactLimit = 10

// KnowledgeAgent answers general questions, enriched with graph facts when a
// knowledge graph is wired. A missing or failing graph degrades to plain
// completion instead of failing the turn.
type KnowledgeAgent struct {
	*BaseAgent
	graph ports.KnowledgeGraph
}

func NewKnowledgeAgent(model ports.ModelClient, graph ports.KnowledgeGraph) *KnowledgeAgent {
	prompt := "You are a knowledgeable assistant. Answer questions accurately and " +
		"admit when you do not know."
	return &KnowledgeAgent{
		BaseAgent: NewBaseAgent(domain.AgentTypeKnowledge, "knowledge-agent", prompt, model),
		graph:     graph,
	}
}

func (a *KnowledgeAgent) Execute(ctx context.Context, messages []domain.Message, contextData map[string]any, metadata map[string]any) (domain.AgentResult, error) {
	enriched := messages
	factCount := 0
	if a.graph != nil && len(messages) > 0 {
		query := messages[len(messages)-1].Text()
		facts, err := a.graph.LookupFacts(ctx, query, knowledgeFactLimit)
		if err != nil {
			slog.Warn("knowledge_graph_lookup_failed", "error", err)
		} else if len(facts) > 0 {
			factCount = len(facts)
			enriched = append([]domain.Message{{
				Role:    domain.RoleSystem,
				Content: formatFacts(facts),
			}}, messages...)
		}
	}

	result, err := a.BaseAgent.Execute(ctx, enriched, contextData, metadata)
	if err != nil {
		return domain.AgentResult{}, err
	}
	if factCount > 0 {
		result.Metadata["graph_facts"] = factCount
	}
	return result, nil
}

func formatFacts(facts []domain.Fact) string {
	var b strings.Builder
	b.WriteString("Known facts relevant to the question:\n")
	for _, fact := range facts {
		fmt.Fprintf(&b, "- %s %s %s\n", fact.Subject, fact.Relation, fact.Object)
	}
	return b.String()
}
