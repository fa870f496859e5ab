package capability

import "sync"

// Component names an optional backing service of the orchestrator.
type Component string

const (
	ComponentOpenAI      Component = "openai"
	ComponentHuggingFace Component = "huggingface"
	ComponentPostgres    Component = "postgres"
	ComponentNATS        Component = "nats"
	ComponentNeo4j       Component = "neo4j"
	ComponentMCP         Component = "mcp"
)

// Registry tracks which optional components were wired at startup. Handlers
// read it to report degraded capabilities without probing anything live.
type Registry struct {
	mu         sync.RWMutex
	components map[Component]bool
}

func NewRegistry() *Registry {
	return &Registry{components: make(map[Component]bool)}
}

func (r *Registry) Set(component Component, available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[component] = available
}

func (r *Registry) Present(component Component) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.components[component]
}

// Snapshot returns a copy safe to serialize.
func (r *Registry) Snapshot() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]bool, len(r.components))
	for component, available := range r.components {
		snapshot[string(component)] = available
	}
	return snapshot
}
