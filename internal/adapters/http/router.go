package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/core/ports"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/capability"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/ratelimit"
	"github.com/kirillkom/agent-orchestrator/internal/observability/metrics"
)

type RouterOptions struct {
	ServiceName    string
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	QueueTimeout   time.Duration
}

type Router struct {
	chat         ports.ChatService
	registry     ports.AgentRegistry
	fallback     ports.ResponseFallback
	capabilities *capability.Registry
	history      ports.TurnHistory
	limiter      *ratelimit.Limiter
	metrics      *metrics.OrchestratorMetrics
	opts         RouterOptions
}

func NewRouter(
	chat ports.ChatService,
	registry ports.AgentRegistry,
	fallback ports.ResponseFallback,
	capabilities *capability.Registry,
	history ports.TurnHistory,
	limiter *ratelimit.Limiter,
	m *metrics.OrchestratorMetrics,
	opts RouterOptions,
) *Router {
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 64
	}
	if opts.QueueTimeout <= 0 {
		opts.QueueTimeout = 200 * time.Millisecond
	}
	return &Router{
		chat:         chat,
		registry:     registry,
		fallback:     fallback,
		capabilities: capabilities,
		history:      history,
		limiter:      limiter,
		metrics:      m,
		opts:         opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat", rt.chatTurn)
	mux.HandleFunc("/v1/agents/status", rt.agentStatus)
	mux.HandleFunc("/v1/turns", rt.turnHistory)
	mux.HandleFunc("/v1/capabilities", rt.capabilitiesInfo)
	mux.HandleFunc("/openapi.json", rt.openAPISpec)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.QueueTimeout)
	if rt.opts.RateLimitRPS > 0 {
		handler = rt.rpsGateMiddleware(handler)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.opts.ServiceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) chatTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.opts.APIKey != "" && !isAuthorizedBearerHeader(r.Header.Get("Authorization"), rt.opts.APIKey) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var request domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if request.ClientID == "" {
		request.ClientID = clientIDFromRequest(r)
	}

	if rt.limiter != nil {
		allowed, counts := rt.limiter.Allow(request.ClientID)
		if !allowed {
			if rt.metrics != nil {
				rt.metrics.ObserveRateLimitDenied(rt.opts.ServiceName, "client_window")
			}
			resets := rt.limiter.GetResetTimes(request.ClientID)
			retryAfter := int(time.Until(resets.Minute).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":  "rate limit exceeded",
				"counts": counts,
				"resets": resets,
			})
			return
		}
	}

	response, err := rt.chat.ProcessChatRequest(r.Context(), request)
	if err != nil {
		writeJSON(w, statusFromError(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (rt *Router) agentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	statuses := make([]domain.AgentStatus, 0)
	healthy := make(map[string]bool)
	for _, agent := range rt.registry.All() {
		status := agent.GetStatus()
		statuses = append(statuses, status)
		healthy[string(status.Type)] = agent.HealthCheck(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agents":  statuses,
		"healthy": healthy,
	})
}

// turnHistory serves a client's recent turns. Available only when the
// postgres component was wired at startup.
func (rt *Router) turnHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.opts.APIKey != "" && !isAuthorizedBearerHeader(r.Header.Get("Authorization"), rt.opts.APIKey) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	if rt.history == nil || (rt.capabilities != nil && !rt.capabilities.Present(capability.ComponentPostgres)) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "turn history not configured"})
		return
	}

	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if clientID == "" {
		clientID = clientIDFromRequest(r)
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	turns, err := rt.history.ListRecentTurns(r.Context(), clientID, limit)
	if err != nil {
		writeJSON(w, statusFromError(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"client_id": clientID,
		"turns":     turns,
	})
}

func (rt *Router) capabilitiesInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	payload := map[string]any{
		"fallback": rt.fallback.CapabilitiesInfo(),
	}
	if rt.capabilities != nil {
		payload["components"] = rt.capabilities.Snapshot()
	}
	writeJSON(w, http.StatusOK, payload)
}

func statusFromError(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func clientIDFromRequest(r *http.Request) string {
	if clientID := strings.TrimSpace(r.Header.Get("X-Client-Id")); clientID != "" {
		return clientID
	}
	return remoteHost(r)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
