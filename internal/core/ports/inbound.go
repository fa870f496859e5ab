package ports

import (
	"context"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
)

// ChatService is the inbound contract of the supervisor orchestrator,
// consumed by the web layer.
type ChatService interface {
	ProcessChatRequest(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
}
