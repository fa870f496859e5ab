package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/resilience"
)

// Options configures one chat-completion client. Extra carries
// provider-specific parameters merged verbatim into the request body.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Extra       map[string]any
	Executor    *resilience.Executor
}

type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	extra       map[string]any
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	transport := &http.Transport{
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		slog.Warn("http2_transport_configure_failed", "error", err)
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   maxTokens,
		extra:       opts.Extra,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		executor: opts.Executor,
	}
}

func (c *Client) Model() string {
	return c.model
}

// Complete sends a chat-completion request built from the given messages.
func (c *Client) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	wire := make([]map[string]any, 0, len(messages))
	for _, msg := range messages {
		wire = append(wire, map[string]any{
			"role":    string(msg.EffectiveRole()),
			"content": msg.Text(),
		})
	}
	return c.chat(ctx, wire, nil)
}

// CompleteJSON asks the model for a strict JSON object response.
func (c *Client) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	wire := []map[string]any{
		{"role": string(domain.RoleUser), "content": prompt},
	}
	return c.chat(ctx, wire, map[string]any{
		"response_format": map[string]any{"type": "json_object"},
	})
}

// GenerateFromPrompt is the single-prompt form used by the fallback chain.
func (c *Client) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	wire := []map[string]any{
		{"role": string(domain.RoleUser), "content": prompt},
	}
	return c.chat(ctx, wire, nil)
}

func (c *Client) chat(ctx context.Context, messages []map[string]any, overrides map[string]any) (string, error) {
	body := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}
	for key, value := range c.extra {
		body[key] = value
	}
	for key, value := range overrides {
		body[key] = value
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/v1/chat/completions", body, &response, "chat")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai.chat", call, classifyProviderError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("openai chat", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
