package hf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/resilience"
)

// Client calls the HuggingFace inference API. It backs the secondary tier of
// the fallback chain.
type Client struct {
	baseURL    string
	token      string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	BaseURL  string
	Token    string
	Model    string
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		model:      opts.Model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   opts.Executor,
	}
}

// GenerateFromPrompt runs one text-generation inference call.
func (c *Client) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"max_new_tokens":   512,
			"return_full_text": false,
		},
	}

	var generated string
	call := func(callCtx context.Context) error {
		text, err := c.infer(callCtx, payload)
		if err != nil {
			return err
		}
		generated = text
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "hf.generate", call, classifyInferenceError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return generated, nil
}

func (c *Client) infer(ctx context.Context, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal inference request: %w", err)
	}

	url := c.baseURL + "/models/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("hf inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &statusError{statusCode: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(raw))}
	}

	var decoded []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode inference response: %w", err)
	}
	if len(decoded) == 0 {
		return "", fmt.Errorf("hf inference: empty result")
	}
	return strings.TrimSpace(decoded[0].GeneratedText), nil
}

type statusError struct {
	statusCode int
	status     string
	body       string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("hf inference status: %s", e.status)
	}
	return fmt.Sprintf("hf inference status: %s: %s", e.status, e.body)
}

func classifyInferenceError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch statusErr.statusCode {
		// 503 is the "model loading" response and worth a retry.
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
