package modelfactory

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/llm/openai"
	"github.com/kirillkom/agent-orchestrator/internal/infrastructure/resilience"
)

const (
	ParamModel           = "model"
	ParamTemperature     = "temperature"
	ParamMaxTokens       = "max_tokens"
	ParamLegacyMaxTokens = "max_completion_tokens"
	ParamTimeoutSeconds  = "timeout_seconds"

	DefaultMaxTokens = 4096
)

// Factory is the single construction seam for remote model clients. Every
// call site goes through it so parameter normalization, timeouts and
// resilience policy live in one place.
type Factory struct {
	baseURL  string
	apiKey   string
	executor *resilience.Executor
}

func New(baseURL, apiKey string, executor *resilience.Executor) *Factory {
	return &Factory{
		baseURL:  baseURL,
		apiKey:   apiKey,
		executor: executor,
	}
}

// NormalizeParams resolves the token-limit alias and applies defaults. The
// legacy max_completion_tokens key never survives normalization: when both
// names are present the current max_tokens wins, when only the legacy name is
// present its value is carried over, and when neither is present the default
// applies. All other entries pass through unmodified.
func NormalizeParams(params map[string]any) (map[string]any, error) {
	normalized := make(map[string]any, len(params)+1)
	for key, value := range params {
		if key == ParamLegacyMaxTokens {
			continue
		}
		normalized[key] = value
	}

	if _, ok := normalized[ParamMaxTokens]; !ok {
		if legacy, ok := params[ParamLegacyMaxTokens]; ok {
			normalized[ParamMaxTokens] = legacy
		} else {
			normalized[ParamMaxTokens] = DefaultMaxTokens
		}
	}

	if _, ok := asInt(normalized[ParamMaxTokens]); !ok {
		return nil, domain.WrapError(domain.ErrParameterMismatch, "normalize params",
			fmt.Errorf("%s must be numeric, got %T", ParamMaxTokens, normalized[ParamMaxTokens]))
	}
	return normalized, nil
}

// CreateModelClient builds a chat-completion client from a normalized
// parameter set. Construction failures caused by bad parameters are reported
// as ErrParameterMismatch; a missing provider binding as ErrClientUnavailable.
func (f *Factory) CreateModelClient(params map[string]any) (*openai.Client, error) {
	normalized, err := NormalizeParams(params)
	if err != nil {
		slog.Error("model_client_parameter_mismatch", "params", params, "error", err)
		return nil, err
	}

	if f.baseURL == "" {
		return nil, domain.WrapError(domain.ErrClientUnavailable, "create model client",
			fmt.Errorf("no provider base url configured"))
	}

	opts := openai.Options{
		BaseURL:  f.baseURL,
		APIKey:   f.apiKey,
		Executor: f.executor,
		Extra:    make(map[string]any),
	}

	for key, value := range normalized {
		switch key {
		case ParamModel:
			model, ok := value.(string)
			if !ok {
				return nil, f.mismatch(params, fmt.Errorf("%s must be a string, got %T", ParamModel, value))
			}
			opts.Model = model
		case ParamTemperature:
			temperature, ok := asFloat(value)
			if !ok {
				return nil, f.mismatch(params, fmt.Errorf("%s must be numeric, got %T", ParamTemperature, value))
			}
			opts.Temperature = temperature
		case ParamMaxTokens:
			maxTokens, _ := asInt(value)
			opts.MaxTokens = maxTokens
		case ParamTimeoutSeconds:
			seconds, ok := asInt(value)
			if !ok {
				return nil, f.mismatch(params, fmt.Errorf("%s must be numeric, got %T", ParamTimeoutSeconds, value))
			}
			opts.Timeout = time.Duration(seconds) * time.Second
		default:
			// Provider-specific extensions pass through to the request body.
			opts.Extra[key] = value
		}
	}

	return openai.New(opts), nil
}

func (f *Factory) mismatch(params map[string]any, cause error) error {
	err := domain.WrapError(domain.ErrParameterMismatch, "create model client", cause)
	slog.Error("model_client_parameter_mismatch", "params", params, "error", err)
	return err
}

func asInt(value any) (int, bool) {
	switch typed := value.(type) {
	case int:
		return typed, true
	case int32:
		return int(typed), true
	case int64:
		return int(typed), true
	case float64:
		return int(typed), true
	case float32:
		return int(typed), true
	default:
		return 0, false
	}
}

func asFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	default:
		return 0, false
	}
}
