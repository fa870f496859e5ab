package modelfactory

import (
	"testing"

	"github.com/kirillkom/agent-orchestrator/internal/core/domain"
)

func TestNormalizeParamsCurrentNameWinsOverLegacy(t *testing.T) {
	normalized, err := NormalizeParams(map[string]any{
		ParamLegacyMaxTokens: 1234,
		ParamMaxTokens:       999,
		ParamModel:           "gpt-test",
	})
	if err != nil {
		t.Fatalf("NormalizeParams() error = %v", err)
	}
	if got, _ := asInt(normalized[ParamMaxTokens]); got != 999 {
		t.Fatalf("expected max_tokens 999, got %v", normalized[ParamMaxTokens])
	}
	if _, ok := normalized[ParamLegacyMaxTokens]; ok {
		t.Fatalf("legacy key must not survive normalization")
	}
}

func TestNormalizeParamsTranslatesLegacyName(t *testing.T) {
	normalized, err := NormalizeParams(map[string]any{
		ParamLegacyMaxTokens: 1234,
		ParamModel:           "gpt-test",
		ParamTemperature:     0.55,
	})
	if err != nil {
		t.Fatalf("NormalizeParams() error = %v", err)
	}
	if got, _ := asInt(normalized[ParamMaxTokens]); got != 1234 {
		t.Fatalf("expected aliased max_tokens 1234, got %v", normalized[ParamMaxTokens])
	}
	if _, ok := normalized[ParamLegacyMaxTokens]; ok {
		t.Fatalf("legacy key must not survive normalization")
	}
	if normalized[ParamTemperature] != 0.55 {
		t.Fatalf("expected temperature pass-through, got %v", normalized[ParamTemperature])
	}
}

func TestNormalizeParamsAppliesDefault(t *testing.T) {
	normalized, err := NormalizeParams(map[string]any{ParamModel: "gpt-test"})
	if err != nil {
		t.Fatalf("NormalizeParams() error = %v", err)
	}
	if got, _ := asInt(normalized[ParamMaxTokens]); got != DefaultMaxTokens {
		t.Fatalf("expected default max_tokens %d, got %v", DefaultMaxTokens, normalized[ParamMaxTokens])
	}
}

func TestNormalizeParamsRejectsNonNumericTokenLimit(t *testing.T) {
	_, err := NormalizeParams(map[string]any{ParamMaxTokens: "lots"})
	if !domain.IsKind(err, domain.ErrParameterMismatch) {
		t.Fatalf("expected parameter mismatch error, got %v", err)
	}
}

func TestCreateModelClientDistinguishesUnavailable(t *testing.T) {
	factory := New("", "", nil)
	_, err := factory.CreateModelClient(map[string]any{ParamModel: "gpt-test"})
	if !domain.IsKind(err, domain.ErrClientUnavailable) {
		t.Fatalf("expected client unavailable error, got %v", err)
	}
	if domain.IsKind(err, domain.ErrParameterMismatch) {
		t.Fatalf("unavailable must not be reported as parameter mismatch")
	}
}

func TestCreateModelClientRejectsBadTemperature(t *testing.T) {
	factory := New("http://localhost:9999", "key", nil)
	_, err := factory.CreateModelClient(map[string]any{
		ParamModel:       "gpt-test",
		ParamTemperature: "hot",
	})
	if !domain.IsKind(err, domain.ErrParameterMismatch) {
		t.Fatalf("expected parameter mismatch error, got %v", err)
	}
}

func TestCreateModelClientPassesThroughExtensions(t *testing.T) {
	factory := New("http://localhost:9999", "key", nil)
	client, err := factory.CreateModelClient(map[string]any{
		ParamModel:           "gpt-test",
		ParamLegacyMaxTokens: 1234,
		"presence_penalty":   0.2,
	})
	if err != nil {
		t.Fatalf("CreateModelClient() error = %v", err)
	}
	if client.Model() != "gpt-test" {
		t.Fatalf("expected model gpt-test, got %q", client.Model())
	}
}
