package openai

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildRoutingPromptIncludesHint(t *testing.T) {
	prompt := buildRoutingPrompt("list my tasks", map[string]any{"routing_hint": "prefer task"})

	if !strings.Contains(prompt, "prefer task") {
		t.Fatalf("expected routing hint in prompt, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "list my tasks") {
		t.Fatalf("expected user input in prompt, got:\n%s", prompt)
	}
}

func TestBuildRoutingPromptTruncatesOnRuneBoundary(t *testing.T) {
	// 3-byte runes guarantee the 4000-byte cap lands mid-rune.
	input := strings.Repeat("世", 2000)

	prompt := buildRoutingPrompt(input, nil)

	if !utf8.ValidString(prompt) {
		t.Fatal("prompt contains a split rune")
	}
	if !strings.Contains(prompt, "世") {
		t.Fatal("expected truncated input to survive in prompt")
	}
}

func TestTruncateUTF8(t *testing.T) {
	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"ascii cut", "hello", 3, "hel"},
		{"multibyte backed off", "aé", 2, "a"},
		{"multibyte kept whole", "aé", 3, "aé"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncateUTF8(tc.in, tc.max)
			if got != tc.want {
				t.Fatalf("truncateUTF8(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}
