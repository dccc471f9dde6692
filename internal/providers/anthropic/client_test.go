package anthropic

import (
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"llmgrader/internal/providers"
	"llmgrader/internal/schema"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := New("test-key", Config{
		SystemPrompt:    "system",
		JSONInstruction: "\n\nJSON ONLY",
		Schema:          schema.Relaxed(),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := New("   ", Config{}, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestStructuredOutputAllowList(t *testing.T) {
	t.Parallel()

	if !structuredOutputModels["claude-opus-4-1-20250805"] {
		t.Fatal("opus 4.1 must use structured output")
	}
	if structuredOutputModels["claude-3-5-haiku-20241022"] {
		t.Fatal("haiku must use appended JSON instructions")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	tests := []struct {
		name   string
		err    error
		expect providers.Kind
	}{
		{"rate limited", &sdk.Error{StatusCode: 429}, providers.KindRateLimited},
		{"server error", &sdk.Error{StatusCode: 500}, providers.KindOverloaded},
		{"overloaded status", &sdk.Error{StatusCode: 529}, providers.KindOverloaded},
		{"bad request", &sdk.Error{StatusCode: 400}, providers.KindOther},
		{"plain error", errors.New("boom"), providers.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := providers.ClassifyKind(client.classify("claude-sonnet-4-20250514", tt.err))
			if got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}
