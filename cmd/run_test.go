package cmd

import (
	"testing"

	"go.uber.org/zap"

	"llmgrader/internal/providers"
)

func fullConfig() *Config {
	return &Config{
		MaxLogLength: 200,
		Retry:        &RetryConfig{MaxRetries: 2, Delay: 1, BackoffBase: 2, BackoffMax: 3},
		Providers: &ProvidersConfig{
			OpenAI: &OpenAIConfig{
				Models:       []string{"gpt-4o", "o3-mini"},
				APIKey:       "sk-primary",
				BackupAPIKey: "sk-backup",
			},
			Anthropic: &AnthropicConfig{
				Models: []string{"claude-opus-4-1-20250805"},
				APIKey: "sk-ant",
			},
			Mistral: &MistralConfig{
				Models: []string{"mistral-large-latest"},
				APIKey: "sk-mst",
			},
		},
	}
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{"OPENAI_API_KEY", "OPENAI_BACKUP_KEY", "CLAUDE_API_KEY", "MISTRAL_API_KEY"} {
		t.Setenv(env, "")
	}
}

func TestBuildExecutorsWiresAllProviders(t *testing.T) {
	clearProviderEnv(t)

	executors, models, err := buildExecutors(fullConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(executors) != 3 {
		t.Fatalf("expected 3 executors, got %d", len(executors))
	}

	for _, provider := range []string{providers.OpenAI, providers.Anthropic, providers.Mistral} {
		exec, ok := executors[provider]
		if !ok {
			t.Fatalf("missing executor for %s", provider)
		}
		if exec.Scorer == nil || exec.Retry == nil {
			t.Fatalf("incomplete executor for %s: %+v", provider, exec)
		}
		if exec.Scorer.Provider() != provider {
			t.Fatalf("executor for %s wired to %s client", provider, exec.Scorer.Provider())
		}
	}

	if executors[providers.OpenAI].Rotate == nil {
		t.Fatalf("expected rotation hook on the openai executor")
	}
	if executors[providers.Anthropic].Rotate != nil || executors[providers.Mistral].Rotate != nil {
		t.Fatalf("expected no rotation hook on single-key providers")
	}

	if len(models.OpenAI) != 2 || len(models.Anthropic) != 1 || len(models.Mistral) != 1 {
		t.Fatalf("unexpected model set: %+v", models)
	}
}

func TestBuildExecutorsSkipsProvidersWithoutModels(t *testing.T) {
	clearProviderEnv(t)

	config := fullConfig()
	config.Providers.Anthropic.Models = nil
	config.Providers.Mistral = nil

	executors, models, err := buildExecutors(config, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(executors) != 1 {
		t.Fatalf("expected only the openai executor, got %d", len(executors))
	}
	if _, ok := executors[providers.OpenAI]; !ok {
		t.Fatalf("missing openai executor")
	}
	if models.Anthropic != nil || models.Mistral != nil {
		t.Fatalf("expected empty model lists for skipped providers: %+v", models)
	}
}

func TestBuildExecutorsMissingKey(t *testing.T) {
	clearProviderEnv(t)

	config := fullConfig()
	config.Providers.Anthropic.APIKey = ""

	if _, _, err := buildExecutors(config, zap.NewNop()); err == nil {
		t.Fatalf("expected error for anthropic provider without a key")
	}
}

func TestBuildExecutorsKeysFromEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	config := fullConfig()
	config.Providers.OpenAI.APIKey = ""
	config.Providers.OpenAI.BackupAPIKey = ""
	config.Providers.Anthropic = nil
	config.Providers.Mistral = nil

	executors, _, err := buildExecutors(config, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := executors[providers.OpenAI]; !ok {
		t.Fatalf("expected openai executor from environment key")
	}
}
