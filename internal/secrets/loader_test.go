package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  sk-file-key\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	secret, err := Load(Source{Name: "api key", File: path, Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "sk-file-key" {
		t.Fatalf("expected file secret, got %q", secret)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TEST_SECRET_KEY", "  sk-env-key  ")

	secret, err := Load(Source{Name: "api key", Env: "TEST_SECRET_KEY", Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "sk-env-key" {
		t.Fatalf("expected env secret, got %q", secret)
	}
}

func TestLoadFallsBackToValue(t *testing.T) {
	t.Setenv("TEST_SECRET_KEY", "")

	secret, err := Load(Source{Name: "api key", Env: "TEST_SECRET_KEY", Value: " inline-key "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "inline-key" {
		t.Fatalf("expected inline secret, got %q", secret)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(Source{Name: "api key"}); err == nil {
		t.Fatalf("expected error for unconfigured secret")
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}
	if _, err := Load(Source{Name: "api key", File: empty}); err == nil {
		t.Fatalf("expected error for empty secret file")
	}

	if _, err := Load(Source{Name: "api key", File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatalf("expected error for missing secret file")
	}
}

func TestLoadOptional(t *testing.T) {
	secret, err := LoadOptional(Source{Name: "backup key", Env: "TEST_ABSENT_KEY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "" {
		t.Fatalf("expected empty secret, got %q", secret)
	}

	if _, err := LoadOptional(Source{Name: "backup key", File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatalf("expected error for missing optional file")
	}
}
