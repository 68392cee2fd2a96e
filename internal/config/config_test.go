package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv,
		databaseDSNEnv,
		ollamaAPIKeyEnv,
		ollamaModelEnv,
		embeddingAPIKeyEnv,
		telegramTokenEnv,
		telegramChatIDEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if len(cfg.Batch.BaseDirs) != 1 || cfg.Batch.BaseDirs[0] != "uploaded_conops" {
		t.Fatalf("unexpected base dirs: %v", cfg.Batch.BaseDirs)
	}
	if cfg.Batch.FileTimeout() != 30*time.Second {
		t.Fatalf("unexpected file timeout: %s", cfg.Batch.FileTimeout())
	}
	if len(cfg.Sections) == 0 || len(cfg.Severities) == 0 || len(cfg.DateFormats) == 0 {
		t.Fatal("classification tables must have defaults")
	}
	if cfg.Scheduler.Interval() != 0 {
		t.Fatalf("scheduler must default to one-shot, got %s", cfg.Scheduler.Interval())
	}
}

func TestLoadMergesYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
logging:
  level: debug
batch:
  baseDirs: ["a", "b"]
  workers: 8
scheduler:
  intervalMinutes: 15
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Fatalf("file override lost: %+v", cfg.Logging)
	}
	if len(cfg.Batch.BaseDirs) != 2 || cfg.Batch.Workers != 8 {
		t.Fatalf("batch override lost: %+v", cfg.Batch)
	}
	if cfg.Scheduler.Interval() != 15*time.Minute {
		t.Fatalf("scheduler override lost: %s", cfg.Scheduler.Interval())
	}
	// untouched settings keep their defaults
	if cfg.Batch.OutputDir != "parsed_output" {
		t.Fatalf("default output dir lost: %q", cfg.Batch.OutputDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(databaseDSNEnv, "postgres://test")
	t.Setenv(ollamaModelEnv, "test-model")

	cfg := Load()

	if cfg.Database.DSN != "postgres://test" {
		t.Fatalf("dsn override lost: %q", cfg.Database.DSN)
	}
	if cfg.Ollama.Model != "test-model" {
		t.Fatalf("model override lost: %q", cfg.Ollama.Model)
	}
}

func TestLoadBadConfigFallsBack(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("batch: ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Batch.OutputDir != "parsed_output" {
		t.Fatalf("broken file must fall back to defaults, got %+v", cfg.Batch)
	}
}
