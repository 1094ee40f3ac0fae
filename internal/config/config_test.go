package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Analysis.TopK != 20 || cfg.Analysis.DisplayLimit != 5 || cfg.Analysis.SummaryInputChars != 1000 {
		t.Fatalf("unexpected analysis defaults: %+v", cfg.Analysis)
	}
	if cfg.Summarizer.Provider != "disabled" {
		t.Fatalf("expected disabled summarizer, got %q", cfg.Summarizer.Provider)
	}
	if cfg.Summarizer.MinLength != 30 || cfg.Summarizer.MaxLength != 100 {
		t.Fatalf("unexpected length bounds: %+v", cfg.Summarizer)
	}
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
analysis:
  top_k: 5
summarizer:
  provider: openai
  model: gpt-4o-mini
  timeout: 5s
  key: from-file
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envSummarizerKey, "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Analysis.TopK != 5 {
		t.Errorf("top_k = %d", cfg.Analysis.TopK)
	}
	if cfg.Summarizer.Provider != "openai" || cfg.Summarizer.Model != "gpt-4o-mini" {
		t.Errorf("summarizer = %+v", cfg.Summarizer)
	}
	if cfg.Summarizer.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Summarizer.Timeout)
	}
	if cfg.Summarizer.Key != "from-env" {
		t.Errorf("expected env override, got %q", cfg.Summarizer.Key)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("analysis: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
