package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/csheth/paperchunk/internal/chunk"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PAPERCHUNK_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Budget != chunk.DefaultBudget() {
		t.Fatalf("unexpected budget: %+v", cfg.Budget)
	}
	if cfg.CeilingChars() != 200_000 || cfg.TargetChars != 30_000 {
		t.Fatalf("unexpected limits: ceiling=%d target=%d", cfg.CeilingChars(), cfg.TargetChars)
	}
	if cfg.Workers != 4 || cfg.Pattern != "*.pdf" || cfg.Mode != ModeUnset || cfg.Path != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
target_chunk_chars: 20000
mode: combined
workers: 2
http_timeout: 30s
templates:
  - key: critique
    text: "Critique this section.\n\nPaper section:"
only: [general, critique]
llm:
  summarize: critique
  model: llama3
log:
  level: debug
`)
	t.Setenv("PAPERCHUNK_WORKERS", "8")
	t.Setenv("PAPERCHUNK_MODE", "AUTO")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != path {
		t.Fatalf("expected path %q, got %q", path, cfg.Path)
	}
	if cfg.TargetChars != 20000 || cfg.MaxTokens != chunk.DefaultMaxTokens {
		t.Fatalf("file should override only named fields: %+v", cfg.Budget)
	}
	if cfg.Workers != 8 || cfg.Mode != ModeAuto {
		t.Fatalf("env should override file: workers=%d mode=%q", cfg.Workers, cfg.Mode)
	}
	if cfg.HTTPTimeout != 30*time.Second || cfg.LLM.Model != "llama3" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	templates, err := cfg.ResolveTemplates()
	if err != nil {
		t.Fatalf("ResolveTemplates: %v", err)
	}
	if len(templates) != 2 || templates[1].Key != "critique" {
		t.Fatalf("unexpected templates: %+v", templates)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PAPERCHUNK_CONFIG", "")
	t.Setenv("PAPERCHUNK_TARGET_CHUNK_CHARS", "lots")

	if _, err := Load(""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"target above ceiling", func(c *Config) { c.TargetChars = c.CeilingChars() + 1 }},
		{"zero chars per token", func(c *Config) { c.CharsPerToken = 0 }},
		{"bad mode", func(c *Config) { c.Mode = "sometimes" }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"empty pattern", func(c *Config) { c.Pattern = " " }},
		{"unknown summarize template", func(c *Config) { c.LLM.Summarize = "nope" }},
		{"unknown only key", func(c *Config) { c.Only = []string{"nope"} }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestResolvedMode(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if got := cfg.ResolvedMode(ModeChunked); got != ModeChunked {
		t.Fatalf("unset mode should fall back, got %q", got)
	}
	cfg.Mode = ModeCombined
	if got := cfg.ResolvedMode(ModeAuto); got != ModeCombined {
		t.Fatalf("explicit mode should win, got %q", got)
	}
}
