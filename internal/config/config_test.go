package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate_Empty(t *testing.T) {
	cfg := &Config{}
	warnings := cfg.Validate()
	if len(warnings) != 0 {
		t.Errorf("empty config should have no warnings, got %v", warnings)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := &Config{
		LLM: LLMConfig{Provider: "openai"},
	}
	warnings := cfg.Validate()
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "api_key") {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected warning about missing api_key")
	}
}

func TestValidate_NoneProvider(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: "none"}}
	for _, w := range cfg.Validate() {
		if strings.Contains(w, "api_key") {
			t.Error("'none' provider should not warn about missing api_key")
		}
	}
}

func TestValidate_Threshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      bool // true = should warn
	}{
		{"zero", 0, false},
		{"normal", 0.8, false},
		{"max", 1.0, false},
		{"negative", -0.1, true},
		{"too_high", 1.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Check: CheckConfig{Threshold: tt.threshold}}
			hasWarn := false
			for _, w := range cfg.Validate() {
				if strings.Contains(w, "threshold") {
					hasWarn = true
				}
			}
			if hasWarn != tt.want {
				t.Errorf("threshold=%.1f: hasWarn=%v, want=%v", tt.threshold, hasWarn, tt.want)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Check.Threshold != 0.8 {
		t.Errorf("threshold = %v, want 0.8", cfg.Check.Threshold)
	}
	if cfg.Check.ChunkSize != 500 {
		t.Errorf("chunk_size = %d, want 500", cfg.Check.ChunkSize)
	}
	if cfg.Check.MaxMatches != 10 {
		t.Errorf("max_matches = %d, want 10", cfg.Check.MaxMatches)
	}
	if cfg.Vector.Dimension != 1536 {
		t.Errorf("dimension = %d, want 1536", cfg.Vector.Dimension)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "originality.yaml")
	content := `
llm:
  provider: none
check:
  threshold: 0.6
  chunk_size: 200
  suggestions: true
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Check.Threshold != 0.6 {
		t.Errorf("threshold = %v, want 0.6", cfg.Check.Threshold)
	}
	if cfg.Check.ChunkSize != 200 {
		t.Errorf("chunk_size = %d, want 200", cfg.Check.ChunkSize)
	}
	if !cfg.Check.Suggestions {
		t.Error("suggestions should be enabled")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Check.MaxMatches != 10 {
		t.Errorf("max_matches = %d, want default 10", cfg.Check.MaxMatches)
	}
}
