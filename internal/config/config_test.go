package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vasd85/voxenote/internal/services"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != missing {
		t.Fatalf("resolved path = %q, want %q", resolved, missing)
	}
	if cfg.LLM.BaseURL != "http://localhost:11434" {
		t.Fatalf("unexpected default base_url %q", cfg.LLM.BaseURL)
	}
	if !cfg.SupportsFormat(".M4A") {
		t.Fatal("expected m4a to be supported by default")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
input_dir = "` + dir + `/in"
state_dir = "` + dir + `/state"

[llm]
base_url = "http://localhost:11434/"

[processing]
supported_formats = [".M4A", "mp3", "M4A"]

[[sources]]
path = "` + dir + `/memos"
recursive = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.LLM.BaseURL != "http://localhost:11434" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.LLM.BaseURL)
	}
	wantFormats := []string{"m4a", "mp3"}
	if len(cfg.Processing.SupportedFormats) != len(wantFormats) {
		t.Fatalf("formats = %v, want %v", cfg.Processing.SupportedFormats, wantFormats)
	}
	for i, f := range wantFormats {
		if cfg.Processing.SupportedFormats[i] != f {
			t.Fatalf("formats = %v, want %v", cfg.Processing.SupportedFormats, wantFormats)
		}
	}
	if len(cfg.Sources) != 1 || !cfg.Sources[0].Recursive {
		t.Fatalf("sources not parsed: %+v", cfg.Sources)
	}
	if !filepath.IsAbs(cfg.Paths.InputDir) {
		t.Fatalf("input dir not absolute: %q", cfg.Paths.InputDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "bad base url",
			mutate: func(c *Config) { c.LLM.BaseURL = "localhost:11434" },
			want:   "base_url",
		},
		{
			name:   "threshold out of range",
			mutate: func(c *Config) { c.VAD.Threshold = 1.5 },
			want:   "vad.threshold",
		},
		{
			name:   "neg threshold above threshold",
			mutate: func(c *Config) { c.VAD.NegThreshold = 0.9; c.VAD.Threshold = 0.5 },
			want:   "neg_threshold",
		},
		{
			name:   "unknown log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
		{
			name:   "context window too small",
			mutate: func(c *Config) { c.LLM.ContextTokens = 100 },
			want:   "context_tokens",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize: %v", err)
			}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("error %v is not a configuration error", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestSupportsFormat(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}

	for _, ext := range []string{"m4a", ".m4a", "MP3", ".WAV"} {
		if !cfg.SupportsFormat(ext) {
			t.Errorf("SupportsFormat(%q) = false, want true", ext)
		}
	}
	for _, ext := range []string{"txt", "", "."} {
		if cfg.SupportsFormat(ext) {
			t.Errorf("SupportsFormat(%q) = true, want false", ext)
		}
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(SampleConfig()), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if cfg.VAD.Threshold != 0.5 {
		t.Fatalf("vad.threshold = %v, want 0.5", cfg.VAD.Threshold)
	}
	if !strings.Contains(cfg.Prompts.SystemPrompt, "JSON object") {
		t.Fatal("sample prompt missing expected content")
	}
}
