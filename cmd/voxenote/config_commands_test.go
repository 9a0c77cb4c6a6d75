package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/vasd85/voxenote/internal/config"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	cmd := newConfigInitCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--path", target})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if !strings.Contains(out.String(), target) {
		t.Fatalf("output should mention target path, got %q", out.String())
	}
}

func TestConfigInitRefusesExisting(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# keep me\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newConfigInitCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--path", target})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already-exists error, got %v", err)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "# keep me\n" {
		t.Fatalf("existing file was modified: %q", data)
	}
}

func TestConfigInitOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newConfigInitCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--path", target, "--overwrite"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != config.SampleConfig() {
		t.Fatal("overwrite should replace the file with the sample")
	}
}
