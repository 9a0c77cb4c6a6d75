package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vasd85/voxenote/internal/collect"
)

func TestCollectPlansExpandsCLISources(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	memos := filepath.Join(home, "memos")
	if err := os.MkdirAll(memos, 0o755); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(home, "config.toml")
	cfgBody := "[collect]\nrecursive_default = true\n\n[[sources]]\npath = \"~/memos\"\nrecursive = false\n"
	if err := os.WriteFile(cfgPath, []byte(cfgBody), 0o644); err != nil {
		t.Fatal(err)
	}

	flag := cfgPath
	cmdCtx := newCommandContext(&flag)

	plans, err := cmdCtx.collectPlans([]string{"~/memos"}, "auto")
	if err != nil {
		t.Fatalf("collectPlans: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("plans = %+v, want one entry", plans)
	}
	if plans[0].Path != memos {
		t.Fatalf("path = %q, want %q", plans[0].Path, memos)
	}
	if plans[0].Recursive {
		t.Fatal("CLI source that names a configured directory should keep recursive = false")
	}
	if plans[0].Reason != collect.ReasonConfig {
		t.Fatalf("reason = %q, want %q", plans[0].Reason, collect.ReasonConfig)
	}
}

func TestCollectPlansRejectsBadMode(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.toml")
	flag := cfgPath
	cmdCtx := newCommandContext(&flag)

	if _, err := cmdCtx.collectPlans([]string{"/tmp"}, "sideways"); err == nil {
		t.Fatal("expected error for unknown recursion mode")
	}
}
