package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testHash = "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"

func TestStripHashPrefix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"with prefix", testHash + "_memo.wav", "memo.wav"},
		{"no prefix", "memo.wav", "memo.wav"},
		{"short hex", "abcdef_memo.wav", "abcdef_memo.wav"},
		{"uppercase hex", strings.ToUpper(testHash) + "_memo.wav", strings.ToUpper(testHash) + "_memo.wav"},
		{"already stripped stays", "memo.wav", "memo.wav"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripHashPrefix(tc.in); got != tc.want {
				t.Fatalf("StripHashPrefix(%q) = %q, want %q", tc.in, got, tc.want)
			}
			// Idempotence.
			if got := StripHashPrefix(StripHashPrefix(tc.in)); got != tc.want {
				t.Fatalf("second strip of %q = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPathIsDeterministic(t *testing.T) {
	store := NewDirStore(t.TempDir())

	a := store.Path(StagePrepared, testHash, "Morning Memo.m4a")
	b := store.Path(StagePrepared, testHash, "Morning Memo.m4a")
	if a != b {
		t.Fatalf("paths differ: %q vs %q", a, b)
	}
	base := filepath.Base(a)
	if !strings.HasPrefix(base, testHash+"_") {
		t.Fatalf("path %q missing hash prefix", base)
	}
	if !strings.HasSuffix(base, ".wav") {
		t.Fatalf("path %q missing .wav suffix", base)
	}

	// A name that already carries a hash prefix does not get a second one.
	c := store.Path(StageTrimmed, testHash, testHash+"_Morning Memo.wav")
	if strings.Count(filepath.Base(c), testHash) != 1 {
		t.Fatalf("path %q carries a doubled hash prefix", c)
	}
}

func TestLookupNewestWins(t *testing.T) {
	dir := t.TempDir()
	store := NewDirStore(dir)
	stageDir := filepath.Join(dir, string(StagePrepared))
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		t.Fatal(err)
	}

	older := filepath.Join(stageDir, testHash+"_old.wav")
	newer := filepath.Join(stageDir, testHash+"_new.wav")
	if err := os.WriteFile(older, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(newer, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	path, ok, err := store.Lookup(StagePrepared, testHash)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || path != newer {
		t.Fatalf("Lookup = %q, %v; want %q", path, ok, newer)
	}
}

func TestLookupIgnoresEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewDirStore(dir)
	stageDir := filepath.Join(dir, string(StageTrimmed))
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stageDir, testHash+"_empty.wav"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := store.Lookup(StageTrimmed, testHash); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Fatal("empty artifact should not satisfy a lookup")
	}
}

func TestLookupRejectsNonHash(t *testing.T) {
	store := NewDirStore(t.TempDir())
	if _, _, err := store.Lookup(StagePrepared, "../../etc"); err == nil {
		t.Fatal("expected error for non-hash key")
	}
}

func TestCommitMovesArtifact(t *testing.T) {
	dir := t.TempDir()
	store := NewDirStore(dir)

	temp := filepath.Join(dir, "work.wav")
	if err := os.WriteFile(temp, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}

	final, err := store.Commit(StagePrepared, testHash, "memo.m4a", temp)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Fatal("temp artifact still present after commit")
	}
	got, ok, err := store.Lookup(StagePrepared, testHash)
	if err != nil || !ok || got != final {
		t.Fatalf("Lookup after commit = %q, %v, %v; want %q", got, ok, err, final)
	}

	// Empty artifacts are refused.
	empty := filepath.Join(dir, "empty.wav")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Commit(StagePrepared, testHash, "memo.m4a", empty); err == nil {
		t.Fatal("expected error committing empty artifact")
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	store := NewDirStore(dir)

	temp := filepath.Join(dir, "work.wav")
	if err := os.WriteFile(temp, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Commit(StageTrimmed, testHash, "memo.m4a", temp); err != nil {
		t.Fatal(err)
	}

	if err := store.Remove(StageTrimmed, testHash); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Lookup(StageTrimmed, testHash); ok {
		t.Fatal("artifact still present after remove")
	}
	// Removing again is a no-op.
	if err := store.Remove(StageTrimmed, testHash); err != nil {
		t.Fatal(err)
	}
}
