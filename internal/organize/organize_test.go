package organize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vasd85/voxenote/internal/services/llm"
)

const testHash = "dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd"

func testNote() Note {
	return Note{
		Analysis: llm.Analysis{
			Title:        "Grocery List",
			Category:     "Personal",
			ShortSummary: "Things to buy this week.",
		},
		Transcript:   "buy milk and eggs",
		OriginalName: "memo.m4a",
		OriginalHash: testHash,
		RecordedAt:   "2026-08-01T09:30:00Z",
		Model:        "whisper-large-v3-turbo",
		Language:     "en",
		DurationSecs: 42,
	}
}

func newTestOrganizer(t *testing.T) (*Organizer, string, string) {
	t.Helper()
	root := t.TempDir()
	outputDir := filepath.Join(root, "notes")
	archiveDir := filepath.Join(root, "archive")
	org := New(outputDir, archiveDir)
	org.WithClock(func() time.Time {
		return time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	})
	org.WithIDGenerator(func() string { return "cafebabe00112233" })
	return org, outputDir, archiveDir
}

func writeAudio(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "memo.m4a")
	if err := os.WriteFile(path, []byte("audio bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStoreWritesNoteAndArchives(t *testing.T) {
	org, outputDir, archiveDir := newTestOrganizer(t)
	audio := writeAudio(t, t.TempDir())

	result, err := org.Store(testNote(), audio)
	if err != nil {
		t.Fatal(err)
	}

	wantNote := filepath.Join(outputDir, "personal", "2026-08-28_103000_grocery-list.md")
	if result.NotePath != wantNote {
		t.Fatalf("note path = %q, want %q", result.NotePath, wantNote)
	}
	wantArchive := filepath.Join(archiveDir, "cafebabe00112233_memo.m4a")
	if result.ArchivePath != wantArchive {
		t.Fatalf("archive path = %q, want %q", result.ArchivePath, wantArchive)
	}

	if _, err := os.Stat(audio); !os.IsNotExist(err) {
		t.Fatal("original audio still at source after archive")
	}
	if data, err := os.ReadFile(wantArchive); err != nil || string(data) != "audio bytes" {
		t.Fatalf("archived audio wrong: %v %q", err, data)
	}

	content, err := os.ReadFile(wantNote)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# Grocery List",
		"- category: Personal",
		"- audio: cafebabe00112233_memo.m4a",
		"- hash: " + testHash,
		"## Summary",
		"Things to buy this week.",
		"## Transcript",
		"buy milk and eggs",
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("note missing %q", want)
		}
	}

	if matches, _ := filepath.Glob(filepath.Join(outputDir, "personal", "*.tmp")); len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}

func TestStoreCollisionAppendsIDFragment(t *testing.T) {
	org, outputDir, _ := newTestOrganizer(t)

	first := writeAudio(t, t.TempDir())
	if _, err := org.Store(testNote(), first); err != nil {
		t.Fatal(err)
	}

	org.WithIDGenerator(func() string { return "feedface99887766" })
	second := writeAudio(t, t.TempDir())
	result, err := org.Store(testNote(), second)
	if err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(outputDir, "personal", "2026-08-28_103000_grocery-list_feedface.md")
	if result.NotePath != want {
		t.Fatalf("collision path = %q, want %q", result.NotePath, want)
	}
}

func TestStoreArchiveFailureRemovesNote(t *testing.T) {
	org, outputDir, _ := newTestOrganizer(t)

	missing := filepath.Join(t.TempDir(), "gone.m4a")
	if _, err := org.Store(testNote(), missing); err == nil {
		t.Fatal("expected error for missing audio")
	}

	if matches, _ := filepath.Glob(filepath.Join(outputDir, "personal", "*")); len(matches) != 0 {
		t.Fatalf("note artifacts left after failed archive: %v", matches)
	}
}

func TestStoreFinalizeFailureRestoresAudio(t *testing.T) {
	org, outputDir, _ := newTestOrganizer(t)
	audioDir := t.TempDir()
	audio := writeAudio(t, audioDir)

	// Occupy the final note path with a non-empty directory so the closing
	// rename must fail after the audio has already been archived.
	finalPath := filepath.Join(outputDir, "personal", "2026-08-28_103000_grocery-list.md")
	if err := os.MkdirAll(filepath.Join(finalPath, "blocker"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := org.Store(testNote(), audio); err == nil {
		t.Fatal("expected error when note cannot be finalized")
	}

	if _, err := os.Stat(audio); err != nil {
		t.Fatalf("audio not restored to source: %v", err)
	}
}

func TestStoreRequiresAnalysisFields(t *testing.T) {
	org, _, _ := newTestOrganizer(t)
	audio := writeAudio(t, t.TempDir())

	note := testNote()
	note.Analysis.Category = ""
	if _, err := org.Store(note, audio); err == nil {
		t.Fatal("expected error for missing category")
	}
	if _, err := os.Stat(audio); err != nil {
		t.Fatal("audio must be untouched after validation failure")
	}
}
