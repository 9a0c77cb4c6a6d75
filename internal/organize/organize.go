// Package organize writes the final Markdown note and archives the original
// recording. The two steps form one atomic operation: the audio never moves
// before the note content is safely on disk, and a failed move rolls the note
// back so nothing half-finished survives.
package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vasd85/voxenote/internal/cache"
	"github.com/vasd85/voxenote/internal/fileutil"
	"github.com/vasd85/voxenote/internal/services/llm"
	"github.com/vasd85/voxenote/internal/textutil"
)

// Note carries everything the Markdown document records.
type Note struct {
	Analysis   llm.Analysis
	Transcript string

	OriginalName string
	OriginalHash string
	RecordedAt   string
	Model        string
	Language     string
	DurationSecs float64
}

// Result reports where the note and archived audio ended up.
type Result struct {
	NoteID      string
	NotePath    string
	ArchivePath string
}

// Organizer places notes under outputDir and audio under archiveDir.
type Organizer struct {
	outputDir  string
	archiveDir string
	now        func() time.Time
	newID      func() string
}

func New(outputDir, archiveDir string) *Organizer {
	return &Organizer{
		outputDir:  outputDir,
		archiveDir: archiveDir,
		now:        time.Now,
		newID:      func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// WithClock overrides the timestamp source (for testing).
func (o *Organizer) WithClock(now func() time.Time) {
	o.now = now
}

// WithIDGenerator overrides note id generation (for testing).
func (o *Organizer) WithIDGenerator(newID func() string) {
	o.newID = newID
}

// Store writes the note document and moves audioPath into the archive.
// Ordering: the document is written to a temporary file first, then the audio
// moves, then the temporary file is renamed into place. If the audio move
// fails the temporary note is removed; if the final rename fails the audio
// move is undone. Either way the original recording stays recoverable.
func (o *Organizer) Store(note Note, audioPath string) (Result, error) {
	var result Result
	if strings.TrimSpace(note.Analysis.Title) == "" || strings.TrimSpace(note.Analysis.Category) == "" {
		return result, fmt.Errorf("organize: analysis must carry title and category")
	}

	id := o.newID()
	notePath, err := o.notePath(note, id)
	if err != nil {
		return result, err
	}
	archivePath := filepath.Join(o.archiveDir, id+"_"+cache.StripHashPrefix(filepath.Base(audioPath)))

	tempPath := notePath + ".tmp"
	if err := os.WriteFile(tempPath, []byte(renderMarkdown(note, id, archivePath)), 0o644); err != nil {
		return result, fmt.Errorf("organize: write note: %w", err)
	}

	if err := os.MkdirAll(o.archiveDir, 0o755); err != nil {
		os.Remove(tempPath)
		return result, fmt.Errorf("organize: create archive dir: %w", err)
	}
	if err := fileutil.MoveFile(audioPath, archivePath); err != nil {
		os.Remove(tempPath)
		return result, fmt.Errorf("organize: archive audio: %w", err)
	}

	if err := os.Rename(tempPath, notePath); err != nil {
		// Undo the archive move so the recording is back where it started.
		if undoErr := fileutil.MoveFile(archivePath, audioPath); undoErr != nil {
			os.Remove(tempPath)
			return result, fmt.Errorf("organize: finalize note: %w (rollback of archive move also failed: %v)", err, undoErr)
		}
		os.Remove(tempPath)
		return result, fmt.Errorf("organize: finalize note: %w", err)
	}

	result.NoteID = id
	result.NotePath = notePath
	result.ArchivePath = archivePath
	return result, nil
}

// notePath derives output/<category>/<timestamp>_<title>.md, disambiguating
// collisions with a fragment of the note id.
func (o *Organizer) notePath(note Note, id string) (string, error) {
	categorySlug := textutil.SlugN(note.Analysis.Category, "uncategorized", 40)
	titleSlug := textutil.SlugN(note.Analysis.Title, "note", 60)
	dir := filepath.Join(o.outputDir, categorySlug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("organize: create category dir: %w", err)
	}

	stamp := o.now().Format("2006-01-02_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.md", stamp, titleSlug))
	if !pathTaken(path) {
		return path, nil
	}

	fragment := id
	if len(fragment) > 8 {
		fragment = fragment[:8]
	}
	path = filepath.Join(dir, fmt.Sprintf("%s_%s_%s.md", stamp, titleSlug, fragment))
	if pathTaken(path) {
		return "", fmt.Errorf("organize: note path %s already exists", path)
	}
	return path, nil
}

// pathTaken reports whether an earlier note (finished or in flight) already
// claims path. Anything else occupying the path is left for the final rename
// to report.
func pathTaken(path string) bool {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return true
	}
	if info, err := os.Stat(path + ".tmp"); err == nil && info.Mode().IsRegular() {
		return true
	}
	return false
}

func renderMarkdown(note Note, id, archivePath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(note.Analysis.Title))

	b.WriteString("- id: " + id + "\n")
	b.WriteString("- category: " + strings.TrimSpace(note.Analysis.Category) + "\n")
	if note.RecordedAt != "" {
		b.WriteString("- recorded: " + note.RecordedAt + "\n")
	}
	if note.DurationSecs > 0 {
		fmt.Fprintf(&b, "- duration: %.0fs\n", note.DurationSecs)
	}
	b.WriteString("- source: " + note.OriginalName + "\n")
	b.WriteString("- audio: " + filepath.Base(archivePath) + "\n")
	if note.Model != "" {
		b.WriteString("- model: " + note.Model + "\n")
	}
	if note.Language != "" && note.Language != "auto" {
		b.WriteString("- language: " + note.Language + "\n")
	}
	b.WriteString("- hash: " + note.OriginalHash + "\n")

	b.WriteString("\n## Summary\n\n")
	b.WriteString(strings.TrimSpace(note.Analysis.ShortSummary) + "\n")

	b.WriteString("\n## Transcript\n\n")
	b.WriteString(strings.TrimSpace(note.Transcript) + "\n")
	return b.String()
}
