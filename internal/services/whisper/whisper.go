// Package whisper runs an external speech-to-text command over prepared audio
// and loads the resulting transcript.
package whisper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vasd85/voxenote/internal/services"
	"github.com/vasd85/voxenote/internal/textutil"
)

// maxRepeatedLines caps runs of an identical line in a transcript. Whisper
// models occasionally loop on a phrase at the end of a recording.
const maxRepeatedLines = 3

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Config selects the model and subprocess behavior.
type Config struct {
	// Binary is the transcription command, e.g. mlx_whisper.
	Binary string
	Model  string
	// Language is an ISO code or "auto" for detection.
	Language string
}

// CLI shells out to a whisper-compatible command that writes a .txt transcript
// into an output directory.
type CLI struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

func NewCLI(cfg Config) *CLI {
	if cfg.Binary == "" {
		cfg.Binary = "mlx_whisper"
	}
	return &CLI{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *CLI) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	c.commandRunner = runner
}

// Transcribe runs the model over audioPath and returns the cleaned transcript.
// An empty transcript is an error: silent files are filtered out before this
// stage, so emptiness here means the tool failed.
func (c *CLI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	outputDir, err := os.MkdirTemp("", "voxenote-whisper-*")
	if err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	args := c.buildArgs(audioPath, outputDir)
	if err := c.run(ctx, c.cfg.Binary, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcribe", "run model", audioPath, err)
	}

	transcriptPath, err := findTranscript(outputDir, audioPath)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "transcribe", "locate transcript", audioPath, err)
	}
	raw, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}

	text := textutil.CollapseRepeatedLines(strings.TrimSpace(string(raw)), maxRepeatedLines)
	if text == "" {
		return "", services.Wrap(services.ErrValidation, "transcribe", audioPath, "empty transcript", nil)
	}
	return text, nil
}

func (c *CLI) buildArgs(audioPath, outputDir string) []string {
	args := []string{
		audioPath,
		"--model", c.cfg.Model,
		"--output-format", "txt",
		"--output-dir", outputDir,
	}
	if lang := strings.TrimSpace(c.cfg.Language); lang != "" && lang != "auto" {
		args = append(args, "--language", lang)
	}
	return args
}

func (c *CLI) run(ctx context.Context, name string, args ...string) error {
	if c.commandRunner != nil {
		return c.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// findTranscript locates the .txt the tool wrote. The expected name is the
// audio stem, but some versions rename the output, so a lone .txt in the
// directory also counts.
func findTranscript(outputDir, audioPath string) (string, error) {
	base := filepath.Base(audioPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	expected := filepath.Join(outputDir, stem+".txt")
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}

	matches, err := filepath.Glob(filepath.Join(outputDir, "*.txt"))
	if err != nil {
		return "", fmt.Errorf("scan transcript dir: %w", err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no transcript produced in %s", outputDir)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous transcripts in %s: %d candidates", outputDir, len(matches))
	}
}
