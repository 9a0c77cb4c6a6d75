// Package ffmpeg transcodes recordings into the normalized waveform the rest
// of the pipeline consumes, and renders trimmed artifacts from speech
// intervals.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vasd85/voxenote/internal/services"
	"github.com/vasd85/voxenote/internal/services/vad"
)

const (
	// SampleRate is the fixed rate of every prepared artifact.
	SampleRate = 16000
	audioCodec = "pcm_s16le"
)

// Client shells out to ffmpeg.
type Client struct {
	binary string
	// DenoiseModelPath, when set, points at an RNNoise model consumed by the
	// arnndn filter. Empty means the built-in filter chain is used.
	denoiseModelPath string
	commandRunner    func(ctx context.Context, name string, args ...string) error
}

func NewClient(binary, denoiseModelPath string) *Client {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Client{binary: binary, denoiseModelPath: denoiseModelPath}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Client) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	c.commandRunner = runner
}

// Prepare transcodes source into a denoised mono 16 kHz PCM waveform at dest.
func (c *Client) Prepare(ctx context.Context, source, dest string) error {
	args := buildPrepareArgs(source, dest, c.denoiseModelPath)
	if err := c.run(ctx, c.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "prepare", "transcode", source, err)
	}
	return nil
}

// Render cuts the speech intervals out of source and concatenates them into
// one continuous waveform at dest. The intervals must already be merged and
// sorted.
func (c *Client) Render(ctx context.Context, source, dest string, intervals []vad.Interval) error {
	if len(intervals) == 0 {
		return services.Wrap(services.ErrValidation, "trim", "render", "no intervals to keep", nil)
	}
	args := buildRenderArgs(source, dest, intervals)
	if err := c.run(ctx, c.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "trim", "render", source, err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, name string, args ...string) error {
	if c.commandRunner != nil {
		return c.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func buildPrepareArgs(source, dest, denoiseModelPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", source,
		"-af", prepareFilter(denoiseModelPath),
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-c:a", audioCodec,
		dest,
	}
}

// prepareFilter builds the denoise chain. With an RNNoise model the arnndn
// filter does the heavy lifting; without one a bandpass approximates voice
// range. Both end with loudness normalization.
func prepareFilter(denoiseModelPath string) string {
	if denoiseModelPath != "" {
		return fmt.Sprintf("arnndn=m=%s,loudnorm", denoiseModelPath)
	}
	return "highpass=f=80,lowpass=f=8000,loudnorm"
}

func buildRenderArgs(source, dest string, intervals []vad.Interval) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", source,
		"-filter_complex", renderFilter(intervals),
		"-map", "[out]",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-c:a", audioCodec,
		dest,
	}
}

// renderFilter builds an atrim/asetpts/concat graph keeping only the given
// intervals.
func renderFilter(intervals []vad.Interval) string {
	var b strings.Builder
	for i, iv := range intervals {
		fmt.Fprintf(&b, "[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[s%d];",
			formatSeconds(iv.StartMS), formatSeconds(iv.EndMS), i)
	}
	for i := range intervals {
		fmt.Fprintf(&b, "[s%d]", i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=0:a=1[out]", len(intervals))
	return b.String()
}

func formatSeconds(ms int) string {
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}
