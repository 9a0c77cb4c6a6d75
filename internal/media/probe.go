// Package media reads container metadata from audio files via ffprobe.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Info is what the pipeline keeps from a probe: when the recording was made,
// how long it is, and where the timestamp came from.
type Info struct {
	// RecordedAt is an RFC 3339 timestamp, empty when no source had one.
	RecordedAt string
	// RecordedAtSource names which field supplied RecordedAt: "creation_time",
	// "date", or "mtime".
	RecordedAtSource string
	DurationSeconds  float64
}

// Prober reads metadata from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// FFprobe shells out to ffprobe for metadata.
type FFprobe struct {
	binary        string
	commandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewFFprobe(binary string) *FFprobe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobe{binary: binary}
}

// WithCommandOutput sets a custom command runner (for testing).
func (p *FFprobe) WithCommandOutput(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	p.commandOutput = runner
}

type probePayload struct {
	Format struct {
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
}

// Probe runs ffprobe over path. Missing tags are not an error: the returned
// Info simply carries empty fields.
func (p *FFprobe) Probe(ctx context.Context, path string) (Info, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	}
	output, err := p.output(ctx, p.binary, args...)
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var payload probePayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return Info{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info Info
	if payload.Format.Duration != "" {
		if seconds, err := strconv.ParseFloat(payload.Format.Duration, 64); err == nil {
			info.DurationSeconds = seconds
		}
	}
	info.RecordedAt, info.RecordedAtSource = recordedAt(payload.Format.Tags)
	return info, nil
}

func (p *FFprobe) output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if p.commandOutput != nil {
		return p.commandOutput(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}

// recordedAt picks the best recording timestamp from container tags.
// creation_time wins over a bare date tag.
func recordedAt(tags map[string]string) (string, string) {
	lower := make(map[string]string, len(tags))
	for key, value := range tags {
		lower[strings.ToLower(key)] = strings.TrimSpace(value)
	}
	for _, key := range []string{"creation_time", "date"} {
		value := lower[key]
		if value == "" {
			continue
		}
		if parsed, ok := parseTimestamp(value); ok {
			return parsed.UTC().Format(time.RFC3339), key
		}
	}
	return "", ""
}

func parseTimestamp(value string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000000Z",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
