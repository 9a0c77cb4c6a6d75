// Package vad detects speech intervals in prepared audio by shelling out to a
// silero-based detector and post-processes the intervals for trimming.
package vad

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/vasd85/voxenote/internal/services"
)

// Interval is one detected speech span in milliseconds from the start of the
// waveform.
type Interval struct {
	StartMS int `json:"start_ms"`
	EndMS   int `json:"end_ms"`
}

func (i Interval) DurationMS() int {
	return i.EndMS - i.StartMS
}

// Detector returns speech intervals for an audio file. An empty slice is a
// valid result meaning no speech was found.
type Detector interface {
	Detect(ctx context.Context, path string) ([]Interval, error)
}

// Params tune detection sensitivity.
type Params struct {
	Threshold            float64
	NegThreshold         float64
	MinSilenceDurationMS int
	MinSpeechDurationMS  int
}

// CLIDetector invokes an external detector binary that prints a JSON array of
// {start_ms, end_ms} objects on stdout.
type CLIDetector struct {
	binary        string
	params        Params
	commandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewCLIDetector(binary string, params Params) *CLIDetector {
	if binary == "" {
		binary = "silero-vad"
	}
	return &CLIDetector{binary: binary, params: params}
}

// WithCommandOutput sets a custom command runner (for testing).
func (d *CLIDetector) WithCommandOutput(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	d.commandOutput = runner
}

func (d *CLIDetector) Detect(ctx context.Context, path string) ([]Interval, error) {
	args := []string{
		"--input", path,
		"--threshold", strconv.FormatFloat(d.params.Threshold, 'f', -1, 64),
		"--neg-threshold", strconv.FormatFloat(d.params.NegThreshold, 'f', -1, 64),
		"--min-silence-ms", strconv.Itoa(d.params.MinSilenceDurationMS),
		"--min-speech-ms", strconv.Itoa(d.params.MinSpeechDurationMS),
		"--output-format", "json",
	}
	output, err := d.output(ctx, d.binary, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "trim", "speech detection", path, err)
	}

	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" || trimmed == "[]" {
		return nil, nil
	}
	var intervals []Interval
	if err := json.Unmarshal([]byte(trimmed), &intervals); err != nil {
		return nil, services.Wrap(services.ErrValidation, "trim", "parse detector output", "", err)
	}
	return intervals, nil
}

func (d *CLIDetector) output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if d.commandOutput != nil {
		return d.commandOutput(ctx, name, args...)
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

// MergePadded expands each interval by padMS on both sides, clamps the start
// at zero, and merges intervals that overlap or touch after padding. The
// result is sorted and non-overlapping. Degenerate intervals (end <= start)
// are dropped before padding.
func MergePadded(intervals []Interval, padMS int) []Interval {
	if padMS < 0 {
		padMS = 0
	}

	padded := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.EndMS <= iv.StartMS {
			continue
		}
		start := iv.StartMS - padMS
		if start < 0 {
			start = 0
		}
		padded = append(padded, Interval{StartMS: start, EndMS: iv.EndMS + padMS})
	}
	if len(padded) == 0 {
		return nil
	}

	sort.Slice(padded, func(i, j int) bool {
		if padded[i].StartMS != padded[j].StartMS {
			return padded[i].StartMS < padded[j].StartMS
		}
		return padded[i].EndMS < padded[j].EndMS
	})

	merged := padded[:1]
	for _, iv := range padded[1:] {
		last := &merged[len(merged)-1]
		if iv.StartMS <= last.EndMS {
			if iv.EndMS > last.EndMS {
				last.EndMS = iv.EndMS
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// TotalSpeechMS sums the durations of a merged interval list.
func TotalSpeechMS(intervals []Interval) int {
	total := 0
	for _, iv := range intervals {
		total += iv.DurationMS()
	}
	return total
}
