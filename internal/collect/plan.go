// Package collect decides which source directories to scan and whether to
// descend into their subdirectories.
package collect

import (
	"fmt"
	"path/filepath"

	"github.com/vasd85/voxenote/internal/config"
)

// Mode is the global recursion switch supplied on the command line.
type Mode string

const (
	// ModeAuto defers to per-source configuration, falling back to the
	// configured default for sources that carry no flag.
	ModeAuto Mode = "auto"
	ModeOn   Mode = "on"
	ModeOff  Mode = "off"
)

// ParseMode validates a recursion mode flag value.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeAuto, ModeOn, ModeOff:
		return Mode(value), nil
	default:
		return "", fmt.Errorf("recursion mode %q must be auto, on, or off", value)
	}
}

// Reason explains where a plan entry's recursion value came from.
type Reason string

const (
	// ReasonCLI means the global on/off mode forced the value.
	ReasonCLI Reason = "cli"
	// ReasonConfig means the value was inherited from a configured source.
	ReasonConfig Reason = "config"
	// ReasonDefault means the configured default recursion value applied.
	ReasonDefault Reason = "default"
)

// Plan is one directory to scan.
type Plan struct {
	Path      string
	Recursive bool
	Reason    Reason
}

// BuildPlan merges command-line source paths with configured sources into an
// ordered scan plan. When CLI sources are given they replace the configured
// list, but a CLI source that names a configured directory still inherits that
// source's recursive flag under auto mode. The on and off modes override
// recursion for every entry.
func BuildPlan(configured []config.Source, defaultRecursive bool, cliSources []string, mode Mode) []Plan {
	if len(cliSources) == 0 {
		plans := make([]Plan, 0, len(configured))
		for _, src := range configured {
			plans = append(plans, Plan{
				Path:      filepath.Clean(src.Path),
				Recursive: resolveRecursion(mode, src.Recursive, ReasonConfig),
				Reason:    resolveReason(mode, ReasonConfig),
			})
		}
		return plans
	}

	byPath := make(map[string]config.Source, len(configured))
	for _, src := range configured {
		byPath[filepath.Clean(src.Path)] = src
	}

	plans := make([]Plan, 0, len(cliSources))
	for _, raw := range cliSources {
		path := filepath.Clean(raw)
		if src, ok := byPath[path]; ok {
			plans = append(plans, Plan{
				Path:      path,
				Recursive: resolveRecursion(mode, src.Recursive, ReasonConfig),
				Reason:    resolveReason(mode, ReasonConfig),
			})
			continue
		}
		plans = append(plans, Plan{
			Path:      path,
			Recursive: resolveRecursion(mode, defaultRecursive, ReasonDefault),
			Reason:    resolveReason(mode, ReasonDefault),
		})
	}
	return plans
}

func resolveRecursion(mode Mode, inherited bool, _ Reason) bool {
	switch mode {
	case ModeOn:
		return true
	case ModeOff:
		return false
	default:
		return inherited
	}
}

func resolveReason(mode Mode, fallback Reason) Reason {
	if mode == ModeOn || mode == ModeOff {
		return ReasonCLI
	}
	return fallback
}
