package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/vasd85/voxenote/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(base, "input")
	cfg.Paths.OutputDir = filepath.Join(base, "notes")
	cfg.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithSources sets configured collection sources on the test config.
func WithSources(sources ...config.Source) ConfigOption {
	return func(c *config.Config) {
		c.Sources = sources
	}
}

// WithFormats overrides the supported audio formats on the test config.
func WithFormats(formats ...string) ConfigOption {
	return func(c *config.Config) {
		c.Processing.SupportedFormats = formats
	}
}
