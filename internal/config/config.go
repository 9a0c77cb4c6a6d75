package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InputDir   string `toml:"input_dir"`
	OutputDir  string `toml:"output_dir"`
	ArchiveDir string `toml:"archive_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Transcription contains settings for the speech-to-text collaborator.
type Transcription struct {
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LLM contains settings for the chat-completion collaborator.
type LLM struct {
	Model                  string  `toml:"model"`
	BaseURL                string  `toml:"base_url"`
	Stream                 bool    `toml:"stream"`
	Debug                  bool    `toml:"debug"`
	ContextTokens          int     `toml:"context_tokens"`
	ChatTimeoutSeconds     int     `toml:"chat_timeout_seconds"`
	TokenizeTimeoutSeconds int     `toml:"tokenize_timeout_seconds"`
	MaxRetries             int     `toml:"max_retries"`
	RetryBackoffSeconds    float64 `toml:"retry_backoff_seconds"`
}

// Processing contains format support and transcoding timeouts.
type Processing struct {
	SupportedFormats      []string `toml:"supported_formats"`
	FFmpegBinary          string   `toml:"ffmpeg_binary"`
	DenoiseModelPath      string   `toml:"denoise_model_path"`
	PrepareTimeoutSeconds int      `toml:"prepare_timeout_seconds"`
	TrimTimeoutSeconds    int      `toml:"trim_timeout_seconds"`
}

// VAD contains speech-interval-detection parameters.
type VAD struct {
	Binary               string  `toml:"binary"`
	Threshold            float64 `toml:"threshold"`
	NegThreshold         float64 `toml:"neg_threshold"`
	MinSilenceDurationMS int     `toml:"min_silence_duration_ms"`
	MinSpeechDurationMS  int     `toml:"min_speech_duration_ms"`
	SpeechPadMS          int     `toml:"speech_pad_ms"`
}

// Collect contains ingestion defaults.
type Collect struct {
	RecursiveDefault bool `toml:"recursive_default"`
}

// Source describes one configured collection source directory.
type Source struct {
	Path      string `toml:"path"`
	Recursive bool   `toml:"recursive"`
}

// Watch contains watch-mode settings.
type Watch struct {
	SettleSeconds int `toml:"settle_seconds"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Prompts contains the LLM analysis prompt.
type Prompts struct {
	SystemPrompt string `toml:"system_prompt"`
}

// Config encapsulates all configuration values for voxenote.
//
// Configuration sections by subsystem:
//   - Paths: ingest, note output, audio archive, state, and log directories
//   - Transcription: speech-to-text model and subprocess settings
//   - LLM: chat-completion endpoint, model, and retry policy
//   - Processing: supported formats and ffmpeg settings
//   - VAD: speech detection thresholds and padding
//   - Collect / Sources: source directories and recursion rules
//   - Watch: source watch-mode settle delay
//   - Logging: log format and level
//   - Prompts: system prompt for note analysis
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	LLM           LLM           `toml:"llm"`
	Processing    Processing    `toml:"processing"`
	VAD           VAD           `toml:"vad"`
	Collect       Collect       `toml:"collect"`
	Sources       []Source      `toml:"sources"`
	Watch         Watch         `toml:"watch"`
	Logging       Logging       `toml:"logging"`
	Prompts       Prompts       `toml:"prompts"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/voxenote/config.toml")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is the
// resolved path, the third reports whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("voxenote.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.InputDir,
		c.Paths.OutputDir,
		c.Paths.ArchiveDir,
		c.Paths.StateDir,
		c.Paths.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CacheRoot returns the directory holding stage artifact caches.
func (c *Config) CacheRoot() string {
	return c.Paths.StateDir
}

// LockPath returns the advisory lock file guarding pipeline mutations.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "voxenote.lock")
}

// LogFilePath returns the on-disk log destination.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "voxenote.log")
}

// SupportsFormat reports whether ext (with or without a leading dot) is a
// configured audio format.
func (c *Config) SupportsFormat(ext string) bool {
	cleaned := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if cleaned == "" {
		return false
	}
	for _, format := range c.Processing.SupportedFormats {
		if format == cleaned {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
