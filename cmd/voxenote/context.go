package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/vasd85/voxenote/internal/cache"
	"github.com/vasd85/voxenote/internal/collect"
	"github.com/vasd85/voxenote/internal/config"
	"github.com/vasd85/voxenote/internal/logging"
	"github.com/vasd85/voxenote/internal/media"
	"github.com/vasd85/voxenote/internal/organize"
	"github.com/vasd85/voxenote/internal/pipeline"
	"github.com/vasd85/voxenote/internal/services/ffmpeg"
	"github.com/vasd85/voxenote/internal/services/llm"
	"github.com/vasd85/voxenote/internal/services/vad"
	"github.com/vasd85/voxenote/internal/services/whisper"
	"github.com/vasd85/voxenote/internal/state"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{cfg.LogFilePath()},
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// withLock guards pipeline-mutating commands against concurrent instances.
// The lock lives in the state directory so every command run against the same
// state contends on the same file.
func (c *commandContext) withLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another voxenote instance is running (lock %s)", cfg.LockPath())
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return fn()
}

// buildOrchestrator wires the pipeline with its production collaborators.
func (c *commandContext) buildOrchestrator(opts pipeline.Options) (*pipeline.Orchestrator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	store := state.NewStore(cfg.Paths.StateDir, logger)
	cacheStore := cache.NewDirStore(cfg.CacheRoot())
	transcoder := ffmpeg.NewClient(cfg.Processing.FFmpegBinary, cfg.Processing.DenoiseModelPath)
	detector := vad.NewCLIDetector(cfg.VAD.Binary, vad.Params{
		Threshold:            cfg.VAD.Threshold,
		NegThreshold:         cfg.VAD.NegThreshold,
		MinSilenceDurationMS: cfg.VAD.MinSilenceDurationMS,
		MinSpeechDurationMS:  cfg.VAD.MinSpeechDurationMS,
	})
	prober := media.NewFFprobe(ffprobeBinary(cfg.Processing.FFmpegBinary))
	transcriber := whisper.NewCLI(whisper.Config{
		Binary:   cfg.Transcription.Binary,
		Model:    cfg.Transcription.Model,
		Language: cfg.Transcription.Language,
	})

	clientOpts := []llm.Option{
		llm.WithRetryMaxAttempts(cfg.LLM.MaxRetries + 1),
		llm.WithRetryBackoff(
			time.Duration(cfg.LLM.RetryBackoffSeconds*float64(time.Second)),
			30*time.Second,
		),
	}
	if cfg.LLM.Debug {
		journal := llm.NewDebugJournal(filepath.Join(cfg.Paths.StateDir, "llm_debug.jsonl"))
		clientOpts = append(clientOpts, llm.WithDebugJournal(journal))
	}
	client := llm.NewClient(llm.Config{
		BaseURL:                cfg.LLM.BaseURL,
		Model:                  cfg.LLM.Model,
		Stream:                 cfg.LLM.Stream,
		TimeoutSeconds:         cfg.LLM.ChatTimeoutSeconds,
		TokenizeTimeoutSeconds: cfg.LLM.TokenizeTimeoutSeconds,
	}, clientOpts...)
	analyzer := llm.NewAnalyzer(client, cfg.Prompts.SystemPrompt, cfg.LLM.ContextTokens)

	archiver := organize.New(cfg.Paths.OutputDir, cfg.Paths.ArchiveDir)

	return pipeline.New(cfg, store, cacheStore, transcoder, detector, prober, transcriber, analyzer, archiver, logger, opts), nil
}

// collectPlans merges CLI source arguments with configured sources.
func (c *commandContext) collectPlans(cliSources []string, modeValue string) ([]collect.Plan, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	mode, err := collect.ParseMode(modeValue)
	if err != nil {
		return nil, err
	}
	// Configured sources are absolute after Load; CLI arguments must be
	// expanded the same way or they never match a configured entry.
	expanded := make([]string, 0, len(cliSources))
	for _, source := range cliSources {
		path, err := config.ExpandPath(source)
		if err != nil {
			return nil, fmt.Errorf("resolve source %q: %w", source, err)
		}
		expanded = append(expanded, path)
	}
	plans := collect.BuildPlan(cfg.Sources, cfg.Collect.RecursiveDefault, expanded, mode)
	if len(plans) == 0 {
		return nil, fmt.Errorf("no collection sources; pass directories as arguments or configure [[sources]]")
	}
	return plans, nil
}

// ffprobeBinary derives the probe command from the configured ffmpeg binary
// so both are found in the same installation.
func ffprobeBinary(ffmpegBinary string) string {
	dir := filepath.Dir(ffmpegBinary)
	if dir == "." || dir == "" {
		return "ffprobe"
	}
	return filepath.Join(dir, "ffprobe")
}
