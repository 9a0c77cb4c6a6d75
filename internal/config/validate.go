package config

import (
	"fmt"
	"strings"

	"github.com/vasd85/voxenote/internal/services"
)

// Validate reports configuration problems that make the pipeline unable to
// run. Errors carry the configuration marker and are treated as fatal.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.InputDir) == "" {
		problems = append(problems, "paths.input_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		problems = append(problems, "paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ArchiveDir) == "" {
		problems = append(problems, "paths.archive_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		problems = append(problems, "paths.state_dir must be set")
	}

	if strings.TrimSpace(c.Transcription.Model) == "" {
		problems = append(problems, "transcription.model must be set")
	}
	if strings.TrimSpace(c.Transcription.Binary) == "" {
		problems = append(problems, "transcription.binary must be set")
	}

	if strings.TrimSpace(c.LLM.Model) == "" {
		problems = append(problems, "llm.model must be set")
	}
	if !strings.HasPrefix(c.LLM.BaseURL, "http://") && !strings.HasPrefix(c.LLM.BaseURL, "https://") {
		problems = append(problems, fmt.Sprintf("llm.base_url %q must start with http:// or https://", c.LLM.BaseURL))
	}
	if c.LLM.ContextTokens < 1024 {
		problems = append(problems, "llm.context_tokens must be at least 1024")
	}

	if len(c.Processing.SupportedFormats) == 0 {
		problems = append(problems, "processing.supported_formats must list at least one extension")
	}

	if c.VAD.Threshold <= 0 || c.VAD.Threshold >= 1 {
		problems = append(problems, "vad.threshold must be between 0 and 1")
	}
	if c.VAD.NegThreshold <= 0 || c.VAD.NegThreshold >= 1 {
		problems = append(problems, "vad.neg_threshold must be between 0 and 1")
	}
	if c.VAD.NegThreshold > c.VAD.Threshold {
		problems = append(problems, "vad.neg_threshold must not exceed vad.threshold")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if strings.TrimSpace(c.Prompts.SystemPrompt) == "" {
		problems = append(problems, "prompts.system_prompt must be set")
	}

	for i, src := range c.Sources {
		if strings.TrimSpace(src.Path) == "" {
			problems = append(problems, fmt.Sprintf("sources[%d].path must be set", i))
		}
	}

	if len(problems) > 0 {
		return services.Wrap(services.ErrConfiguration, "config", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}
