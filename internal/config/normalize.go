package config

import "strings"

func (c *Config) normalize() error {
	def := Default()

	c.Paths.InputDir = orDefault(c.Paths.InputDir, def.Paths.InputDir)
	c.Paths.OutputDir = orDefault(c.Paths.OutputDir, def.Paths.OutputDir)
	c.Paths.ArchiveDir = orDefault(c.Paths.ArchiveDir, def.Paths.ArchiveDir)
	c.Paths.StateDir = orDefault(c.Paths.StateDir, def.Paths.StateDir)
	c.Paths.LogDir = orDefault(c.Paths.LogDir, def.Paths.LogDir)

	for _, field := range []*string{
		&c.Paths.InputDir,
		&c.Paths.OutputDir,
		&c.Paths.ArchiveDir,
		&c.Paths.StateDir,
		&c.Paths.LogDir,
	} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	for i := range c.Sources {
		expanded, err := expandPath(strings.TrimSpace(c.Sources[i].Path))
		if err != nil {
			return err
		}
		c.Sources[i].Path = expanded
	}

	c.Transcription.Model = orDefault(c.Transcription.Model, def.Transcription.Model)
	c.Transcription.Binary = orDefault(c.Transcription.Binary, def.Transcription.Binary)
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if c.Transcription.Language == "" {
		c.Transcription.Language = "auto"
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = def.Transcription.TimeoutSeconds
	}

	c.LLM.Model = orDefault(c.LLM.Model, def.LLM.Model)
	c.LLM.BaseURL = strings.TrimRight(orDefault(c.LLM.BaseURL, def.LLM.BaseURL), "/")
	if c.LLM.ContextTokens <= 0 {
		c.LLM.ContextTokens = def.LLM.ContextTokens
	}
	if c.LLM.ChatTimeoutSeconds <= 0 {
		c.LLM.ChatTimeoutSeconds = def.LLM.ChatTimeoutSeconds
	}
	if c.LLM.TokenizeTimeoutSeconds <= 0 {
		c.LLM.TokenizeTimeoutSeconds = def.LLM.TokenizeTimeoutSeconds
	}
	if c.LLM.MaxRetries < 0 {
		c.LLM.MaxRetries = def.LLM.MaxRetries
	}
	if c.LLM.RetryBackoffSeconds <= 0 {
		c.LLM.RetryBackoffSeconds = def.LLM.RetryBackoffSeconds
	}

	c.Processing.FFmpegBinary = orDefault(c.Processing.FFmpegBinary, def.Processing.FFmpegBinary)
	if trimmed := strings.TrimSpace(c.Processing.DenoiseModelPath); trimmed != "" {
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		c.Processing.DenoiseModelPath = expanded
	} else {
		c.Processing.DenoiseModelPath = ""
	}
	if c.Processing.PrepareTimeoutSeconds <= 0 {
		c.Processing.PrepareTimeoutSeconds = def.Processing.PrepareTimeoutSeconds
	}
	if c.Processing.TrimTimeoutSeconds <= 0 {
		c.Processing.TrimTimeoutSeconds = def.Processing.TrimTimeoutSeconds
	}
	c.Processing.SupportedFormats = normalizeFormats(c.Processing.SupportedFormats)
	if len(c.Processing.SupportedFormats) == 0 {
		c.Processing.SupportedFormats = defaultSupportedFormats()
	}

	c.VAD.Binary = orDefault(c.VAD.Binary, def.VAD.Binary)
	if c.VAD.Threshold <= 0 {
		c.VAD.Threshold = def.VAD.Threshold
	}
	if c.VAD.NegThreshold <= 0 {
		c.VAD.NegThreshold = def.VAD.NegThreshold
	}
	if c.VAD.MinSilenceDurationMS <= 0 {
		c.VAD.MinSilenceDurationMS = def.VAD.MinSilenceDurationMS
	}
	if c.VAD.MinSpeechDurationMS <= 0 {
		c.VAD.MinSpeechDurationMS = def.VAD.MinSpeechDurationMS
	}
	if c.VAD.SpeechPadMS < 0 {
		c.VAD.SpeechPadMS = def.VAD.SpeechPadMS
	}

	if c.Watch.SettleSeconds <= 0 {
		c.Watch.SettleSeconds = def.Watch.SettleSeconds
	}

	c.Logging.Format = strings.ToLower(orDefault(c.Logging.Format, def.Logging.Format))
	c.Logging.Level = strings.ToLower(orDefault(c.Logging.Level, def.Logging.Level))

	if strings.TrimSpace(c.Prompts.SystemPrompt) == "" {
		c.Prompts.SystemPrompt = def.Prompts.SystemPrompt
	}

	return nil
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

// normalizeFormats lowercases extensions, strips leading dots, and drops
// duplicates while preserving order.
func normalizeFormats(formats []string) []string {
	seen := make(map[string]struct{}, len(formats))
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		f = strings.TrimPrefix(f, ".")
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
