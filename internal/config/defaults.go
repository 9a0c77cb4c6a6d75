package config

const (
	defaultInputDir   = "~/.local/share/voxenote/input"
	defaultOutputDir  = "~/notes"
	defaultArchiveDir = "~/notes/archive"
	defaultStateDir   = "~/.local/share/voxenote/state"
	defaultLogDir     = "~/.local/share/voxenote/logs"

	defaultTranscriptionBinary  = "mlx_whisper"
	defaultTranscriptionModel   = "mlx-community/whisper-large-v3-turbo"
	defaultTranscriptionTimeout = 3600

	defaultLLMBaseURL         = "http://localhost:11434"
	defaultLLMModel           = "qwen2.5:14b"
	defaultLLMContextTokens   = 16384
	defaultLLMChatTimeout     = 120
	defaultLLMTokenizeTimeout = 60
	defaultLLMMaxRetries      = 2
	defaultLLMRetryBackoff    = 2.0

	defaultFFmpegBinary   = "ffmpeg"
	defaultPrepareTimeout = 3600
	defaultTrimTimeout    = 3600

	defaultVADBinary       = "silero-vad"
	defaultVADThreshold    = 0.5
	defaultVADNegThreshold = 0.35
	defaultVADMinSilenceMS = 500
	defaultVADMinSpeechMS  = 250
	defaultVADSpeechPadMS  = 100

	defaultWatchSettleSeconds = 2

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

const defaultSystemPrompt = `You are an assistant that labels personal voice notes.
Given the text of a note, respond ONLY with a JSON object containing:
"title" (a short descriptive title), "category" (one word, e.g. Personal,
Work, Ideas, Shopping), and "short_summary" (one or two sentences).`

func defaultSupportedFormats() []string {
	return []string{"m4a", "mp3", "wav", "ogg", "flac"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:   defaultInputDir,
			OutputDir:  defaultOutputDir,
			ArchiveDir: defaultArchiveDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Transcription: Transcription{
			Model:          defaultTranscriptionModel,
			Language:       "auto",
			Binary:         defaultTranscriptionBinary,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		LLM: LLM{
			Model:                  defaultLLMModel,
			BaseURL:                defaultLLMBaseURL,
			Stream:                 true,
			ContextTokens:          defaultLLMContextTokens,
			ChatTimeoutSeconds:     defaultLLMChatTimeout,
			TokenizeTimeoutSeconds: defaultLLMTokenizeTimeout,
			MaxRetries:             defaultLLMMaxRetries,
			RetryBackoffSeconds:    defaultLLMRetryBackoff,
		},
		Processing: Processing{
			SupportedFormats:      defaultSupportedFormats(),
			FFmpegBinary:          defaultFFmpegBinary,
			PrepareTimeoutSeconds: defaultPrepareTimeout,
			TrimTimeoutSeconds:    defaultTrimTimeout,
		},
		VAD: VAD{
			Binary:               defaultVADBinary,
			Threshold:            defaultVADThreshold,
			NegThreshold:         defaultVADNegThreshold,
			MinSilenceDurationMS: defaultVADMinSilenceMS,
			MinSpeechDurationMS:  defaultVADMinSpeechMS,
			SpeechPadMS:          defaultVADSpeechPadMS,
		},
		Collect: Collect{
			RecursiveDefault: true,
		},
		Watch: Watch{
			SettleSeconds: defaultWatchSettleSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Prompts: Prompts{
			SystemPrompt: defaultSystemPrompt,
		},
	}
}
