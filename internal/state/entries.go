// Package state persists processing records as append-only JSONL logs. Each
// log lives under the state directory and is keyed by the content hash of the
// original recording; when a key appears more than once the latest line wins.
package state

import "time"

// Outcome classifies how a recording finished the pipeline.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNoSpeech Outcome = "no_speech"
)

// Entry records one completed pipeline pass for a recording.
type Entry struct {
	ProcessedAt      time.Time `json:"processed_at"`
	OriginalHash     string    `json:"original_hash"`
	OriginalName     string    `json:"original_name"`
	OriginalPath     string    `json:"original_path,omitempty"`
	Outcome          Outcome   `json:"outcome"`
	NotePath         string    `json:"note_path,omitempty"`
	ArchivePath      string    `json:"archive_path,omitempty"`
	RecordedAt       string    `json:"recorded_at,omitempty"`
	TranscribedPath  string    `json:"transcribed_path,omitempty"`
	Model            string    `json:"model,omitempty"`
	Language         string    `json:"language,omitempty"`
	DurationSeconds  float64   `json:"duration_seconds,omitempty"`
	Category         string    `json:"category,omitempty"`
	Title            string    `json:"title,omitempty"`
}

// Transcript records transcription text for a recording whose analysis has
// not produced a note yet, so later runs can reuse the text instead of
// re-running speech-to-text.
type Transcript struct {
	CreatedAt    time.Time `json:"created_at"`
	OriginalHash string    `json:"original_hash"`
	AudioPath    string    `json:"audio_path,omitempty"`
	Text         string    `json:"text"`
	Error        string    `json:"error,omitempty"`
}

// Collected records one file copied into the input directory by collection.
type Collected struct {
	CollectedAt  time.Time `json:"collected_at"`
	OriginalHash string    `json:"original_hash"`
	SourcePath   string    `json:"source_path"`
	TargetPath   string    `json:"target_path"`
	SizeBytes    int64     `json:"size_bytes,omitempty"`
}

// Metadata preserves container metadata probed from the original file before
// transcoding strips it.
type Metadata struct {
	SavedAt         time.Time `json:"saved_at"`
	OriginalHash    string    `json:"original_hash"`
	OriginalName    string    `json:"original_name"`
	RecordedAt      string    `json:"recorded_at,omitempty"`
	RecordedAtLabel string    `json:"recorded_at_label,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
}
