package state

import (
	"log/slog"
	"path/filepath"
	"strings"
)

const (
	processedLogName   = "processed.jsonl"
	transcriptsLogName = "transcripts.jsonl"
	collectedLogName   = "collected.jsonl"
	metadataLogName    = "metadata.jsonl"
)

// Store coordinates the per-concern JSONL logs in the state directory.
type Store struct {
	processed   *recordLog[Entry]
	transcripts *recordLog[Transcript]
	collected   *recordLog[Collected]
	metadata    *recordLog[Metadata]
}

// NewStore opens the state logs under dir. Files are created lazily on first
// write.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{
		processed: newRecordLog(filepath.Join(dir, processedLogName),
			func(e Entry) string { return e.OriginalHash }, logger),
		transcripts: newRecordLog(filepath.Join(dir, transcriptsLogName),
			func(t Transcript) string { return t.OriginalHash }, logger),
		collected: newRecordLog(filepath.Join(dir, collectedLogName),
			func(c Collected) string { return c.OriginalHash }, logger),
		metadata: newRecordLog(filepath.Join(dir, metadataLogName),
			func(m Metadata) string { return m.OriginalHash }, logger),
	}
}

// LoadIndex returns the latest processed entry per content hash.
func (s *Store) LoadIndex() (map[string]Entry, error) {
	return s.processed.Index()
}

// FindEntry returns the latest processed entry for hash.
func (s *Store) FindEntry(hash string) (Entry, bool, error) {
	return s.processed.Latest(hash)
}

// UpsertEntry records a completed pass, replacing any prior entry for the
// same recording.
func (s *Store) UpsertEntry(entry Entry) error {
	return s.processed.Upsert(entry)
}

// PurgeEntry forgets a recording so the pipeline will process it again.
func (s *Store) PurgeEntry(hash string) error {
	return s.processed.Purge(hash)
}

// SaveTranscript stores transcription output keyed by the original content
// hash. An existing transcript for the hash is replaced.
func (s *Store) SaveTranscript(transcript Transcript) error {
	return s.transcripts.Upsert(transcript)
}

// FindTranscript returns stored transcription text for hash, if any. Records
// with empty text (failed attempts that only carry an error) do not count.
func (s *Store) FindTranscript(hash string) (Transcript, bool, error) {
	transcript, ok, err := s.transcripts.Latest(hash)
	if err != nil || !ok {
		return Transcript{}, false, err
	}
	if strings.TrimSpace(transcript.Text) == "" {
		return Transcript{}, false, nil
	}
	return transcript, true, nil
}

// PurgeTranscript drops stored transcription text for hash.
func (s *Store) PurgeTranscript(hash string) error {
	return s.transcripts.Purge(hash)
}

// AppendCollected records one collected file.
func (s *Store) AppendCollected(record Collected) error {
	return s.collected.Append(record)
}

// LoadCollectedIndex returns the latest collection record per content hash.
func (s *Store) LoadCollectedIndex() (map[string]Collected, error) {
	return s.collected.Index()
}

// SaveMetadata preserves probed container metadata for hash.
func (s *Store) SaveMetadata(record Metadata) error {
	return s.metadata.Upsert(record)
}

// FindMetadata returns preserved metadata for hash, if any.
func (s *Store) FindMetadata(hash string) (Metadata, bool, error) {
	return s.metadata.Latest(hash)
}
