package state

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vasd85/voxenote/internal/logging"
)

// maxLineBytes bounds a single JSONL line. Transcripts of long recordings can
// run to hundreds of kilobytes.
const maxLineBytes = 16 * 1024 * 1024

// recordLog is an append-only JSONL file of records keyed by a string field.
// Reads tolerate malformed lines: they are skipped with a warning so one
// corrupt write never blocks the pipeline.
type recordLog[T any] struct {
	path   string
	keyOf  func(T) string
	logger *slog.Logger
}

func newRecordLog[T any](path string, keyOf func(T) string, logger *slog.Logger) *recordLog[T] {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &recordLog[T]{path: path, keyOf: keyOf, logger: logger}
}

// Append adds one record to the end of the log.
func (l *recordLog[T]) Append(record T) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", filepath.Base(l.path), err)
	}
	defer file.Close()
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append to log %s: %w", filepath.Base(l.path), err)
	}
	return file.Sync()
}

// All returns every well-formed record in file order.
func (l *recordLog[T]) All() ([]T, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log %s: %w", filepath.Base(l.path), err)
	}
	defer file.Close()

	var records []T
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(raw, &record); err != nil {
			l.logger.Warn("skipping malformed log line",
				logging.String("log", filepath.Base(l.path)),
				logging.Int("line", lineNo),
				logging.Error(err))
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log %s: %w", filepath.Base(l.path), err)
	}
	return records, nil
}

// Index returns the latest record per key.
func (l *recordLog[T]) Index() (map[string]T, error) {
	records, err := l.All()
	if err != nil {
		return nil, err
	}
	index := make(map[string]T, len(records))
	for _, record := range records {
		key := l.keyOf(record)
		if key == "" {
			continue
		}
		index[key] = record
	}
	return index, nil
}

// Latest returns the last record written for key.
func (l *recordLog[T]) Latest(key string) (T, bool, error) {
	var zero T
	index, err := l.Index()
	if err != nil {
		return zero, false, err
	}
	record, ok := index[key]
	return record, ok, nil
}

// Upsert removes every record for the key and appends the new one. The log is
// rewritten atomically via a temporary file alongside it.
func (l *recordLog[T]) Upsert(record T) error {
	key := l.keyOf(record)
	if key == "" {
		return errors.New("upsert requires a keyed record")
	}
	if err := l.Purge(key); err != nil {
		return err
	}
	return l.Append(record)
}

// Purge drops every record for key. Missing logs and absent keys are no-ops.
func (l *recordLog[T]) Purge(key string) error {
	records, err := l.All()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	kept := make([]T, 0, len(records))
	removed := false
	for _, record := range records {
		if l.keyOf(record) == key {
			removed = true
			continue
		}
		kept = append(kept, record)
	}
	if !removed {
		return nil
	}
	return l.rewrite(kept)
}

func (l *recordLog[T]) rewrite(records []T) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpPath := tmp.Name()
	writer := bufio.NewWriter(tmp)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("encode record: %w", err)
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("write temp log: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush temp log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace log %s: %w", filepath.Base(l.path), err)
	}
	return nil
}
