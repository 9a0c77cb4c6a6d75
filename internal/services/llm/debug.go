package llm

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugJournal appends every chat exchange to a JSONL file so prompt or
// model problems can be diagnosed after the fact.
type DebugJournal struct {
	mu   sync.Mutex
	path string
}

func NewDebugJournal(path string) *DebugJournal {
	return &DebugJournal{path: path}
}

type debugRecord struct {
	At       time.Time     `json:"at"`
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Response string        `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Record writes one exchange. Journal failures are swallowed: debugging aids
// must never fail the pipeline.
func (j *DebugJournal) Record(model string, messages []chatMessage, response string, callErr error) {
	if j == nil {
		return
	}
	record := debugRecord{
		At:       time.Now().UTC(),
		Model:    model,
		Messages: messages,
		Response: response,
	}
	if callErr != nil {
		record.Error = callErr.Error()
	}
	line, err := json.Marshal(record)
	if err != nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return
	}
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	file.Write(append(line, '\n'))
}
