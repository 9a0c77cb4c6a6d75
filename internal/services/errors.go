package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks unusable configuration; it aborts the whole run.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalTool marks a collaborator subprocess or service failure.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks malformed or unusable per-file input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing file or record.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures worth retrying on a later run.
	ErrTransient = errors.New("transient failure")
	// ErrNoSpeech marks a file whose audio contains no detectable speech.
	ErrNoSpeech = errors.New("no speech detected")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err should abort the batch rather than be recorded
// as a per-file failure.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
