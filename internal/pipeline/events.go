package pipeline

import "fmt"

// Stage names one step of the pipeline in progress events.
type Stage string

const (
	StageCollect    Stage = "collect"
	StagePrepare    Stage = "prepare"
	StageTrim       Stage = "trim"
	StageTranscribe Stage = "transcribe"
	StageAnalyze    Stage = "analyze"
	StageOrganize   Stage = "organize"
)

// Status classifies an event.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
	StatusError      Status = "error"
	StatusInfo       Status = "info"
	StatusSummary    Status = "summary"
)

// Event is one progress notification. Events exist only for display; nothing
// in the pipeline reads them back.
type Event struct {
	Stage   Stage
	Status  Status
	File    string
	Message string
	Err     error
}

func (e Event) String() string {
	base := fmt.Sprintf("[%s] %s", e.Stage, e.Status)
	if e.File != "" {
		base += " " + e.File
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.Err != nil {
		base += ": " + e.Err.Error()
	}
	return base
}

func processing(stage Stage, file string) Event {
	return Event{Stage: stage, Status: StatusProcessing, File: file}
}

func completed(stage Stage, file, message string) Event {
	return Event{Stage: stage, Status: StatusCompleted, File: file, Message: message}
}

func skipped(stage Stage, file, message string) Event {
	return Event{Stage: stage, Status: StatusSkipped, File: file, Message: message}
}

func failed(stage Stage, file string, err error) Event {
	return Event{Stage: stage, Status: StatusError, File: file, Err: err}
}

func info(stage Stage, message string) Event {
	return Event{Stage: stage, Status: StatusInfo, Message: message}
}

func summary(stage Stage, message string) Event {
	return Event{Stage: stage, Status: StatusSummary, Message: message}
}
