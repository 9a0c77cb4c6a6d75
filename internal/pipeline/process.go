package pipeline

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/vasd85/voxenote/internal/logging"
	"github.com/vasd85/voxenote/internal/organize"
	"github.com/vasd85/voxenote/internal/state"
)

// Process transcribes, analyzes, and organizes every recording in the ingest
// area. A ProcessedEntry is written only after the note and archive move both
// succeed, so any failure leaves the file eligible for the next run.
func (o *Orchestrator) Process(ctx context.Context) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		files, err := o.discoverInput()
		if err != nil {
			yield(failed(StageTranscribe, "", err))
			return
		}

		processed, skippedCount, errored := 0, 0, 0
		for _, file := range files {
			if ctx.Err() != nil {
				return
			}

			if o.opts.Force {
				if err := o.store.PurgeEntry(file.hash); err != nil {
					errored++
					if !yield(failed(StageTranscribe, file.display(), err)) {
						return
					}
					continue
				}
				if err := o.store.PurgeTranscript(file.hash); err != nil {
					errored++
					if !yield(failed(StageTranscribe, file.display(), err)) {
						return
					}
					continue
				}
			} else if entry, ok, err := o.store.FindEntry(file.hash); err != nil {
				errored++
				if !yield(failed(StageTranscribe, file.display(), err)) {
					return
				}
				continue
			} else if ok {
				skippedCount++
				reason := "already processed"
				if entry.Outcome == state.OutcomeNoSpeech {
					reason = "no speech"
				}
				if !yield(skipped(StageTranscribe, file.display(), reason)) {
					return
				}
				continue
			}

			done, ok := o.processOne(ctx, file, yield)
			if !ok {
				return
			}
			if done {
				processed++
			} else {
				errored++
			}
		}
		yield(summary(StageTranscribe, fmt.Sprintf("processed %d, skipped %d, errors %d", processed, skippedCount, errored)))
	}
}

// processOne runs transcribe, analyze, and organize for one file. The second
// return mirrors yield: false means the consumer stopped the sequence.
func (o *Orchestrator) processOne(ctx context.Context, file inputFile, yield func(Event) bool) (bool, bool) {
	source, label, err := o.resolveSource(file)
	if err != nil {
		return false, yield(failed(StageTranscribe, file.display(), err))
	}

	text, reused, err := o.obtainTranscript(ctx, file, source)
	if err != nil {
		return false, yield(failed(StageTranscribe, file.display(), err))
	}
	if reused {
		if !yield(info(StageTranscribe, fmt.Sprintf("%s: reusing saved transcript", file.display()))) {
			return false, false
		}
	} else {
		if !yield(completed(StageTranscribe, file.display(), "from "+label+" audio")) {
			return false, false
		}
	}

	if !yield(processing(StageAnalyze, file.display())) {
		return false, false
	}
	analysis, err := o.analyzer.Analyze(ctx, text)
	if err != nil {
		// Keep the transcript so the next run skips straight to analysis.
		if saveErr := o.store.SaveTranscript(state.Transcript{
			CreatedAt:    time.Now().UTC(),
			OriginalHash: file.hash,
			AudioPath:    file.path,
			Text:         text,
			Error:        err.Error(),
		}); saveErr != nil {
			o.logger.Warn("saving transcript after failed analysis",
				logging.String("file", file.display()),
				logging.Error(saveErr))
		}
		return false, yield(failed(StageAnalyze, file.display(), err))
	}
	if !yield(completed(StageAnalyze, file.display(), analysis.Title)) {
		return false, false
	}

	note := organize.Note{
		Analysis:     analysis,
		Transcript:   text,
		OriginalName: file.base,
		OriginalHash: file.hash,
		Model:        o.cfg.Transcription.Model,
		Language:     o.cfg.Transcription.Language,
	}
	if meta, ok, err := o.store.FindMetadata(file.hash); err == nil && ok {
		note.RecordedAt = meta.RecordedAt
		note.DurationSecs = meta.DurationSeconds
	}

	result, err := o.archiver.Store(note, file.path)
	if err != nil {
		// The note did not land, so persist the transcript for the retry.
		if saveErr := o.store.SaveTranscript(state.Transcript{
			CreatedAt:    time.Now().UTC(),
			OriginalHash: file.hash,
			AudioPath:    file.path,
			Text:         text,
			Error:        err.Error(),
		}); saveErr != nil {
			o.logger.Warn("saving transcript after failed organize",
				logging.String("file", file.display()),
				logging.Error(saveErr))
		}
		return false, yield(failed(StageOrganize, file.display(), err))
	}

	entry := state.Entry{
		ProcessedAt:     time.Now().UTC(),
		OriginalHash:    file.hash,
		OriginalName:    file.base,
		Outcome:         state.OutcomeSuccess,
		NotePath:        result.NotePath,
		ArchivePath:     result.ArchivePath,
		RecordedAt:      note.RecordedAt,
		TranscribedPath: source,
		Model:           o.cfg.Transcription.Model,
		Language:        o.cfg.Transcription.Language,
		Category:        analysis.Category,
		Title:           analysis.Title,
		DurationSeconds: note.DurationSecs,
	}
	if err := o.store.UpsertEntry(entry); err != nil {
		return false, yield(failed(StageOrganize, file.display(), err))
	}
	if err := o.store.PurgeTranscript(file.hash); err != nil {
		o.logger.Warn("purging reused transcript",
			logging.String("file", file.display()),
			logging.Error(err))
	}

	return true, yield(completed(StageOrganize, file.display(), result.NotePath))
}

// obtainTranscript reuses a transcript saved by an earlier failed run, or
// invokes the transcription collaborator over source.
func (o *Orchestrator) obtainTranscript(ctx context.Context, file inputFile, source string) (string, bool, error) {
	if transcript, ok, err := o.store.FindTranscript(file.hash); err != nil {
		return "", false, err
	} else if ok {
		return transcript.Text, true, nil
	}

	stageCtx := ctx
	if o.cfg.Transcription.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, time.Duration(o.cfg.Transcription.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	text, err := o.transcribe.Transcribe(stageCtx, source)
	if err != nil {
		return "", false, err
	}
	return text, false, nil
}
