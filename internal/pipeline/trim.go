package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/vasd85/voxenote/internal/cache"
	"github.com/vasd85/voxenote/internal/services"
	"github.com/vasd85/voxenote/internal/services/vad"
	"github.com/vasd85/voxenote/internal/state"
)

// Trim detects speech intervals in each recording and renders a waveform
// containing only the padded speech. Silent recordings are recorded as
// no-speech so later stages and later runs leave them alone.
func (o *Orchestrator) Trim(ctx context.Context) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		files, err := o.discoverInput()
		if err != nil {
			yield(failed(StageTrim, "", err))
			return
		}

		trimmed, reused, silent, errored := 0, 0, 0, 0
		for _, file := range files {
			if ctx.Err() != nil {
				return
			}

			if !o.opts.Force {
				if entry, ok, err := o.store.FindEntry(file.hash); err != nil {
					errored++
					if !yield(failed(StageTrim, file.display(), err)) {
						return
					}
					continue
				} else if ok && entry.Outcome == state.OutcomeNoSpeech {
					silent++
					if !yield(skipped(StageTrim, file.display(), "no speech")) {
						return
					}
					continue
				}
				if _, ok, err := o.cache.Lookup(cache.StageTrimmed, file.hash); err != nil {
					errored++
					if !yield(failed(StageTrim, file.display(), err)) {
						return
					}
					continue
				} else if ok {
					reused++
					if !yield(skipped(StageTrim, file.display(), "cached")) {
						return
					}
					continue
				}
			}

			if !yield(processing(StageTrim, file.display())) {
				return
			}
			outcome, err := o.trimOne(ctx, file)
			switch {
			case errors.Is(err, services.ErrNoSpeech):
				silent++
				if !yield(skipped(StageTrim, file.display(), "no speech")) {
					return
				}
			case err != nil:
				errored++
				if !yield(failed(StageTrim, file.display(), err)) {
					return
				}
			default:
				trimmed++
				if !yield(completed(StageTrim, file.display(), outcome)) {
					return
				}
			}
		}
		yield(summary(StageTrim, fmt.Sprintf("trimmed %d, cached %d, no speech %d, errors %d", trimmed, reused, silent, errored)))
	}
}

// trimOne runs detection and, outside dry-run, renders and caches the trimmed
// artifact. The returned string is a completion message; an error matching
// services.ErrNoSpeech means nothing worth keeping was found.
func (o *Orchestrator) trimOne(ctx context.Context, file inputFile) (string, error) {
	stageCtx := ctx
	if o.cfg.Processing.TrimTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, time.Duration(o.cfg.Processing.TrimTimeoutSeconds)*time.Second)
		defer cancel()
	}

	// The trim stage prefers the prepared waveform but falls back to the
	// original when prepare has not run for this file.
	source := file.path
	if prepared, ok, err := o.cache.Lookup(cache.StagePrepared, file.hash); err != nil {
		return "", err
	} else if ok {
		source = prepared
	}

	detected, err := o.detector.Detect(stageCtx, source)
	if err != nil {
		return "", err
	}
	intervals := vad.MergePadded(detected, o.cfg.VAD.SpeechPadMS)

	if len(intervals) == 0 {
		if o.opts.DryRun {
			return "", services.Wrap(services.ErrNoSpeech, "trim", file.display(), "", nil)
		}
		if err := o.recordNoSpeech(file); err != nil {
			return "", err
		}
		return "", services.Wrap(services.ErrNoSpeech, "trim", file.display(), "", nil)
	}

	if o.opts.DryRun {
		return fmt.Sprintf("dry run: %d intervals, %dms speech", len(intervals), vad.TotalSpeechMS(intervals)), nil
	}

	temp, err := os.CreateTemp("", "voxenote-trim-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	tempPath := temp.Name()
	temp.Close()
	defer os.Remove(tempPath)

	if err := o.transcoder.Render(stageCtx, source, tempPath, intervals); err != nil {
		return "", err
	}
	if _, err := o.cache.Commit(cache.StageTrimmed, file.hash, file.base, tempPath); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d intervals, %dms speech", len(intervals), vad.TotalSpeechMS(intervals)), nil
}

// recordNoSpeech persists the silent outcome so later runs skip the file
// without re-running detection, and the process stage does not transcribe it.
func (o *Orchestrator) recordNoSpeech(file inputFile) error {
	return o.store.UpsertEntry(state.Entry{
		ProcessedAt:  time.Now().UTC(),
		OriginalHash: file.hash,
		OriginalName: file.base,
		OriginalPath: file.path,
		Outcome:      state.OutcomeNoSpeech,
	})
}
