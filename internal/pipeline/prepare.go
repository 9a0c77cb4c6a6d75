package pipeline

import (
	"context"
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/vasd85/voxenote/internal/cache"
)

// Prepare transcodes every unprocessed recording in the ingest area into the
// normalized waveform, caching the result per content hash.
func (o *Orchestrator) Prepare(ctx context.Context) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		files, err := o.discoverInput()
		if err != nil {
			yield(failed(StagePrepare, "", err))
			return
		}

		prepared, reused, errored := 0, 0, 0
		for _, file := range files {
			if ctx.Err() != nil {
				return
			}
			if !o.opts.Force {
				if _, ok, err := o.cache.Lookup(cache.StagePrepared, file.hash); err != nil {
					errored++
					if !yield(failed(StagePrepare, file.display(), err)) {
						return
					}
					continue
				} else if ok {
					reused++
					if !yield(skipped(StagePrepare, file.display(), "cached")) {
						return
					}
					continue
				}
			}

			if !yield(processing(StagePrepare, file.display())) {
				return
			}
			if err := o.prepareOne(ctx, file); err != nil {
				errored++
				if !yield(failed(StagePrepare, file.display(), err)) {
					return
				}
				continue
			}
			prepared++
			if !yield(completed(StagePrepare, file.display(), "")) {
				return
			}
		}
		yield(summary(StagePrepare, fmt.Sprintf("prepared %d, cached %d, errors %d", prepared, reused, errored)))
	}
}

// prepareOne transcodes into a temp file and commits it to the cache only
// when the output is non-empty, so an interrupted run never leaves a
// half-written artifact behind a cache hit.
func (o *Orchestrator) prepareOne(ctx context.Context, file inputFile) error {
	stageCtx := ctx
	if o.cfg.Processing.PrepareTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, time.Duration(o.cfg.Processing.PrepareTimeoutSeconds)*time.Second)
		defer cancel()
	}

	temp, err := os.CreateTemp("", "voxenote-prepare-*.wav")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tempPath := temp.Name()
	temp.Close()
	defer os.Remove(tempPath)

	if err := o.transcoder.Prepare(stageCtx, file.path, tempPath); err != nil {
		return err
	}
	if _, err := o.cache.Commit(cache.StagePrepared, file.hash, file.base, tempPath); err != nil {
		return err
	}
	return nil
}
