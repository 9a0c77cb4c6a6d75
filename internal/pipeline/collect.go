package pipeline

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/vasd85/voxenote/internal/cache"
	"github.com/vasd85/voxenote/internal/collect"
	"github.com/vasd85/voxenote/internal/fileutil"
	"github.com/vasd85/voxenote/internal/identity"
	"github.com/vasd85/voxenote/internal/logging"
	"github.com/vasd85/voxenote/internal/state"
)

// Collect copies new recordings from the planned sources into the ingest
// directory under hash-prefixed names, preserving container metadata before
// any transcoding can strip it.
func (o *Orchestrator) Collect(ctx context.Context, plans []collect.Plan) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		index, err := o.store.LoadIndex()
		if err != nil {
			yield(failed(StageCollect, "", err))
			return
		}
		collectedIndex, err := o.store.LoadCollectedIndex()
		if err != nil {
			yield(failed(StageCollect, "", err))
			return
		}

		copied, skippedCount, errored := 0, 0, 0
		for _, plan := range plans {
			if ctx.Err() != nil {
				return
			}
			if !yield(info(StageCollect, fmt.Sprintf("scanning %s (recursive=%t, %s)", plan.Path, plan.Recursive, plan.Reason))) {
				return
			}
			files, err := walkSource(plan.Path, plan.Recursive, o.cfg.SupportsFormat)
			if err != nil {
				errored++
				if !yield(failed(StageCollect, plan.Path, err)) {
					return
				}
				continue
			}

			for _, source := range files {
				if ctx.Err() != nil {
					return
				}
				outcome, err := o.collectOne(ctx, source, index, collectedIndex)
				switch {
				case err != nil:
					errored++
					if !yield(failed(StageCollect, filepath.Base(source), err)) {
						return
					}
				case outcome == "":
					copied++
					if !yield(completed(StageCollect, filepath.Base(source), "")) {
						return
					}
				default:
					skippedCount++
					if !yield(skipped(StageCollect, filepath.Base(source), outcome)) {
						return
					}
				}
			}
		}
		yield(summary(StageCollect, fmt.Sprintf("collected %d, skipped %d, errors %d", copied, skippedCount, errored)))
	}
}

// collectOne ingests a single file. The returned string is a skip reason;
// empty means the file was copied.
func (o *Orchestrator) collectOne(ctx context.Context, source string, index map[string]state.Entry, collectedIndex map[string]state.Collected) (string, error) {
	hash, err := identity.Hash(source)
	if err != nil {
		return "", err
	}
	if entry, ok := index[hash]; ok {
		return "already processed (" + string(entry.Outcome) + ")", nil
	}

	base := cache.StripHashPrefix(filepath.Base(source))
	target := filepath.Join(o.cfg.Paths.InputDir, hash+"_"+base)
	if fileutil.NonEmptyFile(target) {
		return "already collected", nil
	}
	if prior, ok := collectedIndex[hash]; ok && fileutil.NonEmptyFile(prior.TargetPath) {
		return "already collected", nil
	}

	if err := os.MkdirAll(o.cfg.Paths.InputDir, 0o755); err != nil {
		return "", fmt.Errorf("create input dir: %w", err)
	}
	if err := fileutil.CopyFileVerified(source, target); err != nil {
		return "", err
	}

	o.preserveMetadata(ctx, source, hash)

	info, err := os.Stat(target)
	var size int64
	if err == nil {
		size = info.Size()
	}
	if err := o.store.AppendCollected(state.Collected{
		CollectedAt:  time.Now().UTC(),
		OriginalHash: hash,
		SourcePath:   source,
		TargetPath:   target,
		SizeBytes:    size,
	}); err != nil {
		return "", err
	}
	collectedIndex[hash] = state.Collected{OriginalHash: hash, TargetPath: target}
	return "", nil
}

// preserveMetadata probes the source container and stores what it finds.
// Probe failures are logged, not fatal: a missing timestamp degrades the note
// header, nothing else.
func (o *Orchestrator) preserveMetadata(ctx context.Context, source, hash string) {
	if o.prober == nil {
		return
	}
	probed, err := o.prober.Probe(ctx, source)
	if err != nil {
		o.logger.Warn("metadata probe failed",
			logging.String("source", source),
			logging.Error(err))
		return
	}

	recordedAt := probed.RecordedAt
	label := probed.RecordedAtSource
	if recordedAt == "" {
		if info, statErr := os.Stat(source); statErr == nil {
			recordedAt = info.ModTime().UTC().Format(time.RFC3339)
			label = "mtime"
		}
	}
	if err := o.store.SaveMetadata(state.Metadata{
		SavedAt:         time.Now().UTC(),
		OriginalHash:    hash,
		OriginalName:    cache.StripHashPrefix(filepath.Base(source)),
		RecordedAt:      recordedAt,
		RecordedAtLabel: label,
		DurationSeconds: probed.DurationSeconds,
	}); err != nil {
		o.logger.Warn("saving metadata failed",
			logging.String("source", source),
			logging.Error(err))
	}
}
