// Package pipeline drives recordings through the stage sequence: collect,
// prepare, trim, transcribe, analyze, organize. Each stage method returns a
// lazy event sequence; events are produced only as the caller consumes them,
// and one file's failure never aborts the batch.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vasd85/voxenote/internal/cache"
	"github.com/vasd85/voxenote/internal/config"
	"github.com/vasd85/voxenote/internal/identity"
	"github.com/vasd85/voxenote/internal/logging"
	"github.com/vasd85/voxenote/internal/media"
	"github.com/vasd85/voxenote/internal/organize"
	"github.com/vasd85/voxenote/internal/services/llm"
	"github.com/vasd85/voxenote/internal/services/vad"
	"github.com/vasd85/voxenote/internal/services/whisper"
	"github.com/vasd85/voxenote/internal/state"
)

// Transcoder produces normalized and trimmed waveforms.
type Transcoder interface {
	Prepare(ctx context.Context, source, dest string) error
	Render(ctx context.Context, source, dest string, intervals []vad.Interval) error
}

// Analyzer turns transcript text into a structured analysis.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (llm.Analysis, error)
}

// Archiver writes the final note and archives the audio.
type Archiver interface {
	Store(note organize.Note, audioPath string) (organize.Result, error)
}

// Options adjust a run without changing configuration.
type Options struct {
	// Force reruns stages even when caches or processed entries exist. At the
	// final stage it also purges prior entries before reattempting.
	Force bool
	// DryRun makes the trim stage report detected intervals without writing
	// or caching any artifact.
	DryRun bool
}

// Orchestrator owns the collaborators and state shared by all stages.
type Orchestrator struct {
	cfg        *config.Config
	store      *state.Store
	cache      cache.Store
	transcoder Transcoder
	detector   vad.Detector
	prober     media.Prober
	transcribe whisper.Transcriber
	analyzer   Analyzer
	archiver   Archiver
	logger     *slog.Logger
	opts       Options
}

// New wires an orchestrator from configuration and collaborators.
func New(
	cfg *config.Config,
	store *state.Store,
	cacheStore cache.Store,
	transcoder Transcoder,
	detector vad.Detector,
	prober media.Prober,
	transcriber whisper.Transcriber,
	analyzer Analyzer,
	archiver Archiver,
	logger *slog.Logger,
	opts Options,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		cache:      cacheStore,
		transcoder: transcoder,
		detector:   detector,
		prober:     prober,
		transcribe: transcriber,
		analyzer:   analyzer,
		archiver:   archiver,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		opts:       opts,
	}
}

// inputFile is one recording in the ingest area.
type inputFile struct {
	path string
	hash string
	// base is the file name with any hash prefix stripped.
	base string
}

func (f inputFile) display() string {
	return f.base
}

// discoverInput lists supported recordings in the ingest directory in stable
// name order, resolving each file's content hash. Files named with a hash
// prefix reuse it instead of re-reading the bytes.
func (o *Orchestrator) discoverInput() ([]inputFile, error) {
	entries, err := os.ReadDir(o.cfg.Paths.InputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []inputFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !o.cfg.SupportsFormat(filepath.Ext(name)) {
			continue
		}
		path := filepath.Join(o.cfg.Paths.InputDir, name)

		var hash string
		if prefix, _, ok := cache.SplitHashPrefix(name); ok {
			hash = prefix
		} else {
			hash, err = identity.Hash(path)
			if err != nil {
				return nil, fmt.Errorf("hash %s: %w", name, err)
			}
		}
		files = append(files, inputFile{
			path: path,
			hash: hash,
			base: cache.StripHashPrefix(name),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].base < files[j].base })
	return files, nil
}

// resolveSource picks the waveform later stages should read for a file:
// trimmed beats prepared beats the original. The choice is made fresh on
// every call, never cached.
func (o *Orchestrator) resolveSource(file inputFile) (path, label string, err error) {
	if trimmed, ok, err := o.cache.Lookup(cache.StageTrimmed, file.hash); err != nil {
		return "", "", err
	} else if ok {
		return trimmed, "trimmed", nil
	}
	if prepared, ok, err := o.cache.Lookup(cache.StagePrepared, file.hash); err != nil {
		return "", "", err
	} else if ok {
		return prepared, "prepared", nil
	}
	return file.path, "original", nil
}

// walkSource yields supported files under root. Non-recursive scans stop at
// the first directory level.
func walkSource(root string, recursive bool, supported func(string) bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if supported(filepath.Ext(d.Name())) && !strings.HasPrefix(d.Name(), ".") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
