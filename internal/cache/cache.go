// Package cache stores intermediate stage artifacts keyed by the content hash
// of the original recording. An artifact survives renames and re-collection of
// the source file because the key never depends on the path.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vasd85/voxenote/internal/fileutil"
	"github.com/vasd85/voxenote/internal/identity"
	"github.com/vasd85/voxenote/internal/textutil"
)

// Stage identifies one artifact cache.
type Stage string

const (
	StagePrepared Stage = "prepared"
	StageTrimmed  Stage = "trimmed"
)

var hashPrefixPattern = regexp.MustCompile(`^([0-9a-f]{64})_(.+)$`)

// StripHashPrefix removes a leading content-hash prefix from a cache file
// name. Names without the prefix come back unchanged, so the call is
// idempotent.
func StripHashPrefix(name string) string {
	if m := hashPrefixPattern.FindStringSubmatch(name); m != nil {
		return m[2]
	}
	return name
}

// SplitHashPrefix returns the hash and remainder of a cache file name, or
// ok=false when the name carries no hash prefix.
func SplitHashPrefix(name string) (hash, rest string, ok bool) {
	if m := hashPrefixPattern.FindStringSubmatch(name); m != nil {
		return m[1], m[2], true
	}
	return "", name, false
}

// Store resolves and persists stage artifacts.
type Store interface {
	// Path returns the canonical artifact path for hash derived from the
	// original file name. The file may not exist yet.
	Path(stage Stage, hash, originalName string) string
	// Lookup returns an existing non-empty artifact for hash, if any.
	Lookup(stage Stage, hash string) (string, bool, error)
	// Commit moves a finished artifact from its temporary location into the
	// cache and returns the final path.
	Commit(stage Stage, hash, originalName, tempPath string) (string, error)
	// Remove drops every artifact for hash from the stage cache.
	Remove(stage Stage, hash string) error
}

// DirStore keeps each stage cache in its own subdirectory of root, with files
// named <hash>_<slug>.wav.
type DirStore struct {
	root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (s *DirStore) stageDir(stage Stage) string {
	return filepath.Join(s.root, string(stage))
}

func (s *DirStore) Path(stage Stage, hash, originalName string) string {
	base := StripHashPrefix(filepath.Base(originalName))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	slug := textutil.SlugN(stem, "audio", 60)
	return filepath.Join(s.stageDir(stage), fmt.Sprintf("%s_%s.wav", hash, slug))
}

// Lookup scans the stage directory for artifacts carrying the hash prefix.
// When several exist the one with the newest modification time wins; empty
// files are ignored.
func (s *DirStore) Lookup(stage Stage, hash string) (string, bool, error) {
	if !identity.IsDigest(hash) {
		return "", false, fmt.Errorf("lookup requires a content hash, got %q", hash)
	}
	matches, err := filepath.Glob(filepath.Join(s.stageDir(stage), hash+"_*"))
	if err != nil {
		return "", false, fmt.Errorf("scan %s cache: %w", stage, err)
	}

	var (
		best     string
		bestTime int64
		found    bool
	)
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", false, fmt.Errorf("stat cached artifact: %w", err)
		}
		if info.IsDir() || info.Size() == 0 {
			continue
		}
		if mod := info.ModTime().UnixNano(); !found || mod > bestTime {
			best, bestTime, found = match, mod, true
		}
	}
	return best, found, nil
}

func (s *DirStore) Commit(stage Stage, hash, originalName, tempPath string) (string, error) {
	if !fileutil.NonEmptyFile(tempPath) {
		return "", fmt.Errorf("refusing to cache empty artifact %s", tempPath)
	}
	target := s.Path(stage, hash, originalName)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create %s cache: %w", stage, err)
	}
	if err := fileutil.MoveFile(tempPath, target); err != nil {
		return "", fmt.Errorf("commit %s artifact: %w", stage, err)
	}
	return target, nil
}

func (s *DirStore) Remove(stage Stage, hash string) error {
	matches, err := filepath.Glob(filepath.Join(s.stageDir(stage), hash+"_*"))
	if err != nil {
		return fmt.Errorf("scan %s cache: %w", stage, err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove cached artifact: %w", err)
		}
	}
	return nil
}
