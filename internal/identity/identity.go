package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
)

// chunkSize bounds how much of a file is held in memory while hashing.
const chunkSize = 64 * 1024

var digestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Hash returns the hex-encoded SHA-256 digest of the file at path.
// The digest depends only on the file's bytes, never on its name or
// location, so renamed or relocated files keep their identity.
func Hash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("identity: open %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(hasher, file, buf); err != nil {
		return "", fmt.Errorf("identity: read %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// IsDigest reports whether value looks like a digest produced by Hash.
func IsDigest(value string) bool {
	return digestPattern.MatchString(value)
}
