package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// String returns the hex-encoded sha256 digest of s.
func String(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// File returns the hex-encoded sha256 digest of the file contents at path.
func File(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is workspace-derived
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
