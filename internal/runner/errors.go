package runner

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when an operation requires ConfigureEnv or
// CreateEnv to have been called first. It is fatal to the calling phase and
// never retried.
var ErrNotConfigured = errors.New("environment path is not configured")

// PathConflictError is returned by CreateEnv when the target path exists
// but is not a directory.
type PathConflictError struct {
	Path string
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("unable to create environment %s: path exists and is not a directory", e.Path)
}

// MissingArtifactError is returned by Install when the requirement file is
// absent, which indicates a skipped or out-of-order phase.
type MissingArtifactError struct {
	Path string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("%s does not exist", e.Path)
}

// VersionParseError is returned by Version when the expected version token
// is absent from the tool output.
type VersionParseError struct {
	Output string
}

func (e *VersionParseError) Error() string {
	return fmt.Sprintf("unable to parse pip version from output: %q", e.Output)
}
