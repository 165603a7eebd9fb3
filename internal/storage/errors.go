package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/valter-silva-au/projspec/pkg/models"
)

// Sentinel kinds for state file failures. Every error returned by this
// package is a *StateError carrying one of these kinds plus the file
// path it failed on; match with errors.Is.
var (
	// ErrNotFound indicates a missing state file or feature directory.
	ErrNotFound = errors.New("not found")

	// ErrParseError indicates malformed YAML. The StateError carries the
	// line number when the parser exposes one.
	ErrParseError = errors.New("parse error")

	// ErrEmptyContent indicates a state file that exists but holds no data.
	ErrEmptyContent = errors.New("empty content")

	// ErrSchemaMismatch indicates a state file whose top level is not a
	// mapping (e.g. a bare list or scalar).
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrIOFailure indicates a filesystem operation failed for a reason
	// other than the file being absent.
	ErrIOFailure = errors.New("io failure")
)

// Model-level kinds re-exported so callers can match every failure
// through this package.
var (
	ErrInvalidIdentifier = models.ErrInvalidIdentifier
	ErrValidationFailed  = models.ErrValidationFailed
)

// StateError describes a failure against a specific state file.
type StateError struct {
	Path   string
	Kind   error
	Line   int // 1-based line of a parse error, 0 when unknown
	Column int // 1-based column of a parse error, 0 when unknown
	Err    error
}

func (e *StateError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Path)
	sb.WriteString(": ")
	sb.WriteString(e.Kind.Error())
	if e.Line > 0 {
		fmt.Fprintf(&sb, " at line %d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&sb, ", column %d", e.Column)
		}
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Is matches the error's kind, so errors.Is(err, ErrNotFound) works
// without unwrapping.
func (e *StateError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// stateErr builds a StateError for path with the given kind and cause.
func stateErr(kind error, path string, cause error) *StateError {
	return &StateError{Path: path, Kind: kind, Err: cause}
}

// yamlLinePattern extracts the line number yaml.v3 embeds in its
// syntax error messages ("yaml: line 3: ...").
var yamlLinePattern = regexp.MustCompile(`yaml: line (\d+):`)

// parseErr builds a StateError for a YAML parse failure, recovering the
// line number from the parser's message when present.
func parseErr(path string, cause error) *StateError {
	e := &StateError{Path: path, Kind: ErrParseError, Err: cause}
	if cause != nil {
		if m := yamlLinePattern.FindStringSubmatch(cause.Error()); m != nil {
			if line, err := strconv.Atoi(m[1]); err == nil {
				e.Line = line
			}
		}
	}
	return e
}
