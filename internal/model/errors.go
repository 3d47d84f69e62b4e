package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a manifest, repository, commit, blob or module source is missing.
	ErrNotFound = errors.New("not found")
	// ErrParse is returned when source text cannot be parsed or decoded.
	ErrParse = errors.New("parse failure")
	// ErrUnsupported is returned for project layouts the checker refuses to handle.
	ErrUnsupported = errors.New("unsupported configuration")
)

// SourceNotFoundError reports a module whose file exists under none of the naming conventions.
type SourceNotFoundError struct {
	Path      SourcePath
	Attempted []string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("module %s not found: tried %s", e.Path, strings.Join(e.Attempted, ", "))
}

// Is makes SourceNotFoundError match ErrNotFound.
func (e *SourceNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
