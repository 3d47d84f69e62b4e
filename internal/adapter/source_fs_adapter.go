// Package adapter contains the infrastructure the compatibility checker talks to:
// the live filesystem, git history, the Rust parser and the Cargo manifest.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations the domain layer relies on
// when reading the working tree. It hides direct `os` access so the workflow
// logic can be tested without touching the disk.
type SourceFSAdapter interface {
	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// Exists reports whether a regular file exists at path.
	Exists(ctx context.Context, path m.Path) (bool, error)

	// Ancestors returns the absolute form of start followed by each of its parents,
	// ending at the filesystem root. Index i is i levels above start.
	Ancestors(ctx context.Context, start m.Path) ([]m.Path, error)

	// RelPath returns the relative path from base to target.
	RelPath(ctx context.Context, base, target m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(ctx context.Context, elem ...string) m.Path
}

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G304 - path is derived from the crate layout being checked
	content, err := os.ReadFile(string(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, m.ErrNotFound)
	}

	return content, err
}

// Exists reports whether path names an existing regular file.
func (a *LocalSourceFSAdapter) Exists(ctx context.Context, path m.Path) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(string(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	return !info.IsDir(), nil
}

// Ancestors lists start and all of its parent directories.
func (a *LocalSourceFSAdapter) Ancestors(ctx context.Context, start m.Path) ([]m.Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(string(start))
	if err != nil {
		return nil, err
	}

	var ancestors []m.Path

	for {
		ancestors = append(ancestors, m.Path(dir))

		parent := filepath.Dir(dir)
		if parent == dir {
			return ancestors, nil
		}

		dir = parent
	}
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(_ context.Context, base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(_ context.Context, elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
