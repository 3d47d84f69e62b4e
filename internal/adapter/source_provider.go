package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5/plumbing/object"

	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

const (
	moduleFileExt  = ".rs"
	moduleDirEntry = "mod.rs"
	rawIdentPrefix = "r#"
)

// errCrateRoot is returned when asked for the file of the crate root, which is
// the manifest's library entry and never resolved by module path.
var errCrateRoot = errors.New("the crate root has no module file")

// SourceProvider resolves a module path to the source text of that module.
// Implementations must be safe for concurrent use.
type SourceProvider interface {
	Read(ctx context.Context, modPath m.SourcePath) (m.SourceText, error)
}

// moduleCandidates lists the locations tried for modPath under root, in order:
// the single-file form `a/b.rs` first, then the directory form `a/b/mod.rs`.
// Raw identifiers map to their bare file name: `r#type` lives in `type.rs`.
func moduleCandidates(join func(elem ...string) string, root string, modPath m.SourcePath) []string {
	elems := make([]string, 0, len(modPath)+1)
	elems = append(elems, root)

	for _, name := range modPath {
		elems = append(elems, strings.TrimPrefix(name, rawIdentPrefix))
	}

	base := join(elems...)

	return []string{
		base + moduleFileExt,
		join(base, moduleDirEntry),
	}
}

// FSSourceProvider reads module files from the working tree.
type FSSourceProvider struct {
	fs   SourceFSAdapter
	root m.Path
}

// NewFSSourceProvider creates a provider resolving modules relative to root,
// the directory holding the crate's entry file.
func NewFSSourceProvider(fs SourceFSAdapter, root m.Path) *FSSourceProvider {
	return &FSSourceProvider{fs: fs, root: root}
}

// Read returns the first existing candidate file for modPath.
func (p *FSSourceProvider) Read(ctx context.Context, modPath m.SourcePath) (m.SourceText, error) {
	if modPath.IsRoot() {
		return m.SourceText{}, errCrateRoot
	}

	join := func(elem ...string) string {
		return string(p.fs.JoinPath(ctx, elem...))
	}

	candidates := moduleCandidates(join, string(p.root), modPath)
	for _, candidate := range candidates {
		ok, err := p.fs.Exists(ctx, m.Path(candidate))
		if err != nil {
			return m.SourceText{}, fmt.Errorf("stat %s: %w", candidate, err)
		}

		if !ok {
			continue
		}

		content, err := p.fs.ReadFile(ctx, m.Path(candidate))
		if err != nil {
			return m.SourceText{}, fmt.Errorf("read %s: %w", candidate, err)
		}

		slog.Debug("read module source", "module", modPath.String(), "file", candidate)

		return m.SourceText{Location: candidate, Content: content}, nil
	}

	return m.SourceText{}, &m.SourceNotFoundError{Path: modPath, Attempted: candidates}
}

// SnapshotSourceProvider reads module files from a historical commit tree.
type SnapshotSourceProvider struct {
	git  GitAdapter
	tree *object.Tree
	root string

	// go-git trees build their entry index lazily and are not safe for concurrent reads.
	mu sync.Mutex
}

// NewSnapshotSourceProvider creates a provider resolving modules under root, a
// slash-separated directory inside tree that already includes the repository prefix.
func NewSnapshotSourceProvider(git GitAdapter, tree *object.Tree, root string) *SnapshotSourceProvider {
	return &SnapshotSourceProvider{git: git, tree: tree, root: root}
}

// Read returns the first matching blob for modPath.
func (p *SnapshotSourceProvider) Read(ctx context.Context, modPath m.SourcePath) (m.SourceText, error) {
	if modPath.IsRoot() {
		return m.SourceText{}, errCrateRoot
	}

	candidates := moduleCandidates(path.Join, p.root, modPath)
	for _, candidate := range candidates {
		content, err := p.blob(ctx, candidate)
		if err == nil {
			slog.Debug("read module blob", "module", modPath.String(), "blob", candidate)
			return m.SourceText{Location: candidate, Content: content}, nil
		}

		if errors.Is(err, m.ErrParse) {
			return m.SourceText{}, fmt.Errorf("%w: %w", m.ErrNotFound, err)
		}

		if !errors.Is(err, m.ErrNotFound) {
			return m.SourceText{}, err
		}
	}

	return m.SourceText{}, &m.SourceNotFoundError{Path: modPath, Attempted: candidates}
}

func (p *SnapshotSourceProvider) blob(ctx context.Context, name string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.git.BlobAt(ctx, p.tree, name)
}
