package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

// headRevision is resolved when no commit id is given.
const headRevision = "HEAD"

// GitRepository is an opened repository together with where it was found.
type GitRepository struct {
	// Depth is the number of parent steps from the starting directory to Root.
	Depth int
	Root  m.Path
	repo  *git.Repository
}

// GitAdapter gives read-only access to the history of a repository.
type GitAdapter interface {
	// LocateRepository walks up from dir and opens the first repository found.
	LocateRepository(ctx context.Context, dir m.Path) (*GitRepository, error)

	// ResolveCommit resolves a revision (hash, short hash, branch, tag). An empty
	// oid means HEAD.
	ResolveCommit(ctx context.Context, repo *GitRepository, oid string) (*object.Commit, error)

	// CommitTree returns the root tree of a commit.
	CommitTree(ctx context.Context, commit *object.Commit) (*object.Tree, error)

	// BlobAt returns the content of the file at a slash-separated path in tree.
	BlobAt(ctx context.Context, tree *object.Tree, path string) ([]byte, error)
}

// LocalGitAdapter is the go-git backed GitAdapter.
type LocalGitAdapter struct {
	fs SourceFSAdapter
}

// NewLocalGitAdapter constructs a LocalGitAdapter.
func NewLocalGitAdapter(fs SourceFSAdapter) *LocalGitAdapter {
	return &LocalGitAdapter{fs: fs}
}

// LocateRepository opens the nearest repository at or above dir.
func (a *LocalGitAdapter) LocateRepository(ctx context.Context, dir m.Path) (*GitRepository, error) {
	ancestors, err := a.fs.Ancestors(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	for depth, candidate := range ancestors {
		repo, err := git.PlainOpen(string(candidate))
		if err == nil {
			slog.Debug("located git repository", "root", candidate, "depth", depth)
			return &GitRepository{Depth: depth, Root: candidate, repo: repo}, nil
		}

		if !errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("open repository %s: %w", candidate, err)
		}
	}

	return nil, fmt.Errorf("git repository for %s: %w", dir, m.ErrNotFound)
}

// ResolveCommit finds the commit named by oid.
func (a *LocalGitAdapter) ResolveCommit(ctx context.Context, repo *GitRepository, oid string) (*object.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	revision := oid
	if revision == "" {
		revision = headRevision
	}

	hash, err := repo.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		slog.Error("failed to resolve revision", "revision", revision, "error", err)
		return nil, fmt.Errorf("commit %s: %w", revision, m.ErrNotFound)
	}

	commit, err := repo.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", hash, m.ErrNotFound)
	}

	return commit, nil
}

// CommitTree returns the root tree of commit.
func (a *LocalGitAdapter) CommitTree(ctx context.Context, commit *object.Commit) (*object.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of commit %s: %w", commit.Hash, err)
	}

	return tree, nil
}

// BlobAt reads a text file from tree.
func (a *LocalGitAdapter) BlobAt(ctx context.Context, tree *object.Tree, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("blob %s: %w", path, m.ErrNotFound)
		}

		return nil, fmt.Errorf("blob %s: %w", path, err)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", path, err)
	}

	if !utf8.ValidString(contents) {
		return nil, fmt.Errorf("blob %s is not valid UTF-8: %w", path, m.ErrParse)
	}

	return []byte(contents), nil
}
