package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"
	"golang.org/x/sync/errgroup"

	"cratecheck.dev/pkg/cratecheck/internal/adapter"
	"cratecheck.dev/pkg/cratecheck/internal/controller"
	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

// CheckArgs contains the arguments of one compatibility run.
type CheckArgs struct {
	// Dir is the working directory; the manifest and repository are searched from here.
	Dir m.Path
	// Oid names the historical commit. Empty means HEAD.
	Oid string
	// Summary appends per-module counts to the report.
	Summary bool
	// Diff prints the old and new shape of each incompatible declaration.
	Diff bool
}

// Workflow runs the compatibility check between history and the working tree.
type Workflow interface {
	// Analyze builds both snapshots and compares them without printing anything.
	Analyze(ctx context.Context, args CheckArgs) (m.Comparison, error)
	// Check analyzes and reports the findings through the UI.
	Check(ctx context.Context, args CheckArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.ManifestAdapter
	adapter.GitAdapter
	adapter.RustFileAdapter
	controller.UI
	Resolver
	Extractor
	Comparator
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	manifestAdapter adapter.ManifestAdapter,
	gitAdapter adapter.GitAdapter,
	rustAdapter adapter.RustFileAdapter,
	ui controller.UI,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		ManifestAdapter: manifestAdapter,
		GitAdapter:      gitAdapter,
		RustFileAdapter: rustAdapter,
		UI:              ui,
		Resolver:        NewResolver(rustAdapter),
		Extractor:       NewExtractor(),
		Comparator:      NewComparator(),
	}
}

func (w *workflow) Check(ctx context.Context, args CheckArgs) error {
	result, err := w.Analyze(ctx, args)
	if err != nil {
		return err
	}

	var options []controller.DisplayOption
	if args.Diff {
		options = append(options, controller.WithDiff())
	}

	if err := w.DisplayVerdicts(ctx, result, options...); err != nil {
		return fmt.Errorf("display findings: %w", err)
	}

	if args.Summary {
		if err := w.DisplaySummary(ctx, result); err != nil {
			return fmt.Errorf("display summary: %w", err)
		}
	}

	return nil
}

func (w *workflow) Analyze(ctx context.Context, args CheckArgs) (m.Comparison, error) {
	dir := args.Dir
	if dir == "" {
		dir = "."
	}

	manifestDepth, manifestPath, err := w.FindManifest(ctx, dir)
	if err != nil {
		return m.Comparison{}, fmt.Errorf("find manifest: %w", err)
	}

	manifest, err := w.ReadManifest(ctx, manifestPath)
	if err != nil {
		return m.Comparison{}, err
	}

	if manifest.IsWorkspace {
		return m.Comparison{}, fmt.Errorf("%s is a workspace manifest: %w", manifestPath, m.ErrUnsupported)
	}

	repo, err := w.LocateRepository(ctx, dir)
	if err != nil {
		return m.Comparison{}, fmt.Errorf("locate repository: %w", err)
	}

	// A repository below the manifest has no mapping from the live layout to history.
	if repo.Depth < manifestDepth {
		return m.Comparison{}, fmt.Errorf("repository %s is nested below manifest %s: %w",
			repo.Root, manifestPath, m.ErrUnsupported)
	}

	manifestDir := m.Path(filepath.Dir(string(manifestPath)))

	prefix, err := w.historyPrefix(ctx, repo.Root, manifestDir)
	if err != nil {
		return m.Comparison{}, err
	}

	commit, err := w.ResolveCommit(ctx, repo, args.Oid)
	if err != nil {
		return m.Comparison{}, fmt.Errorf("resolve commit: %w", err)
	}

	tree, err := w.CommitTree(ctx, commit)
	if err != nil {
		return m.Comparison{}, err
	}

	slog.Info("comparing snapshots", "commit", commit.Hash.String(), "manifest", manifestPath, "prefix", prefix)

	var oldModules, newModules []m.Module

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		mods, err := w.workingTreeSnapshot(groupCtx, manifestDir, manifest)
		if err != nil {
			return fmt.Errorf("working tree: %w", err)
		}

		newModules = mods

		return nil
	})

	group.Go(func() error {
		mods, err := w.historySnapshot(groupCtx, tree, prefix)
		if err != nil {
			return fmt.Errorf("commit %s: %w", commit.Hash, err)
		}

		oldModules = mods

		return nil
	})

	if err := group.Wait(); err != nil {
		return m.Comparison{}, err
	}

	return w.Compare(oldModules, newModules), nil
}

// historyPrefix is the slash-separated path of the manifest directory inside the
// repository, empty when both coincide.
func (w *workflow) historyPrefix(ctx context.Context, repoRoot, manifestDir m.Path) (string, error) {
	rel, err := w.RelPath(ctx, repoRoot, manifestDir)
	if err != nil {
		return "", fmt.Errorf("relate %s to %s: %w", manifestDir, repoRoot, err)
	}

	prefix := filepath.ToSlash(string(rel))
	if prefix == "." {
		return "", nil
	}

	if prefix == ".." || strings.HasPrefix(prefix, "../") {
		return "", fmt.Errorf("manifest %s is outside repository %s: %w", manifestDir, repoRoot, m.ErrUnsupported)
	}

	return prefix, nil
}

func (w *workflow) workingTreeSnapshot(ctx context.Context, manifestDir m.Path, manifest m.Manifest) ([]m.Module, error) {
	entry := w.JoinPath(ctx, string(manifestDir), filepath.FromSlash(manifest.LibPath))

	content, err := w.ReadFile(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("read crate root: %w", err)
	}

	provider := adapter.NewFSSourceProvider(w.SourceFSAdapter, m.Path(filepath.Dir(string(entry))))

	return w.snapshot(ctx, provider, string(entry), content)
}

func (w *workflow) historySnapshot(ctx context.Context, tree *object.Tree, prefix string) ([]m.Module, error) {
	manifestBlob, err := w.BlobAt(ctx, tree, path.Join(prefix, adapter.ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	manifest, err := w.ParseManifest(ctx, manifestBlob)
	if err != nil {
		return nil, err
	}

	if manifest.IsWorkspace {
		return nil, fmt.Errorf("historical manifest is a workspace manifest: %w", m.ErrUnsupported)
	}

	entry := path.Join(prefix, manifest.LibPath)

	content, err := w.BlobAt(ctx, tree, entry)
	if err != nil {
		return nil, fmt.Errorf("read crate root: %w", err)
	}

	provider := adapter.NewSnapshotSourceProvider(w.GitAdapter, tree, path.Dir(entry))

	return w.snapshot(ctx, provider, entry, content)
}

// snapshot parses the crate root, resolves the module tree and extracts every module.
func (w *workflow) snapshot(ctx context.Context, provider adapter.SourceProvider, entry string, content []byte) ([]m.Module, error) {
	items, err := w.Parse(ctx, entry, content)
	if err != nil {
		return nil, fmt.Errorf("parse crate root: %w", err)
	}

	parsed, err := w.Resolve(ctx, provider, m.ParsedModule{Location: entry, Items: items})
	if err != nil {
		return nil, err
	}

	slog.Debug("resolved module tree", "entry", entry, "modules", len(parsed))

	return w.ExtractModules(parsed), nil
}
