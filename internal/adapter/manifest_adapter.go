package adapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pelletier/go-toml/v2"

	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

const (
	// ManifestFileName is the name of the Cargo manifest.
	ManifestFileName = "Cargo.toml"

	defaultLibPath = "src/lib.rs"
)

// ManifestAdapter locates and decodes Cargo manifests.
type ManifestAdapter interface {
	// FindManifest walks up from dir and returns the depth and path of the first manifest.
	FindManifest(ctx context.Context, dir m.Path) (int, m.Path, error)

	// ReadManifest reads and decodes the manifest at path.
	ReadManifest(ctx context.Context, path m.Path) (m.Manifest, error)

	// ParseManifest decodes manifest content obtained elsewhere, e.g. from history.
	ParseManifest(ctx context.Context, content []byte) (m.Manifest, error)
}

type cargoManifest struct {
	Package *struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Lib *struct {
		Path string `toml:"path"`
	} `toml:"lib"`
}

// LocalManifestAdapter reads Cargo.toml files with go-toml.
type LocalManifestAdapter struct {
	fs SourceFSAdapter
}

// NewLocalManifestAdapter constructs a LocalManifestAdapter.
func NewLocalManifestAdapter(fs SourceFSAdapter) *LocalManifestAdapter {
	return &LocalManifestAdapter{fs: fs}
}

// FindManifest searches dir and its parents for Cargo.toml.
func (a *LocalManifestAdapter) FindManifest(ctx context.Context, dir m.Path) (int, m.Path, error) {
	ancestors, err := a.fs.Ancestors(ctx, dir)
	if err != nil {
		return 0, "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	for depth, candidate := range ancestors {
		manifest := a.fs.JoinPath(ctx, string(candidate), ManifestFileName)

		ok, err := a.fs.Exists(ctx, manifest)
		if err != nil {
			return 0, "", fmt.Errorf("stat %s: %w", manifest, err)
		}

		if ok {
			slog.Debug("located manifest", "path", manifest, "depth", depth)
			return depth, manifest, nil
		}
	}

	return 0, "", fmt.Errorf("%s for %s: %w", ManifestFileName, dir, m.ErrNotFound)
}

// ReadManifest loads and decodes the manifest at path.
func (a *LocalManifestAdapter) ReadManifest(ctx context.Context, path m.Path) (m.Manifest, error) {
	content, err := a.fs.ReadFile(ctx, path)
	if err != nil {
		return m.Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	manifest, err := a.ParseManifest(ctx, content)
	if err != nil {
		return m.Manifest{}, fmt.Errorf("%s: %w", path, err)
	}

	return manifest, nil
}

// ParseManifest decodes manifest content.
func (a *LocalManifestAdapter) ParseManifest(ctx context.Context, content []byte) (m.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return m.Manifest{}, err
	}

	var raw cargoManifest
	if err := toml.Unmarshal(content, &raw); err != nil {
		return m.Manifest{}, fmt.Errorf("decode manifest: %w: %w", m.ErrParse, err)
	}

	// Presence of the table is what matters, even when it is empty.
	var tables map[string]any
	if err := toml.Unmarshal(content, &tables); err != nil {
		return m.Manifest{}, fmt.Errorf("decode manifest: %w: %w", m.ErrParse, err)
	}

	_, isWorkspace := tables["workspace"]

	manifest := m.Manifest{
		LibPath:     defaultLibPath,
		IsWorkspace: isWorkspace,
	}

	if raw.Package != nil {
		manifest.PackageName = raw.Package.Name
	}

	if raw.Lib != nil && raw.Lib.Path != "" {
		manifest.LibPath = raw.Lib.Path
	}

	return manifest, nil
}
