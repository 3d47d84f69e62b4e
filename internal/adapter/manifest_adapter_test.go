package adapter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

func TestLocalManifestAdapter_FindManifest(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "Cargo.toml"), "[package]\nname = \"demo\"\n")
	nested := filepath.Join(root, "src", "net")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	a := NewLocalManifestAdapter(NewLocalSourceFSAdapter())

	tests := []struct {
		name  string
		dir   string
		depth int
	}{
		{"in manifest directory", root, 0},
		{"two levels below", nested, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			depth, path, err := a.FindManifest(t.Context(), m.Path(tt.dir))
			require.NoError(t, err)
			assert.Equal(t, tt.depth, depth)
			assert.Equal(t, m.Path(filepath.Join(root, "Cargo.toml")), path)
		})
	}
}

func TestLocalManifestAdapter_FindManifest_SkipsDirectories(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "Cargo.toml"), "[package]\nname = \"outer\"\n")
	inner := filepath.Join(root, "inner")
	require.NoError(t, os.MkdirAll(filepath.Join(inner, "Cargo.toml"), 0o755))

	a := NewLocalManifestAdapter(NewLocalSourceFSAdapter())

	depth, path, err := a.FindManifest(t.Context(), m.Path(inner))
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
	assert.Equal(t, m.Path(filepath.Join(root, "Cargo.toml")), path)
}

func TestLocalManifestAdapter_ParseManifest(t *testing.T) {
	a := NewLocalManifestAdapter(NewLocalSourceFSAdapter())

	tests := []struct {
		name    string
		content string
		want    m.Manifest
	}{
		{
			name:    "default library path",
			content: "[package]\nname = \"demo\"\nversion = \"0.1.0\"\n",
			want:    m.Manifest{PackageName: "demo", LibPath: "src/lib.rs"},
		},
		{
			name:    "custom library path",
			content: "[package]\nname = \"demo\"\n\n[lib]\npath = \"lib/demo.rs\"\n",
			want:    m.Manifest{PackageName: "demo", LibPath: "lib/demo.rs"},
		},
		{
			name:    "empty workspace table",
			content: "[workspace]\n",
			want:    m.Manifest{LibPath: "src/lib.rs", IsWorkspace: true},
		},
		{
			name:    "workspace with members",
			content: "[workspace]\nmembers = [\"a\", \"b\"]\n",
			want:    m.Manifest{LibPath: "src/lib.rs", IsWorkspace: true},
		},
		{
			name:    "dependencies are ignored",
			content: "[package]\nname = \"demo\"\n\n[dependencies]\nserde = { version = \"1\", features = [\"derive\"] }\n",
			want:    m.Manifest{PackageName: "demo", LibPath: "src/lib.rs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.ParseManifest(t.Context(), []byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("malformed toml", func(t *testing.T) {
		_, err := a.ParseManifest(t.Context(), []byte("[package\nname = "))
		require.Error(t, err)
		assert.True(t, errors.Is(err, m.ErrParse))
	})
}

func TestLocalManifestAdapter_ReadManifest(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Cargo.toml")
	writeTestFile(t, path, "[package]\nname = \"demo\"\n\n[lib]\npath = \"src/main_lib.rs\"\n")

	a := NewLocalManifestAdapter(NewLocalSourceFSAdapter())

	got, err := a.ReadManifest(t.Context(), m.Path(path))
	require.NoError(t, err)
	assert.Equal(t, "src/main_lib.rs", got.LibPath)

	_, err = a.ReadManifest(t.Context(), m.Path(filepath.Join(root, "missing", "Cargo.toml")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, m.ErrNotFound))
}
