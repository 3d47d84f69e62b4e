// Package domain contains the module tree resolution, public surface extraction
// and compatibility comparison at the heart of the checker.
package domain

import (
	"context"
	"fmt"
	"log/slog"

	"cratecheck.dev/pkg/cratecheck/internal/adapter"
	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

// Resolver reconstructs the module hierarchy of a crate from its root items.
type Resolver interface {
	// Resolve returns root and every public module reachable from it, root first.
	// A module path declared more than once, e.g. under alternative #[cfg]
	// attributes, keeps its first declaration. Any missing or unparsable module
	// file aborts the whole resolution.
	Resolve(ctx context.Context, provider adapter.SourceProvider, root m.ParsedModule) ([]m.ParsedModule, error)
}

type resolver struct {
	adapter.RustFileAdapter
}

// NewResolver creates a Resolver that parses out-of-line modules with rustAdapter.
func NewResolver(rustAdapter adapter.RustFileAdapter) Resolver {
	return &resolver{RustFileAdapter: rustAdapter}
}

func (r *resolver) Resolve(ctx context.Context, provider adapter.SourceProvider, root m.ParsedModule) ([]m.ParsedModule, error) {
	w := &walk{provider: provider, seen: map[string]bool{root.Path.Key(): true}}

	if err := r.visit(ctx, w, root); err != nil {
		return nil, err
	}

	return w.modules, nil
}

// walk carries the state of one Resolve call.
type walk struct {
	provider adapter.SourceProvider
	modules  []m.ParsedModule
	seen     map[string]bool
}

func (r *resolver) visit(ctx context.Context, w *walk, mod m.ParsedModule) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.modules = append(w.modules, mod)

	for _, item := range mod.Items {
		if item.Kind != m.ItemMod {
			continue
		}

		// Restricted submodules cannot be named from outside the crate.
		if classifyVisibility(item.Visibility) != m.VisPublic {
			slog.Debug("skipping non-public module", "module", mod.Path.Child(item.Name).String())
			continue
		}

		childPath := mod.Path.Child(item.Name)
		if w.seen[childPath.Key()] {
			slog.Debug("skipping duplicate module declaration", "module", childPath.String())
			continue
		}

		w.seen[childPath.Key()] = true

		child, err := r.load(ctx, w.provider, mod, item)
		if err != nil {
			return err
		}

		if err := r.visit(ctx, w, child); err != nil {
			return err
		}
	}

	return nil
}

func (r *resolver) load(ctx context.Context, provider adapter.SourceProvider, parent m.ParsedModule, item m.Item) (m.ParsedModule, error) {
	path := parent.Path.Child(item.Name)

	if item.Inline {
		return m.ParsedModule{Path: path, Location: parent.Location, Items: item.Children}, nil
	}

	text, err := provider.Read(ctx, path)
	if err != nil {
		return m.ParsedModule{}, fmt.Errorf("resolve module %s: %w", path, err)
	}

	items, err := r.Parse(ctx, text.Location, text.Content)
	if err != nil {
		return m.ParsedModule{}, fmt.Errorf("parse module %s: %w", path, err)
	}

	return m.ParsedModule{Path: path, Location: text.Location, Items: items}, nil
}
