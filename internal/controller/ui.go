// Package controller provides output adapters for displaying compatibility findings.
package controller

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

// DisplayOption is a functional option for DisplayVerdicts.
type DisplayOption func(*DisplayConfig)

// DisplayConfig holds per-call display settings.
type DisplayConfig struct {
	diff bool
}

// WithDiff prints a unified diff of the old and new shape under each incompatible finding.
func WithDiff() DisplayOption {
	return func(c *DisplayConfig) {
		c.diff = true
	}
}

// UI defines how findings are rendered.
type UI interface {
	// DisplayVerdicts prints one line per finding. No findings print nothing.
	DisplayVerdicts(ctx context.Context, result m.Comparison, options ...DisplayOption) error
	// DisplaySummary prints per-module counts.
	DisplaySummary(ctx context.Context, result m.Comparison) error
}

// NewUI returns the UI for cmd. Styling is enabled only when writing to a terminal.
func NewUI(cmd *cobra.Command, isTTY bool) UI {
	return NewSimpleUI(cmd, isTTY)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
