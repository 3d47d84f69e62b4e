// Package model defines the data structures shared by the compatibility checker.
package model

import "strings"

// Path represents a file system path.
type Path string

// CrateRoot is the display name of the empty SourcePath.
const CrateRoot = "crate"

// SourcePath locates a module inside the crate tree. The empty path is the crate root.
type SourcePath []string

// Child returns a new path extended by one segment. The receiver is not modified.
func (p SourcePath) Child(name string) SourcePath {
	child := make(SourcePath, 0, len(p)+1)
	child = append(child, p...)

	return append(child, name)
}

// Equal reports whether both paths hold the same segments in the same order.
func (p SourcePath) Equal(other SourcePath) bool {
	if len(p) != len(other) {
		return false
	}

	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}

	return true
}

// IsRoot reports whether p is the crate root.
func (p SourcePath) IsRoot() bool {
	return len(p) == 0
}

// Key returns a string usable as a map key. Distinct paths always yield distinct keys.
func (p SourcePath) Key() string {
	return strings.Join(p, "/")
}

// String renders the path the way it is written in Rust, e.g. crate::a::b.
func (p SourcePath) String() string {
	if p.IsRoot() {
		return CrateRoot
	}

	return CrateRoot + "::" + strings.Join(p, "::")
}

// SourceText is the content of one module file together with the location it was read from.
type SourceText struct {
	Location string
	Content  []byte
}

// Manifest holds the parts of a Cargo.toml the checker needs.
type Manifest struct {
	PackageName string
	LibPath     string
	IsWorkspace bool
}
