package model

import "fmt"

// VerdictKind is the outcome of comparing one old declaration or module.
type VerdictKind int

const (
	// Compatible means the declaration keeps its shape. Never emitted, only counted.
	Compatible VerdictKind = iota
	// Incompatible means the declaration exists but its shape breaks callers.
	Incompatible
	// Missing means no declaration with the same identity key exists anymore.
	Missing
	// ModuleMissing means the whole module path is gone.
	ModuleMissing
)

func (k VerdictKind) String() string {
	switch k {
	case Compatible:
		return "compatible"
	case Incompatible:
		return "incompatible"
	case Missing:
		return "missing"
	case ModuleMissing:
		return "module missing"
	default:
		return "unknown"
	}
}

// Verdict is one finding. Old is nil for ModuleMissing, New is set only for Incompatible.
type Verdict struct {
	Kind VerdictKind
	Path SourcePath
	Old  Declaration
	New  Declaration
}

// Key returns the identity key of the old declaration; zero for ModuleMissing.
func (v Verdict) Key() Key {
	if v.Old == nil {
		return Key{}
	}

	return KeyOf(v.Old)
}

// Line renders the verdict as a single report line.
func (v Verdict) Line() string {
	switch v.Kind {
	case ModuleMissing:
		return fmt.Sprintf("Uncompatible: %s module does not exist", v.Path)
	case Missing:
		return fmt.Sprintf("Uncompatible: %s::%s does not exist", v.Path, v.Key())
	default:
		return fmt.Sprintf("Uncompatible: %s::%s", v.Path, v.Key())
	}
}

// ModuleStats counts verdicts of one old module.
type ModuleStats struct {
	Path         SourcePath
	Compatible   int
	Incompatible int
	Missing      int
	Absent       bool
}

// Comparison is the result of comparing two snapshots.
type Comparison struct {
	// Verdicts holds every non-compatible verdict in old-tree order.
	Verdicts []Verdict
	// Modules holds per-module counts in old-tree order.
	Modules []ModuleStats
}

// CompatibleCount returns the number of declarations that kept their shape.
func (c Comparison) CompatibleCount() int {
	total := 0
	for _, s := range c.Modules {
		total += s.Compatible
	}

	return total
}
