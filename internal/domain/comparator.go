package domain

import (
	"log/slog"

	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

// Comparator decides, per old declaration, whether the new snapshot still
// offers it with a compatible shape.
//
// Generic parameters, trait implementations and attributes are not compared.
type Comparator interface {
	// Compare matches modules by exact path and declarations by identity key.
	// Only the first module per path takes part on either side. The result
	// lists every non-compatible verdict in old-tree order.
	Compare(oldModules, newModules []m.Module) m.Comparison
}

type comparator struct{}

// NewComparator creates a Comparator.
func NewComparator() Comparator {
	return &comparator{}
}

func (c *comparator) Compare(oldModules, newModules []m.Module) m.Comparison {
	byPath := make(map[string]m.Module, len(newModules))
	for _, mod := range newModules {
		if _, dup := byPath[mod.Path.Key()]; dup {
			continue
		}

		byPath[mod.Path.Key()] = mod
	}

	compared := make(map[string]bool, len(oldModules))

	result := m.Comparison{
		Verdicts: []m.Verdict{},
		Modules:  make([]m.ModuleStats, 0, len(oldModules)),
	}

	for _, oldMod := range oldModules {
		if compared[oldMod.Path.Key()] {
			slog.Debug("skipping duplicate module", "module", oldMod.Path.String())
			continue
		}

		compared[oldMod.Path.Key()] = true
		stats := m.ModuleStats{Path: oldMod.Path}

		newMod, ok := byPath[oldMod.Path.Key()]
		if !ok {
			stats.Absent = true
			result.Modules = append(result.Modules, stats)
			result.Verdicts = append(result.Verdicts, m.Verdict{Kind: m.ModuleMissing, Path: oldMod.Path})

			continue
		}

		for _, oldDecl := range oldMod.Declarations {
			verdict := compareDeclaration(oldMod.Path, oldDecl, newMod)

			switch verdict.Kind {
			case m.Compatible:
				stats.Compatible++
				continue
			case m.Incompatible:
				stats.Incompatible++
			case m.Missing, m.ModuleMissing:
				stats.Missing++
			}

			result.Verdicts = append(result.Verdicts, verdict)
		}

		slog.Debug("compared module", "module", oldMod.Path.String(),
			"compatible", stats.Compatible, "incompatible", stats.Incompatible, "missing", stats.Missing)

		result.Modules = append(result.Modules, stats)
	}

	return result
}

func compareDeclaration(path m.SourcePath, oldDecl m.Declaration, newMod m.Module) m.Verdict {
	newDecl, ok := newMod.Lookup(m.KeyOf(oldDecl))
	if !ok {
		return m.Verdict{Kind: m.Missing, Path: path, Old: oldDecl}
	}

	if !declarationCompatible(oldDecl, newDecl) {
		return m.Verdict{Kind: m.Incompatible, Path: path, Old: oldDecl, New: newDecl}
	}

	return m.Verdict{Kind: m.Compatible, Path: path, Old: oldDecl, New: newDecl}
}

func declarationCompatible(oldDecl, newDecl m.Declaration) bool {
	switch o := oldDecl.(type) {
	case *m.Const:
		n, ok := newDecl.(*m.Const)
		return ok && o.Type == n.Type
	case *m.TypeAlias:
		n, ok := newDecl.(*m.TypeAlias)
		return ok && o.Type == n.Type
	case *m.Static:
		n, ok := newDecl.(*m.Static)
		return ok && o.Type == n.Type && o.Mutable == n.Mutable
	case *m.Struct:
		n, ok := newDecl.(*m.Struct)
		return ok && fieldsCompatible(o.Fields, n.Fields)
	case *m.Union:
		n, ok := newDecl.(*m.Union)
		return ok && fieldsCompatible(o.Fields, n.Fields)
	case *m.Enum:
		n, ok := newDecl.(*m.Enum)
		return ok && enumCompatible(o, n)
	case *m.Function:
		n, ok := newDecl.(*m.Function)
		return ok && functionCompatible(o.Shape, n.Shape)
	case *m.MacroDef:
		n, ok := newDecl.(*m.MacroDef)
		return ok && o.Ident == n.Ident
	default:
		return false
	}
}

// fieldsCompatible applies the field rule. Named shapes are asymmetric: only
// fields that were public in the old shape must survive with the same type.
func fieldsCompatible(oldShape, newShape m.FieldShape) bool {
	if oldShape.Style != newShape.Style {
		return false
	}

	switch oldShape.Style {
	case m.ShapePositional:
		if len(oldShape.Positional) != len(newShape.Positional) {
			return false
		}

		for i := range oldShape.Positional {
			if oldShape.Positional[i] != newShape.Positional[i] {
				return false
			}
		}

		return true
	case m.ShapeNamed:
		for _, oldField := range oldShape.Named {
			if oldField.Visibility != m.VisPublic {
				continue
			}

			newField, ok := newShape.Field(oldField.Name)
			if !ok || newField.Type != oldField.Type {
				return false
			}
		}

		return true
	default:
		return true
	}
}

// enumCompatible requires every old variant to survive unchanged. Added
// variants are tolerated.
func enumCompatible(oldEnum, newEnum *m.Enum) bool {
	for _, oldVariant := range oldEnum.Variants {
		newVariant, ok := newEnum.Variant(oldVariant.Name)
		if !ok || !fieldsCompatible(oldVariant.Fields, newVariant.Fields) {
			return false
		}
	}

	return true
}

func functionCompatible(oldFn, newFn m.FunctionShape) bool {
	if oldFn.Const != newFn.Const || oldFn.Async != newFn.Async || oldFn.Unsafe != newFn.Unsafe {
		return false
	}

	if oldFn.Return != newFn.Return || len(oldFn.Params) != len(newFn.Params) {
		return false
	}

	for i := range oldFn.Params {
		if !paramEqual(oldFn.Params[i], newFn.Params[i]) {
			return false
		}
	}

	return true
}

func paramEqual(oldParam, newParam m.Param) bool {
	if oldParam.Receiver != newParam.Receiver {
		return false
	}

	if oldParam.Receiver {
		return oldParam.Reference == newParam.Reference &&
			oldParam.Mutable == newParam.Mutable &&
			oldParam.Type == newParam.Type
	}

	return oldParam.Pattern == newParam.Pattern && oldParam.Type == newParam.Type
}
