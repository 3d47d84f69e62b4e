package domain

import (
	"log/slog"
	"strings"

	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

// Extractor reduces raw items to the normalized public surface of a module.
type Extractor interface {
	// Extract keeps the fully public declarations of items, in source order,
	// at most one per identity key.
	Extract(items []m.Item) []m.Declaration

	// ExtractModules runs Extract over every module.
	ExtractModules(modules []m.ParsedModule) []m.Module
}

type extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() Extractor {
	return &extractor{}
}

// classifyVisibility maps raw modifier text to a Visibility. Only a bare `pub`
// is public; `pub(crate)`, `pub(super)`, `pub(self)`, `pub(in path)` and `crate`
// are restricted.
func classifyVisibility(raw string) m.Visibility {
	vis := strings.Join(strings.Fields(raw), "")

	switch {
	case vis == "":
		return m.VisPrivate
	case vis == "pub":
		return m.VisPublic
	case vis == "crate" || vis == "pub(crate)":
		return m.VisCrate
	case vis == "pub(super)":
		return m.VisSuper
	case vis == "pub(self)":
		return m.VisPrivate
	default:
		return m.VisRestricted
	}
}

func (e *extractor) ExtractModules(modules []m.ParsedModule) []m.Module {
	out := make([]m.Module, 0, len(modules))

	for _, mod := range modules {
		out = append(out, m.Module{Path: mod.Path, Declarations: e.Extract(mod.Items)})
	}

	return out
}

func (e *extractor) Extract(items []m.Item) []m.Declaration {
	decls := make([]m.Declaration, 0, len(items))
	seen := make(map[m.Key]struct{})

	for _, item := range items {
		decl, ok := extractItem(item)
		if !ok {
			continue
		}

		key := m.KeyOf(decl)
		if _, dup := seen[key]; dup {
			slog.Debug("dropping duplicate declaration", "key", key.String())
			continue
		}

		seen[key] = struct{}{}
		decls = append(decls, decl)
	}

	return decls
}

func extractItem(item m.Item) (m.Declaration, bool) {
	// macro_rules! has no visibility syntax and is always part of the surface.
	if item.Kind == m.ItemMacro {
		return &m.MacroDef{Ident: item.Name}, true
	}

	if classifyVisibility(item.Visibility) != m.VisPublic {
		return nil, false
	}

	switch item.Kind {
	case m.ItemConst:
		return &m.Const{Ident: item.Name, Type: item.Type}, true
	case m.ItemStatic:
		return &m.Static{Ident: item.Name, Type: item.Type, Mutable: item.Mutable}, true
	case m.ItemType:
		return &m.TypeAlias{Ident: item.Name, Type: item.Type}, true
	case m.ItemStruct:
		return &m.Struct{Ident: item.Name, Fields: fieldShape(item.Fields, false)}, true
	case m.ItemUnion:
		return &m.Union{Ident: item.Name, Fields: fieldShape(item.Fields, false)}, true
	case m.ItemEnum:
		return &m.Enum{Ident: item.Name, Variants: variants(item.Variants)}, true
	case m.ItemFn:
		return &m.Function{Ident: item.Name, Shape: functionShape(item)}, true
	default:
		return nil, false
	}
}

// fieldShape normalizes a body. Fields of enum variants inherit the enum's
// visibility, so allPublic marks every named field public.
func fieldShape(raw m.RawFields, allPublic bool) m.FieldShape {
	switch raw.Style {
	case m.StylePositional:
		types := make([]m.TypeSig, len(raw.Fields))
		for i, f := range raw.Fields {
			types[i] = f.Type
		}

		return m.FieldShape{Style: m.ShapePositional, Positional: types}
	case m.StyleNamed:
		named := make([]m.NamedField, len(raw.Fields))
		for i, f := range raw.Fields {
			vis := classifyVisibility(f.Visibility)
			if allPublic {
				vis = m.VisPublic
			}

			named[i] = m.NamedField{Name: f.Name, Visibility: vis, Type: f.Type}
		}

		return m.FieldShape{Style: m.ShapeNamed, Named: named}
	default:
		return m.FieldShape{Style: m.ShapeUnit}
	}
}

func variants(raw []m.RawVariant) []m.Variant {
	out := make([]m.Variant, len(raw))
	for i, v := range raw {
		out[i] = m.Variant{Name: v.Name, Fields: fieldShape(v.Fields, true)}
	}

	return out
}

func functionShape(item m.Item) m.FunctionShape {
	params := make([]m.Param, len(item.Params))
	for i, p := range item.Params {
		params[i] = m.Param{
			Receiver:  p.Receiver,
			Reference: p.Reference,
			Mutable:   p.Mutable,
			Pattern:   p.Pattern,
			Type:      p.Type,
		}
	}

	ret := item.Return
	if ret == "" {
		ret = m.UnitType
	}

	return m.FunctionShape{
		Const:  item.Modifiers.Const,
		Async:  item.Modifiers.Async,
		Unsafe: item.Modifiers.Unsafe,
		Params: params,
		Return: ret,
	}
}
