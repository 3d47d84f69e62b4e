package model

import (
	"fmt"
	"strings"
)

// DeclKind is the kind half of a declaration's identity key.
type DeclKind string

const (
	KindConst  DeclKind = "const"
	KindStatic DeclKind = "static"
	KindUnion  DeclKind = "union"
	KindType   DeclKind = "type"
	KindStruct DeclKind = "struct"
	KindEnum   DeclKind = "enum"
	KindFn     DeclKind = "fn"
	KindMacro  DeclKind = "macro"
)

// Key identifies a declaration across snapshots.
type Key struct {
	Kind DeclKind
	Name string
}

func (k Key) String() string {
	return fmt.Sprintf("(%s %s)", k.Kind, k.Name)
}

// Declaration is one externally visible item of a module.
type Declaration interface {
	Kind() DeclKind
	Name() string
	// String renders the normalized shape as Rust-like source.
	String() string
}

// KeyOf returns the identity key of d.
func KeyOf(d Declaration) Key {
	return Key{Kind: d.Kind(), Name: d.Name()}
}

// Visibility of a struct or union field.
type Visibility int

const (
	VisPrivate Visibility = iota
	VisPublic
	VisCrate
	VisSuper
	VisRestricted
)

// ShapeStyle distinguishes unit, tuple-like and record-like bodies.
type ShapeStyle int

const (
	ShapeUnit ShapeStyle = iota
	ShapePositional
	ShapeNamed
)

// NamedField is one entry of a named FieldShape.
type NamedField struct {
	Name       string
	Visibility Visibility
	Type       TypeSig
}

// FieldShape is the normalized layout of a struct, union or enum variant body.
type FieldShape struct {
	Style      ShapeStyle
	Positional []TypeSig
	Named      []NamedField
}

// Field looks up a named field.
func (s FieldShape) Field(name string) (NamedField, bool) {
	for _, f := range s.Named {
		if f.Name == name {
			return f, true
		}
	}

	return NamedField{}, false
}

func (s FieldShape) render(indent string) string {
	switch s.Style {
	case ShapePositional:
		parts := make([]string, len(s.Positional))
		for i, t := range s.Positional {
			parts[i] = string(t)
		}

		return "(" + strings.Join(parts, ", ") + ")"
	case ShapeNamed:
		if len(s.Named) == 0 {
			return " {}"
		}

		var b strings.Builder

		b.WriteString(" {\n")

		for _, f := range s.Named {
			b.WriteString(indent + "    ")

			if f.Visibility == VisPublic {
				b.WriteString("pub ")
			}

			fmt.Fprintf(&b, "%s: %s,\n", f.Name, f.Type)
		}

		b.WriteString(indent + "}")

		return b.String()
	default:
		return ""
	}
}

// Const is a `pub const`.
type Const struct {
	Ident string
	Type  TypeSig
}

func (d *Const) Kind() DeclKind { return KindConst }
func (d *Const) Name() string   { return d.Ident }
func (d *Const) String() string { return fmt.Sprintf("const %s: %s", d.Ident, d.Type) }

// Static is a `pub static`, optionally mutable.
type Static struct {
	Ident   string
	Type    TypeSig
	Mutable bool
}

func (d *Static) Kind() DeclKind { return KindStatic }
func (d *Static) Name() string   { return d.Ident }

func (d *Static) String() string {
	if d.Mutable {
		return fmt.Sprintf("static mut %s: %s", d.Ident, d.Type)
	}

	return fmt.Sprintf("static %s: %s", d.Ident, d.Type)
}

// TypeAlias is a `pub type X = ...`.
type TypeAlias struct {
	Ident string
	Type  TypeSig
}

func (d *TypeAlias) Kind() DeclKind { return KindType }
func (d *TypeAlias) Name() string   { return d.Ident }
func (d *TypeAlias) String() string { return fmt.Sprintf("type %s = %s", d.Ident, d.Type) }

// Struct is a `pub struct`.
type Struct struct {
	Ident  string
	Fields FieldShape
}

func (d *Struct) Kind() DeclKind { return KindStruct }
func (d *Struct) Name() string   { return d.Ident }

func (d *Struct) String() string {
	if d.Fields.Style == ShapeUnit {
		return "struct " + d.Ident + ";"
	}

	return "struct " + d.Ident + d.Fields.render("")
}

// Union is a `pub union`.
type Union struct {
	Ident  string
	Fields FieldShape
}

func (d *Union) Kind() DeclKind { return KindUnion }
func (d *Union) Name() string   { return d.Ident }
func (d *Union) String() string { return "union " + d.Ident + d.Fields.render("") }

// Variant is one enum variant.
type Variant struct {
	Name   string
	Fields FieldShape
}

// Enum is a `pub enum`.
type Enum struct {
	Ident    string
	Variants []Variant
}

func (d *Enum) Kind() DeclKind { return KindEnum }
func (d *Enum) Name() string   { return d.Ident }

// Variant looks up a variant by name.
func (d *Enum) Variant(name string) (Variant, bool) {
	for _, v := range d.Variants {
		if v.Name == name {
			return v, true
		}
	}

	return Variant{}, false
}

func (d *Enum) String() string {
	if len(d.Variants) == 0 {
		return "enum " + d.Ident + " {}"
	}

	var b strings.Builder

	b.WriteString("enum " + d.Ident + " {\n")

	for _, v := range d.Variants {
		b.WriteString("    " + v.Name + v.Fields.render("    ") + ",\n")
	}

	b.WriteString("}")

	return b.String()
}

// Param is a normalized function parameter.
type Param struct {
	Receiver  bool
	Reference bool
	Mutable   bool
	Pattern   string
	Type      TypeSig
}

func (p Param) String() string {
	if !p.Receiver {
		return fmt.Sprintf("%s: %s", p.Pattern, p.Type)
	}

	if p.Reference {
		return strings.Replace(string(p.Type), "Self", "self", 1)
	}

	binding := "self"
	if p.Mutable {
		binding = "mut self"
	}

	if p.Type == "Self" {
		return binding
	}

	return fmt.Sprintf("%s: %s", binding, p.Type)
}

// FunctionShape is the normalized signature of a function.
type FunctionShape struct {
	Const  bool
	Async  bool
	Unsafe bool
	Params []Param
	Return TypeSig
}

// Function is a `pub fn`.
type Function struct {
	Ident string
	Shape FunctionShape
}

func (d *Function) Kind() DeclKind { return KindFn }
func (d *Function) Name() string   { return d.Ident }

func (d *Function) String() string {
	var b strings.Builder

	if d.Shape.Const {
		b.WriteString("const ")
	}

	if d.Shape.Async {
		b.WriteString("async ")
	}

	if d.Shape.Unsafe {
		b.WriteString("unsafe ")
	}

	params := make([]string, len(d.Shape.Params))
	for i, p := range d.Shape.Params {
		params[i] = p.String()
	}

	fmt.Fprintf(&b, "fn %s(%s)", d.Ident, strings.Join(params, ", "))

	if d.Shape.Return != UnitType && d.Shape.Return != "" {
		fmt.Fprintf(&b, " -> %s", d.Shape.Return)
	}

	return b.String()
}

// MacroDef is a `macro_rules!` definition; only its name matters.
type MacroDef struct {
	Ident string
}

func (d *MacroDef) Kind() DeclKind { return KindMacro }
func (d *MacroDef) Name() string   { return d.Ident }
func (d *MacroDef) String() string { return "macro_rules! " + d.Ident }

// Module is one module of a snapshot with its public surface.
type Module struct {
	Path         SourcePath
	Declarations []Declaration
}

// Lookup finds the declaration with the given identity key.
func (m Module) Lookup(key Key) (Declaration, bool) {
	for _, d := range m.Declarations {
		if KeyOf(d) == key {
			return d, true
		}
	}

	return nil, false
}
