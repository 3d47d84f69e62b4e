package model

// ItemKind is the syntactic category of a top-level item in a Rust source unit.
type ItemKind string

const (
	ItemMod    ItemKind = "mod"
	ItemConst  ItemKind = "const"
	ItemStatic ItemKind = "static"
	ItemUnion  ItemKind = "union"
	ItemType   ItemKind = "type"
	ItemStruct ItemKind = "struct"
	ItemEnum   ItemKind = "enum"
	ItemFn     ItemKind = "fn"
	ItemMacro  ItemKind = "macro"
)

// TypeSig is a normalized type signature. Two signatures are equal iff their strings are equal.
type TypeSig string

// UnitType is the signature used for an absent return type.
const UnitType TypeSig = "()"

// Item is one parsed declaration as written in the source, before visibility filtering.
// Only the fields relevant to Kind are populated.
type Item struct {
	Kind       ItemKind
	Name       string
	Visibility string // raw modifier text, empty when none

	// Inline is true for `mod name { ... }`; Children then holds the embedded items.
	Inline   bool
	Children []Item

	Type    TypeSig // const, static, type alias
	Mutable bool    // static mut

	Fields   RawFields    // struct, union
	Variants []RawVariant // enum

	Modifiers FnModifiers
	Params    []RawParam
	Return    TypeSig // empty when no return type was written
}

// RawFieldStyle distinguishes the three ways a field list can be written.
type RawFieldStyle int

const (
	StyleUnit RawFieldStyle = iota
	StylePositional
	StyleNamed
)

// RawFields is a struct, union or variant body as written.
type RawFields struct {
	Style  RawFieldStyle
	Fields []RawField
}

// RawField is a single field; Name is empty for positional fields.
type RawField struct {
	Visibility string
	Name       string
	Type       TypeSig
}

// RawVariant is one enum variant.
type RawVariant struct {
	Name   string
	Fields RawFields
}

// FnModifiers are the qualifiers written before `fn`.
type FnModifiers struct {
	Const  bool
	Async  bool
	Unsafe bool
}

// RawParam is one function parameter. Receiver parameters leave Pattern empty.
type RawParam struct {
	Receiver  bool
	Reference bool
	Mutable   bool
	Pattern   string
	Type      TypeSig
}

// ParsedModule is a module located in the tree with its raw items.
type ParsedModule struct {
	Path     SourcePath
	Location string
	Items    []Item
}
