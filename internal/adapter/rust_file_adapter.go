package adapter

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

// RustFileAdapter encapsulates Rust parsing so the domain layer only sees
// model items and never a syntax tree.
type RustFileAdapter interface {
	// Parse turns one source unit into its list of top-level items. Syntax
	// errors in item headers, signatures or types are rejected with
	// model.ErrParse; function bodies and initializers are not checked.
	Parse(ctx context.Context, filename string, src []byte) ([]m.Item, error)
}

// LocalRustFileAdapter provides a RustFileAdapter backed by tree-sitter.
// It is safe for concurrent use; every Parse call creates its own parser.
type LocalRustFileAdapter struct{}

// NewLocalRustFileAdapter constructs a LocalRustFileAdapter.
func NewLocalRustFileAdapter() *LocalRustFileAdapter {
	return &LocalRustFileAdapter{}
}

// Parse builds the item list for filename.
func (a *LocalRustFileAdapter) Parse(ctx context.Context, filename string, src []byte) ([]m.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%s: content is not valid UTF-8: %w", filename, m.ErrParse)
	}

	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(rust.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", filename, m.ErrParse, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("%s: empty syntax tree: %w", filename, m.ErrParse)
	}

	if root.HasError() {
		if bad := firstErrorNode(root); bad != nil {
			pos := bad.StartPoint()
			return nil, fmt.Errorf("%s:%d:%d: syntax error: %w", filename, pos.Row+1, pos.Column+1, m.ErrParse)
		}
	}

	return itemList(root, src), nil
}

// firstErrorNode finds the first ERROR or MISSING node outside of regions that
// never reach the public surface. Newer expression syntax the grammar does not
// know, such as async closures, is tolerated inside those regions.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if opaqueChild(node, i) {
			continue
		}

		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}

	return nil
}

// opaqueChild reports whether child i of node is a function body or a
// const/static initializer.
func opaqueChild(node *sitter.Node, i int) bool {
	switch node.Type() {
	case "function_item":
		return node.FieldNameForChild(i) == "body"
	case "const_item", "static_item":
		return node.FieldNameForChild(i) == "value"
	}

	return false
}

// itemList converts the item children of a source_file or declaration_list.
func itemList(parent *sitter.Node, src []byte) []m.Item {
	var items []m.Item

	for i := 0; i < int(parent.NamedChildCount()); i++ {
		node := parent.NamedChild(i)

		item, ok := convertItem(node, src)
		if ok {
			items = append(items, item)
		}
	}

	return items
}

func convertItem(node *sitter.Node, src []byte) (m.Item, bool) {
	item := m.Item{
		Name:       fieldText(node, "name", src),
		Visibility: visibilityOf(node, src),
	}

	switch node.Type() {
	case "mod_item":
		item.Kind = m.ItemMod
		if body := node.ChildByFieldName("body"); body != nil {
			item.Inline = true
			item.Children = itemList(body, src)
		}
	case "const_item":
		item.Kind = m.ItemConst
		item.Type = typeSig(node.ChildByFieldName("type"), src)
	case "static_item":
		item.Kind = m.ItemStatic
		item.Type = typeSig(node.ChildByFieldName("type"), src)
		item.Mutable = hasChildOfType(node, "mutable_specifier")
	case "type_item":
		item.Kind = m.ItemType
		item.Type = typeSig(node.ChildByFieldName("type"), src)
	case "struct_item":
		item.Kind = m.ItemStruct
		item.Fields = rawFields(node.ChildByFieldName("body"), src)
	case "union_item":
		item.Kind = m.ItemUnion
		item.Fields = rawFields(node.ChildByFieldName("body"), src)
	case "enum_item":
		item.Kind = m.ItemEnum
		item.Variants = rawVariants(node.ChildByFieldName("body"), src)
	case "function_item":
		item.Kind = m.ItemFn
		item.Modifiers = fnModifiers(node)
		item.Params = rawParams(node.ChildByFieldName("parameters"), src)
		if ret := node.ChildByFieldName("return_type"); ret != nil {
			item.Return = typeSig(ret, src)
		}
	case "macro_definition":
		item.Kind = m.ItemMacro
	default:
		return m.Item{}, false
	}

	return item, true
}

func fieldText(node *sitter.Node, field string, src []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}

	return child.Content(src)
}

// visibilityOf returns the modifier text with whitespace removed, e.g. "pub(crate)".
func visibilityOf(node *sitter.Node, src []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "visibility_modifier" {
			return strings.Join(strings.Fields(child.Content(src)), "")
		}
	}

	return ""
}

func hasChildOfType(node *sitter.Node, typ string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == typ {
			return true
		}
	}

	return false
}

func isTrivia(node *sitter.Node) bool {
	switch node.Type() {
	case "line_comment", "block_comment", "attribute_item", "inner_attribute_item":
		return true
	}

	return false
}

func rawFields(body *sitter.Node, src []byte) m.RawFields {
	if body == nil {
		return m.RawFields{Style: m.StyleUnit}
	}

	switch body.Type() {
	case "field_declaration_list":
		fields := m.RawFields{Style: m.StyleNamed, Fields: []m.RawField{}}

		for i := 0; i < int(body.NamedChildCount()); i++ {
			decl := body.NamedChild(i)
			if decl.Type() != "field_declaration" {
				continue
			}

			fields.Fields = append(fields.Fields, m.RawField{
				Visibility: visibilityOf(decl, src),
				Name:       fieldText(decl, "name", src),
				Type:       typeSig(decl.ChildByFieldName("type"), src),
			})
		}

		return fields
	case "ordered_field_declaration_list":
		fields := m.RawFields{Style: m.StylePositional, Fields: []m.RawField{}}
		pendingVis := ""

		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)

			switch {
			case isTrivia(child):
			case child.Type() == "visibility_modifier":
				pendingVis = strings.Join(strings.Fields(child.Content(src)), "")
			default:
				fields.Fields = append(fields.Fields, m.RawField{Visibility: pendingVis, Type: typeSig(child, src)})
				pendingVis = ""
			}
		}

		return fields
	default:
		return m.RawFields{Style: m.StyleUnit}
	}
}

func rawVariants(body *sitter.Node, src []byte) []m.RawVariant {
	if body == nil {
		return nil
	}

	var variants []m.RawVariant

	for i := 0; i < int(body.NamedChildCount()); i++ {
		variant := body.NamedChild(i)
		if variant.Type() != "enum_variant" {
			continue
		}

		variants = append(variants, m.RawVariant{
			Name:   fieldText(variant, "name", src),
			Fields: rawFields(variant.ChildByFieldName("body"), src),
		})
	}

	return variants
}

func fnModifiers(fn *sitter.Node) m.FnModifiers {
	var mods m.FnModifiers

	for i := 0; i < int(fn.NamedChildCount()); i++ {
		child := fn.NamedChild(i)
		if child.Type() != "function_modifiers" {
			continue
		}

		for j := 0; j < int(child.ChildCount()); j++ {
			switch child.Child(j).Type() {
			case "const":
				mods.Const = true
			case "async":
				mods.Async = true
			case "unsafe":
				mods.Unsafe = true
			}
		}
	}

	return mods
}

func rawParams(params *sitter.Node, src []byte) []m.RawParam {
	if params == nil {
		return nil
	}

	var out []m.RawParam

	for i := 0; i < int(params.NamedChildCount()); i++ {
		node := params.NamedChild(i)
		if isTrivia(node) {
			continue
		}

		switch node.Type() {
		case "self_parameter":
			out = append(out, selfParam(node, src))
		case "parameter":
			out = append(out, typedParam(node, src))
		default:
			// variadic `...` or a bare pattern-less type
			sig := typeSig(node, src)
			out = append(out, m.RawParam{Pattern: "_", Type: sig})
		}
	}

	return out
}

func selfParam(node *sitter.Node, src []byte) m.RawParam {
	param := m.RawParam{Receiver: true}
	tokens := []string{}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)

		switch child.Type() {
		case "&":
			param.Reference = true
			tokens = append(tokens, "&")
		case "lifetime":
			tokens = append(tokens, leafTokens(child, src)...)
		case "mutable_specifier":
			param.Mutable = true
			if param.Reference {
				tokens = append(tokens, "mut")
			}
		}
	}

	param.Type = m.TypeSig(joinTokens(append(tokens, "Self")))

	return param
}

func typedParam(node *sitter.Node, src []byte) m.RawParam {
	pattern := node.ChildByFieldName("pattern")
	mutable := hasChildOfType(node, "mutable_specifier")
	sig := typeSig(node.ChildByFieldName("type"), src)

	if pattern != nil && pattern.Type() == "self" {
		return m.RawParam{Receiver: true, Mutable: mutable, Type: sig}
	}

	text := "_"
	if pattern != nil {
		text = joinTokens(leafTokens(pattern, src))
	}

	if mutable {
		text = "mut " + text
	}

	return m.RawParam{Pattern: text, Type: sig}
}

// typeSig normalizes a type node into its canonical token string.
func typeSig(node *sitter.Node, src []byte) m.TypeSig {
	if node == nil {
		return ""
	}

	return m.TypeSig(joinTokens(leafTokens(node, src)))
}

// leafTokens returns the source text of every leaf under node, skipping comments.
func leafTokens(node *sitter.Node, src []byte) []string {
	switch node.Type() {
	case "line_comment", "block_comment":
		return nil
	}

	count := int(node.ChildCount())
	if count == 0 {
		return []string{node.Content(src)}
	}

	var tokens []string
	for i := 0; i < count; i++ {
		tokens = append(tokens, leafTokens(node.Child(i), src)...)
	}

	return tokens
}

// joinTokens concatenates tokens, separating two word-like tokens by one space.
func joinTokens(tokens []string) string {
	var b strings.Builder

	prev := ""
	for _, tok := range tokens {
		if tok == "" {
			continue
		}

		if prev != "" && endsWord(prev) && startsWord(tok) {
			b.WriteByte(' ')
		}

		b.WriteString(tok)
		prev = tok
	}

	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func endsWord(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return isWordRune(r)
}

func startsWord(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return isWordRune(r)
}
