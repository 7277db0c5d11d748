// Package doctree defines the block/inline node tree that documents are
// parsed into and that every build stage operates on.
//
// The tree is deliberately a single concrete node type with a Kind
// discriminator rather than an interface hierarchy: stages rewrite nodes in
// place (directive expansion, reference resolution) and a uniform shape keeps
// replacement trivial.
package doctree

// Kind identifies what a Node represents.
type Kind int

const (
	// KindFragment groups a sequence of block nodes spliced in as a unit
	// (e.g. an expanded docstring). Renderers treat it as transparent.
	KindFragment Kind = iota
	KindHeading
	KindParagraph
	KindText
	KindCodeSpan
	KindEmphasis
	KindCodeBlock
	KindDirective
	KindRef
	KindLink
	KindImage
	KindList
	KindListItem
	KindBlockquote
	KindThematicBreak
	KindHTML
	KindErrorMarker
)

// String returns the lowercase node kind name used in logs and error messages.
func (k Kind) String() string {
	switch k {
	case KindFragment:
		return "fragment"
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindText:
		return "text"
	case KindCodeSpan:
		return "codespan"
	case KindEmphasis:
		return "emphasis"
	case KindCodeBlock:
		return "codeblock"
	case KindDirective:
		return "directive"
	case KindRef:
		return "ref"
	case KindLink:
		return "link"
	case KindImage:
		return "image"
	case KindList:
		return "list"
	case KindListItem:
		return "listitem"
	case KindBlockquote:
		return "blockquote"
	case KindThematicBreak:
		return "break"
	case KindHTML:
		return "html"
	case KindErrorMarker:
		return "errormarker"
	default:
		return "unknown"
	}
}

// Node is one element of a document's content tree.
//
// Only a subset of fields is meaningful for any given Kind:
//   - Heading: Level, Anchor, Children
//   - Text, CodeSpan, HTML: Literal
//   - CodeBlock: Info, Literal
//   - Directive: Name, Arg, Literal (the raw fenced body)
//   - Ref: Target (anchor key, may be empty for bare refs), Children (label)
//   - Link, Image: Target, Title, Children
//   - List: Ordered
//   - ErrorMarker: Literal (human-readable message), Info (preserved source)
type Node struct {
	Kind     Kind
	Children []*Node

	Level   int    // heading level (1-6), emphasis level (1-2)
	Literal string // raw text content
	Info    string // code fence info string
	Name    string // directive name ("docs", "example", "include", "doctest")
	Arg     string // directive argument (symbol name, session name, path)
	Target  string // ref key / link destination / anchor key on fragments
	Title   string // link title
	Anchor  string // heading anchor key (set at parse time)
	Ordered bool   // ordered list

	Line int // 1-based source line, 0 if synthesized
}

// NewText returns a text node.
func NewText(s string) *Node { return &Node{Kind: KindText, Literal: s} }

// NewErrorMarker returns a visible error marker node preserving the original
// source text so broken constructs remain evident in rendered output.
func NewErrorMarker(message, source string, line int) *Node {
	return &Node{Kind: KindErrorMarker, Literal: message, Info: source, Line: line}
}

// PlainText flattens the node's textual content, used for heading slugs and
// reference labels.
func (n *Node) PlainText() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindText, KindCodeSpan:
		return n.Literal
	}
	var out string
	for _, c := range n.Children {
		out += c.PlainText()
	}
	return out
}
