// Package markdown parses markdown source into the doctree node model used
// by the build pipeline. Goldmark does the CommonMark parsing; this package
// converts its AST into doctree nodes and recognizes the two docforge
// extensions on top of it:
//
//   - directive blocks: fenced code blocks whose info string starts with "@"
//     ("@docs", "@example name", "@include path", "@doctest name"),
//   - reference placeholders: links whose destination is "@ref" or
//     "@ref key" (a bare "@ref" targets the slug of the link text).
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docforge/internal/anchors"
	"git.home.luguber.info/inful/docforge/internal/doctree"
)

const refPrefix = "@ref"

// Parse converts a markdown body (front matter already removed) into a
// doctree forest.
func Parse(source []byte) []*doctree.Node {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))
	return convertChildren(root, source)
}

// SplitFrontMatter separates a leading YAML front matter block from the body.
// Files without front matter (or with malformed front matter YAML, which is
// tolerated) return a nil map and the content unchanged.
func SplitFrontMatter(content []byte) (map[string]any, []byte) {
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return nil, content
	}
	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			end = len(rest) - 4
		} else {
			return nil, content
		}
	}
	raw := rest[:end]
	body := rest[min(end+5, len(rest)):]

	var meta map[string]any
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return nil, content
	}
	return meta, body
}

func convertChildren(parent gmast.Node, source []byte) []*doctree.Node {
	var out []*doctree.Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if n := convert(c, source); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func convert(n gmast.Node, source []byte) *doctree.Node {
	switch node := n.(type) {
	case *gmast.Heading:
		h := &doctree.Node{
			Kind:     doctree.KindHeading,
			Level:    node.Level,
			Children: convertChildren(node, source),
			Line:     blockLine(node, source),
		}
		h.Anchor = anchors.Slug(h.PlainText())
		return h

	case *gmast.Paragraph, *gmast.TextBlock:
		return &doctree.Node{
			Kind:     doctree.KindParagraph,
			Children: convertChildren(n, source),
			Line:     blockLine(n, source),
		}

	case *gmast.FencedCodeBlock:
		info := ""
		if node.Info != nil {
			info = string(node.Info.Segment.Value(source))
		}
		literal := blockLines(node, source)
		line := blockLine(node, source)
		if strings.HasPrefix(info, "@") {
			name, arg, _ := strings.Cut(strings.TrimPrefix(info, "@"), " ")
			return &doctree.Node{
				Kind:    doctree.KindDirective,
				Name:    name,
				Arg:     strings.TrimSpace(arg),
				Literal: literal,
				Info:    info,
				Line:    line,
			}
		}
		return &doctree.Node{Kind: doctree.KindCodeBlock, Info: info, Literal: literal, Line: line}

	case *gmast.CodeBlock:
		return &doctree.Node{Kind: doctree.KindCodeBlock, Literal: blockLines(node, source), Line: blockLine(node, source)}

	case *gmast.Blockquote:
		return &doctree.Node{Kind: doctree.KindBlockquote, Children: convertChildren(node, source), Line: blockLine(node, source)}

	case *gmast.List:
		return &doctree.Node{Kind: doctree.KindList, Ordered: node.IsOrdered(), Children: convertChildren(node, source)}

	case *gmast.ListItem:
		return &doctree.Node{Kind: doctree.KindListItem, Children: convertChildren(node, source)}

	case *gmast.ThematicBreak:
		return &doctree.Node{Kind: doctree.KindThematicBreak}

	case *gmast.HTMLBlock:
		return &doctree.Node{Kind: doctree.KindHTML, Literal: blockLines(node, source), Line: blockLine(node, source)}

	case *gmast.RawHTML:
		var b strings.Builder
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			b.Write(seg.Value(source))
		}
		return &doctree.Node{Kind: doctree.KindHTML, Literal: b.String()}

	case *gmast.Text:
		literal := string(node.Segment.Value(source))
		if node.SoftLineBreak() || node.HardLineBreak() {
			literal += "\n"
		}
		return doctree.NewText(literal)

	case *gmast.String:
		return doctree.NewText(string(node.Value))

	case *gmast.CodeSpan:
		return &doctree.Node{Kind: doctree.KindCodeSpan, Literal: flattenText(node, source)}

	case *gmast.Emphasis:
		return &doctree.Node{Kind: doctree.KindEmphasis, Level: node.Level, Children: convertChildren(node, source)}

	case *gmast.Link:
		dest := string(node.Destination)
		children := convertChildren(node, source)
		if key, ok := refTarget(dest, children); ok {
			return &doctree.Node{Kind: doctree.KindRef, Target: key, Children: children}
		}
		return &doctree.Node{Kind: doctree.KindLink, Target: dest, Title: string(node.Title), Children: children}

	case *gmast.AutoLink:
		url := string(node.URL(source))
		return &doctree.Node{Kind: doctree.KindLink, Target: url, Children: []*doctree.Node{doctree.NewText(url)}}

	case *gmast.Image:
		return &doctree.Node{
			Kind:     doctree.KindImage,
			Target:   string(node.Destination),
			Title:    string(node.Title),
			Children: convertChildren(node, source),
		}

	default:
		// Unhandled container kinds degrade to a transparent fragment so no
		// content is silently dropped.
		if n.HasChildren() {
			return &doctree.Node{Kind: doctree.KindFragment, Children: convertChildren(n, source)}
		}
		return nil
	}
}

// refTarget recognizes "@ref" / "@ref key" link destinations. Bare refs take
// their key from the slugged link text.
func refTarget(dest string, label []*doctree.Node) (string, bool) {
	if dest == refPrefix {
		labelNode := &doctree.Node{Kind: doctree.KindFragment, Children: label}
		return anchors.Slug(labelNode.PlainText()), true
	}
	if strings.HasPrefix(dest, refPrefix+" ") {
		return strings.TrimSpace(strings.TrimPrefix(dest, refPrefix+" ")), true
	}
	return "", false
}

func flattenText(n gmast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return b.String()
}

func blockLines(n gmast.Node, source []byte) string {
	lines := n.Lines()
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// blockLine derives the 1-based source line of a block node from its first
// line segment. Nodes without line segments report 0.
func blockLine(n gmast.Node, source []byte) int {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0
	}
	start := lines.At(0).Start
	if start > len(source) {
		return 0
	}
	return 1 + bytes.Count(source[:start], []byte("\n"))
}
