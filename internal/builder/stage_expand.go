package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docforge/internal/anchors"
	"git.home.luguber.info/inful/docforge/internal/doctest"
	"git.home.luguber.info/inful/docforge/internal/doctree"
	"git.home.luguber.info/inful/docforge/internal/document"
	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
	"git.home.luguber.info/inful/docforge/internal/markdown"
	"git.home.luguber.info/inful/docforge/internal/symbols"
)

// Expand replaces directive blocks with generated content: documented-symbol
// splices, executed example blocks, and literal file inclusions. Every
// failure is a recoverable finding plus a visible error marker; the original
// directive source is preserved inside the marker so defects stay evident in
// rendered output.
type Expand struct {
	Symbols symbols.Provider
	Runner  *doctest.Runner
}

// Name implements Stage.
func (e *Expand) Name() string { return "expand" }

// Run implements Stage. Files are processed in document order; within a
// file, directives expand depth-first in source order.
func (e *Expand) Run(ctx context.Context, doc *document.Document) error {
	for _, file := range doc.Files {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CategoryBuild, "expansion canceled").Fatal().Build()
		}
		e.expandFile(ctx, doc, file)
	}
	return nil
}

func (e *Expand) expandFile(ctx context.Context, doc *document.Document, file *document.FileRecord) {
	// Example blocks naming a session share accumulated state within a file.
	sessionCode := make(map[string]string)
	sessionOutput := make(map[string]string)

	doctree.Walk(file.Nodes, func(n *doctree.Node) (doctree.Action, *doctree.Node) {
		if n.Kind != doctree.KindDirective {
			return doctree.Continue, nil
		}
		switch n.Name {
		case "docs":
			return doctree.Continue, e.spliceDocs(doc, file, n)
		case "example":
			return doctree.Continue, e.runExample(ctx, doc, file, n, sessionCode, sessionOutput)
		case "include":
			return doctree.Continue, e.includeFile(doc, file, n)
		default:
			// "doctest" and unknown directives pass through untouched;
			// doctests belong to the checker stage.
			return doctree.SkipChildren, nil
		}
	})
}

// spliceDocs resolves a @docs directive through the symbol provider and
// splices the docstring's parsed content in place, registering an anchor
// keyed by the qualified symbol name.
func (e *Expand) spliceDocs(doc *document.Document, file *document.FileRecord, n *doctree.Node) *doctree.Node {
	symbol := n.Arg
	if symbol == "" {
		doc.RecordError(document.ErrorRecord{
			Kind: document.KindMissingDocstring, File: file.RelPath, Line: n.Line,
			Message: "@docs directive without a symbol name",
		})
		return marker("missing symbol name in @docs directive", n)
	}

	docString, ok := e.Symbols.Lookup(symbol)
	if !ok {
		doc.RecordError(document.ErrorRecord{
			Kind: document.KindMissingDocstring, File: file.RelPath, Line: n.Line,
			Message: fmt.Sprintf("no docstring for symbol %q", symbol),
		})
		return marker(fmt.Sprintf("missing docstring: %s", symbol), n)
	}

	err := doc.Anchors.Register(anchors.Anchor{
		Key:   symbol,
		File:  file.RelPath,
		Label: symbol,
		Line:  n.Line,
	}, file.Scope())
	if err != nil {
		doc.RecordError(document.ErrorRecord{
			Kind: document.KindDuplicateAnchor, File: file.RelPath, Line: n.Line,
			Message: err.Error(),
		})
		return marker(fmt.Sprintf("duplicate docs entry: %s", symbol), n)
	}

	children := []*doctree.Node{{
		Kind:     doctree.KindHeading,
		Level:    3,
		Anchor:   symbol,
		Line:     n.Line,
		Children: []*doctree.Node{{Kind: doctree.KindCodeSpan, Literal: symbol}},
	}}
	children = append(children, markdown.Parse([]byte(docString))...)
	return &doctree.Node{Kind: doctree.KindFragment, Target: symbol, Children: children, Line: n.Line}
}

// runExample executes an @example block and inlines the captured output
// alongside the original source.
func (e *Expand) runExample(ctx context.Context, doc *document.Document, file *document.FileRecord, n *doctree.Node, sessionCode, sessionOutput map[string]string) *doctree.Node {
	code := n.Literal
	session := n.Arg
	if session != "" {
		code = sessionCode[session] + code
	}

	output, err := e.Runner.Run(ctx, code)
	if err != nil {
		doc.RecordError(document.ErrorRecord{
			Kind: document.KindDoctestFailure, File: file.RelPath, Line: n.Line,
			Message: fmt.Sprintf("example execution failed: %v", err),
		})
		return marker(fmt.Sprintf("example failed: %v", err), n)
	}

	display := output
	if session != "" {
		// A continued session re-runs the accumulated code; only the output
		// produced by this block is shown.
		if prev := sessionOutput[session]; strings.HasPrefix(output, prev) {
			display = output[len(prev):]
		}
		sessionCode[session] = code
		sessionOutput[session] = output
	}

	children := []*doctree.Node{
		{Kind: doctree.KindCodeBlock, Info: "example", Literal: n.Literal, Line: n.Line},
	}
	if display != "" {
		children = append(children,
			&doctree.Node{Kind: doctree.KindParagraph, Children: []*doctree.Node{doctree.NewText("Output:")}},
			&doctree.Node{Kind: doctree.KindCodeBlock, Info: "output", Literal: display},
		)
	}
	return &doctree.Node{Kind: doctree.KindFragment, Children: children, Line: n.Line}
}

// includeFile splices a file referenced by an @include directive, parsed as
// markdown for .md files and as a literal code block otherwise.
func (e *Expand) includeFile(doc *document.Document, file *document.FileRecord, n *doctree.Node) *doctree.Node {
	if n.Arg == "" {
		doc.RecordError(document.ErrorRecord{
			Kind: document.KindIncludeFailure, File: file.RelPath, Line: n.Line,
			Message: "@include directive without a path",
		})
		return marker("missing path in @include directive", n)
	}

	path := filepath.Join(filepath.Dir(file.Path), filepath.FromSlash(n.Arg))
	content, err := os.ReadFile(path)
	if err != nil {
		doc.RecordError(document.ErrorRecord{
			Kind: document.KindIncludeFailure, File: file.RelPath, Line: n.Line,
			Message: fmt.Sprintf("include %q: %v", n.Arg, err),
		})
		return marker(fmt.Sprintf("include failed: %s", n.Arg), n)
	}

	if strings.EqualFold(filepath.Ext(path), ".md") {
		return &doctree.Node{Kind: doctree.KindFragment, Children: markdown.Parse(content), Line: n.Line}
	}
	info := strings.TrimPrefix(filepath.Ext(path), ".")
	return &doctree.Node{Kind: doctree.KindCodeBlock, Info: info, Literal: string(content), Line: n.Line}
}

func marker(message string, n *doctree.Node) *doctree.Node {
	source := "```" + n.Info + "\n" + n.Literal + "```"
	return doctree.NewErrorMarker(message, source, n.Line)
}
