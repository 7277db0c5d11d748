package render

import (
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docforge/internal/assets"
	"git.home.luguber.info/inful/docforge/internal/doctree"
	"git.home.luguber.info/inful/docforge/internal/document"
	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
)

// HTMLWriter renders each source file to a .html file under OutputDir,
// mirroring the source layout, and copies asset files through untouched.
// Error markers render as visible <span class="docforge-error"> elements so
// defective builds still produce inspectable output.
type HTMLWriter struct {
	OutputDir string
	Title     string
}

// Render implements Writer.
func (w *HTMLWriter) Render(doc *document.Document) error {
	if doc.Config.Clean {
		if err := os.RemoveAll(w.OutputDir); err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, "clean output directory").
				WithContext("dir", w.OutputDir).
				Fatal().
				Build()
		}
	}
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, "create output directory").
			WithContext("dir", w.OutputDir).
			Fatal().
			Build()
	}

	for _, file := range doc.Files {
		out := filepath.Join(w.OutputDir, filepath.FromSlash(OutputPath(file.RelPath)))
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, "create output subdirectory").
				WithContext("dir", filepath.Dir(out)).
				Build()
		}
		if err := os.WriteFile(out, []byte(w.renderFile(file)), 0o644); err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, "write rendered file").
				WithContext("path", out).
				Build()
		}
	}

	if err := assets.Copy(doc.Config.SourceDir, w.OutputDir, doc.Assets); err != nil {
		return err
	}

	slog.Info("Rendered output", "dir", w.OutputDir, "files", len(doc.Files), "assets", len(doc.Assets))
	return nil
}

// OutputPath maps a source-relative markdown path to its rendered path.
func OutputPath(relPath string) string {
	ext := filepath.Ext(relPath)
	return strings.TrimSuffix(relPath, ext) + ".html"
}

func (w *HTMLWriter) renderFile(file *document.FileRecord) string {
	title := w.Title
	if t, ok := file.FrontMatter["title"].(string); ok && t != "" {
		title = t
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	renderNodes(&b, file.Nodes, file.RelPath)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func renderNodes(b *strings.Builder, nodes []*doctree.Node, relPath string) {
	for _, n := range nodes {
		renderNode(b, n, relPath)
	}
}

func renderNode(b *strings.Builder, n *doctree.Node, relPath string) {
	switch n.Kind {
	case doctree.KindFragment:
		if n.Target != "" {
			fmt.Fprintf(b, "<section class=\"docstring\" id=%q>\n", n.Target)
			renderNodes(b, n.Children, relPath)
			b.WriteString("</section>\n")
			return
		}
		renderNodes(b, n.Children, relPath)

	case doctree.KindHeading:
		level := n.Level
		if level < 1 || level > 6 {
			level = 6
		}
		if n.Anchor != "" {
			fmt.Fprintf(b, "<h%d id=%q>", level, n.Anchor)
		} else {
			fmt.Fprintf(b, "<h%d>", level)
		}
		renderNodes(b, n.Children, relPath)
		fmt.Fprintf(b, "</h%d>\n", level)

	case doctree.KindParagraph:
		b.WriteString("<p>")
		renderNodes(b, n.Children, relPath)
		b.WriteString("</p>\n")

	case doctree.KindText:
		b.WriteString(html.EscapeString(n.Literal))

	case doctree.KindCodeSpan:
		fmt.Fprintf(b, "<code>%s</code>", html.EscapeString(n.Literal))

	case doctree.KindEmphasis:
		tag := "em"
		if n.Level >= 2 {
			tag = "strong"
		}
		fmt.Fprintf(b, "<%s>", tag)
		renderNodes(b, n.Children, relPath)
		fmt.Fprintf(b, "</%s>", tag)

	case doctree.KindCodeBlock, doctree.KindDirective:
		lang := ""
		if fields := strings.Fields(n.Info); len(fields) > 0 {
			lang = fields[0]
		}
		if lang != "" {
			fmt.Fprintf(b, "<pre><code class=\"language-%s\">", html.EscapeString(strings.TrimPrefix(lang, "@")))
		} else {
			b.WriteString("<pre><code>")
		}
		b.WriteString(html.EscapeString(n.Literal))
		b.WriteString("</code></pre>\n")

	case doctree.KindLink:
		fmt.Fprintf(b, "<a href=%q>", html.EscapeString(linkHref(n.Target, relPath)))
		renderNodes(b, n.Children, relPath)
		b.WriteString("</a>")

	case doctree.KindImage:
		fmt.Fprintf(b, "<img src=%q alt=%q>", html.EscapeString(n.Target), html.EscapeString(n.PlainText()))

	case doctree.KindList:
		tag := "ul"
		if n.Ordered {
			tag = "ol"
		}
		fmt.Fprintf(b, "<%s>\n", tag)
		renderNodes(b, n.Children, relPath)
		fmt.Fprintf(b, "</%s>\n", tag)

	case doctree.KindListItem:
		b.WriteString("<li>")
		renderNodes(b, n.Children, relPath)
		b.WriteString("</li>\n")

	case doctree.KindBlockquote:
		b.WriteString("<blockquote>\n")
		renderNodes(b, n.Children, relPath)
		b.WriteString("</blockquote>\n")

	case doctree.KindThematicBreak:
		b.WriteString("<hr>\n")

	case doctree.KindHTML:
		b.WriteString(n.Literal)

	case doctree.KindErrorMarker:
		fmt.Fprintf(b, "<span class=\"docforge-error\" title=%q>%s</span>",
			html.EscapeString(n.Info), html.EscapeString(n.Literal))

	case doctree.KindRef:
		// A placeholder surviving to the writer means the resolver did not
		// run; render it as visibly broken rather than dropping it.
		fmt.Fprintf(b, "<span class=\"docforge-error\">unresolved reference: %s</span>", html.EscapeString(n.Target))
	}
}

// linkHref rewrites intra-site link targets ("file.md#key") to their rendered
// paths, relative to the referencing file. External URLs pass through.
func linkHref(target, fromRel string) string {
	if strings.Contains(target, "://") || strings.HasPrefix(target, "mailto:") || strings.HasPrefix(target, "#") {
		return target
	}
	path, frag, hasFrag := strings.Cut(target, "#")
	if !strings.HasSuffix(strings.ToLower(path), ".md") && !strings.HasSuffix(strings.ToLower(path), ".markdown") {
		return target
	}

	out := OutputPath(path)
	if path == fromRel {
		out = ""
	} else if dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(fromRel))); dir != "." {
		if rel, err := filepath.Rel(dir, out); err == nil {
			out = filepath.ToSlash(rel)
		}
	}
	if hasFrag {
		return out + "#" + frag
	}
	return out
}
