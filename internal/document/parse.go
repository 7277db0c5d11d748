package document

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docforge/internal/anchors"
	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/doctree"
	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
	"git.home.luguber.info/inful/docforge/internal/markdown"
)

// Parse reads every source file under cfg.SourceDir and builds the document.
// Markdown files are parsed into content trees with their headings registered
// as anchors; everything else is recorded as a pass-through asset. I/O
// failures are fatal: the pipeline never starts on a partially-read tree.
//
// filepath.WalkDir visits entries in lexical order, which fixes the file
// processing order for every later stage and keeps error output reproducible.
func Parse(cfg *config.Config) (*Document, error) {
	doc := New(cfg)

	err := filepath.WalkDir(cfg.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, "walk source tree").
				WithContext("path", path).
				Fatal().
				Build()
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != cfg.SourceDir {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(cfg.SourceDir, path)
		if relErr != nil {
			return errors.Wrap(relErr, errors.CategoryFileSystem, "relativize source path").
				WithContext("path", path).
				Fatal().
				Build()
		}
		rel = filepath.ToSlash(rel)

		if !isMarkdown(path) {
			doc.Assets = append(doc.Assets, rel)
			return nil
		}

		file, parseErr := parseFile(path, rel)
		if parseErr != nil {
			return parseErr
		}
		doc.Files = append(doc.Files, file)
		registerHeadings(doc, file)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Parsed source tree",
		"source", cfg.SourceDir,
		"files", len(doc.Files),
		"assets", len(doc.Assets),
		"anchors", doc.Anchors.Len())
	return doc, nil
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func parseFile(path, rel string) (*FileRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryFileSystem, "read source file").
			WithContext("path", path).
			Fatal().
			Build()
	}

	meta, body := markdown.SplitFrontMatter(content)
	localScope := false
	if s, ok := meta["scope"].(string); ok && strings.EqualFold(s, "local") {
		localScope = true
	}

	return &FileRecord{
		Path:        path,
		RelPath:     rel,
		LocalScope:  localScope,
		FrontMatter: meta,
		Nodes:       markdown.Parse(body),
	}, nil
}

// registerHeadings registers every heading anchor discovered at parse time.
// A duplicate key is a recoverable finding; the first registration stays
// resolvable and the build continues.
func registerHeadings(doc *Document, file *FileRecord) {
	doctree.Walk(file.Nodes, func(n *doctree.Node) (doctree.Action, *doctree.Node) {
		if n.Kind != doctree.KindHeading || n.Anchor == "" {
			return doctree.Continue, nil
		}
		err := doc.Anchors.Register(anchors.Anchor{
			Key:   n.Anchor,
			File:  file.RelPath,
			Label: n.PlainText(),
			Line:  n.Line,
		}, file.Scope())
		if err != nil {
			doc.RecordError(ErrorRecord{
				Kind:    KindDuplicateAnchor,
				File:    file.RelPath,
				Line:    n.Line,
				Message: err.Error(),
			})
		}
		return doctree.Continue, nil
	})
}
