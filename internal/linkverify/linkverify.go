// Package linkverify checks rendered HTML output for intra-site links whose
// target file or anchor does not exist. It runs after the writer as a final
// consistency net: the resolver guarantees source-level references, this
// guarantees the emitted artifacts.
package linkverify

import (
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
)

// Problem is one broken link found in rendered output.
type Problem struct {
	File   string // html file containing the link, relative to the site root
	Href   string // the offending href/src value
	Reason string
}

// Verify scans every .html file under siteDir and returns the broken
// intra-site links. External URLs (scheme or mailto) are not checked.
func Verify(siteDir string) ([]Problem, error) {
	pages, err := scan(siteDir)
	if err != nil {
		return nil, err
	}

	var problems []Problem
	files := make([]string, 0, len(pages))
	for f := range pages {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, file := range files {
		for _, href := range pages[file].hrefs {
			if p, broken := check(href, file, pages, siteDir); broken {
				problems = append(problems, p)
			}
		}
	}
	return problems, nil
}

type page struct {
	ids   map[string]bool
	hrefs []string
}

func scan(siteDir string) (map[string]*page, error) {
	pages := make(map[string]*page)
	err := filepath.WalkDir(siteDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, "walk rendered output").
				WithContext("path", p).
				Build()
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			return nil
		}
		rel, relErr := filepath.Rel(siteDir, p)
		if relErr != nil {
			return relErr
		}
		pg, parseErr := parsePage(p)
		if parseErr != nil {
			return parseErr
		}
		pages[filepath.ToSlash(rel)] = pg
		return nil
	})
	return pages, err
}

func parsePage(path string) (*page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryFileSystem, "open rendered file").
			WithContext("path", path).
			Build()
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryParse, "parse rendered HTML").
			WithContext("path", path).
			Build()
	}

	pg := &page{ids: make(map[string]bool)}
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				switch attr.Key {
				case "id":
					pg.ids[attr.Val] = true
				case "href", "src":
					pg.hrefs = append(pg.hrefs, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)
	return pg, nil
}

func check(href, fromFile string, pages map[string]*page, siteDir string) (Problem, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return Problem{File: fromFile, Href: href, Reason: "unparsable URL"}, true
	}
	if u.Scheme != "" || u.Host != "" {
		return Problem{}, false
	}

	target := fromFile
	if u.Path != "" {
		target = path.Clean(path.Join(path.Dir(fromFile), u.Path))
	}

	if strings.HasSuffix(strings.ToLower(target), ".html") {
		pg, ok := pages[target]
		if !ok {
			return Problem{File: fromFile, Href: href, Reason: "target file missing"}, true
		}
		if u.Fragment != "" && !pg.ids[u.Fragment] {
			return Problem{File: fromFile, Href: href, Reason: "anchor missing in target"}, true
		}
		return Problem{}, false
	}

	// Non-HTML target (asset): check existence on disk.
	if _, err := os.Stat(filepath.Join(siteDir, filepath.FromSlash(target))); err != nil {
		return Problem{File: fromFile, Href: href, Reason: "asset missing"}, true
	}
	return Problem{}, false
}
