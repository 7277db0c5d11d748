package symbols

import (
	"fmt"
	"go/ast"
	"go/doc"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/tools/go/packages"

	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
)

// GoSource extracts doc comments from a Go module's source and serves them
// under "<module name>.<symbol>" keys. The table is built once at
// construction; lookups are map hits.
type GoSource struct {
	name string
	docs map[string]string
}

// LoadGoSource loads the packages matched by patterns under dir and collects
// doc comments for the package itself, top-level consts, vars, funcs, types,
// and methods ("name.Type.Method").
func LoadGoSource(name, dir string, patterns []string) (*GoSource, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedSyntax,
		Dir: dir,
		Env: append(os.Environ(), "GOWORK=off"),
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, "load symbol module").
			WithContext("module", name).
			WithContext("dir", dir).
			Fatal().
			Build()
	}

	src := &GoSource{name: name, docs: make(map[string]string)}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, errors.New(errors.CategoryConfig, "symbol module has load errors").
				WithContext("module", name).
				WithContext("package", pkg.PkgPath).
				WithContext("first_error", pkg.Errors[0].Error()).
				Fatal().
				Build()
		}
		if err := src.collect(pkg); err != nil {
			return nil, err
		}
	}

	slog.Debug("Loaded symbol module", "module", name, "symbols", len(src.docs))
	return src, nil
}

func (s *GoSource) collect(pkg *packages.Package) error {
	var files []*ast.File
	for i, f := range pkg.Syntax {
		if i < len(pkg.GoFiles) && strings.HasSuffix(pkg.GoFiles[i], "_test.go") {
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil
	}

	dpkg, err := doc.NewFromFiles(pkg.Fset, files, pkg.PkgPath)
	if err != nil {
		return errors.Wrap(err, errors.CategoryParse, "extract package docs").
			WithContext("package", pkg.PkgPath).
			Fatal().
			Build()
	}

	if dpkg.Doc != "" {
		s.put(dpkg.Name, dpkg.Doc)
	}
	for _, v := range append(dpkg.Consts, dpkg.Vars...) {
		for _, n := range v.Names {
			s.put(fmt.Sprintf("%s.%s", dpkg.Name, n), v.Doc)
		}
	}
	for _, f := range dpkg.Funcs {
		s.put(fmt.Sprintf("%s.%s", dpkg.Name, f.Name), f.Doc)
	}
	for _, t := range dpkg.Types {
		s.put(fmt.Sprintf("%s.%s", dpkg.Name, t.Name), t.Doc)
		for _, f := range t.Funcs {
			s.put(fmt.Sprintf("%s.%s", dpkg.Name, f.Name), f.Doc)
		}
		for _, m := range t.Methods {
			s.put(fmt.Sprintf("%s.%s.%s", dpkg.Name, t.Name, m.Name), m.Doc)
		}
	}
	return nil
}

func (s *GoSource) put(key, docString string) {
	if docString == "" {
		return
	}
	// First writer wins, matching Multi's shadowing semantics.
	if _, exists := s.docs[key]; !exists {
		s.docs[key] = strings.TrimRight(docString, "\n")
	}
}

// Lookup implements Provider.
func (s *GoSource) Lookup(qualifiedName string) (string, bool) {
	docString, ok := s.docs[qualifiedName]
	return docString, ok
}

// Len returns the number of documented symbols collected.
func (s *GoSource) Len() int { return len(s.docs) }
