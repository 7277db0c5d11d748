// Package document defines the shared mutable state threaded through every
// build stage: the configuration snapshot, the parsed source files, the
// anchor registry, and the collected error records.
package document

import (
	"fmt"

	"git.home.luguber.info/inful/docforge/internal/anchors"
	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/doctree"
)

// ErrorKind classifies a recoverable finding collected during a build.
type ErrorKind string

const (
	KindDuplicateAnchor     ErrorKind = "duplicate-anchor"
	KindAmbiguousReference  ErrorKind = "ambiguous-reference"
	KindUnresolvedReference ErrorKind = "unresolved-reference"
	KindDoctestFailure      ErrorKind = "doctest-failure"
	KindMissingDocstring    ErrorKind = "missing-docstring"
	KindIncludeFailure      ErrorKind = "include-failure"
)

// ErrorRecord is one recoverable finding. Records are append-only; none are
// ever removed during a build.
type ErrorRecord struct {
	Kind    ErrorKind
	File    string // relative path of the file the finding belongs to
	Line    int    // 1-based, 0 when unknown
	Message string
}

func (e ErrorRecord) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Kind, e.Message)
}

// FileRecord represents one parsed source file. The content tree is rewritten
// in place by the expansion and resolution stages; it is never mutated after
// the doctest stage runs.
type FileRecord struct {
	Path    string // absolute path on disk
	RelPath string // path relative to the source root; stable identifier
	// LocalScope is set when the file's front matter opts into a file-local
	// anchor scope ("scope: local").
	LocalScope  bool
	FrontMatter map[string]any
	Nodes       []*doctree.Node
	Errors      []ErrorRecord
}

// Scope returns the anchor scope this file registers into.
func (f *FileRecord) Scope() anchors.Scope {
	if f.LocalScope {
		return anchors.ScopeLocal
	}
	return anchors.ScopeGlobal
}

// Document is the root aggregate for one build. It is created once per
// invocation, mutated in place by each stage in turn, and never shared
// between concurrent builds.
type Document struct {
	Config  *config.Config
	Files   []*FileRecord
	Assets  []string // non-markdown files, relative paths, copied through untouched
	Anchors *anchors.Registry

	// Errors is the build-wide, append-only error collection in the order
	// findings were made. Each record is also attached to its file.
	Errors []ErrorRecord

	// Unresolved counts reference placeholders that failed to resolve.
	Unresolved int
}

// New returns an empty document for the given configuration.
func New(cfg *config.Config) *Document {
	return &Document{
		Config:  cfg,
		Anchors: anchors.NewRegistry(),
	}
}

// RecordError appends a finding to the build-wide collection and, when the
// owning file is known, to that file's list. It never aborts anything.
func (d *Document) RecordError(rec ErrorRecord) {
	d.Errors = append(d.Errors, rec)
	for _, f := range d.Files {
		if f.RelPath == rec.File {
			f.Errors = append(f.Errors, rec)
			return
		}
	}
}

// HasErrors reports whether any recoverable finding was collected. A true
// value after all stages complete is the build-failure signal.
func (d *Document) HasErrors() bool { return len(d.Errors) > 0 }

// ErrorsByKind groups the collected findings for reporting.
func (d *Document) ErrorsByKind() map[ErrorKind]int {
	out := make(map[ErrorKind]int)
	for _, rec := range d.Errors {
		out[rec.Kind]++
	}
	return out
}

// File returns the record for a relative path, or nil.
func (d *Document) File(relPath string) *FileRecord {
	for _, f := range d.Files {
		if f.RelPath == relPath {
			return f
		}
	}
	return nil
}
