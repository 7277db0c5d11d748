// Package render turns a fully resolved document into on-disk output files.
// The build pipeline only depends on the Writer interface; the HTML writer
// is the default implementation.
package render

import "git.home.luguber.info/inful/docforge/internal/document"

// Writer consumes a resolved document (all placeholders resolved, all checks
// run) and produces final artifacts.
type Writer interface {
	Render(doc *document.Document) error
}
