package builder

import (
	"context"
	stderrors "errors"
	"fmt"

	"git.home.luguber.info/inful/docforge/internal/anchors"
	"git.home.luguber.info/inful/docforge/internal/doctree"
	"git.home.luguber.info/inful/docforge/internal/document"
	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
)

// Resolve binds every reference placeholder to a registered anchor. It must
// run strictly after expansion has finished across all files: a reference in
// one file may target an anchor only created while expanding another.
//
// Every placeholder leaves this stage as either a link or a visible broken-
// reference marker — none remain ambiguous. Re-running the stage on an
// unchanged tree is a no-op: placeholders are consumed on the first pass.
type Resolve struct{}

// Name implements Stage.
func (r *Resolve) Name() string { return "resolve" }

// Run implements Stage.
func (r *Resolve) Run(ctx context.Context, doc *document.Document) error {
	for _, file := range doc.Files {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CategoryBuild, "resolution canceled").Fatal().Build()
		}
		r.resolveFile(doc, file)
	}
	return nil
}

func (r *Resolve) resolveFile(doc *document.Document, file *document.FileRecord) {
	doctree.Walk(file.Nodes, func(n *doctree.Node) (doctree.Action, *doctree.Node) {
		if n.Kind != doctree.KindRef {
			return doctree.Continue, nil
		}

		anchor, err := doc.Anchors.Resolve(n.Target, file.RelPath)
		if err == nil {
			return doctree.Continue, &doctree.Node{
				Kind:     doctree.KindLink,
				Target:   anchor.File + "#" + anchor.Key,
				Children: n.Children,
				Line:     n.Line,
			}
		}

		kind := document.KindUnresolvedReference
		if stderrors.Is(err, anchors.ErrAmbiguous) {
			kind = document.KindAmbiguousReference
		} else {
			doc.Unresolved++
		}
		doc.RecordError(document.ErrorRecord{
			Kind: kind, File: file.RelPath, Line: n.Line,
			Message: err.Error(),
		})

		broken := doctree.NewErrorMarker(fmt.Sprintf("broken reference: %s", n.Target), "@ref "+n.Target, n.Line)
		broken.Children = n.Children
		return doctree.Continue, broken
	})
}
