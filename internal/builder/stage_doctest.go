package builder

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docforge/internal/doctest"
	"git.home.luguber.info/inful/docforge/internal/doctree"
	"git.home.luguber.info/inful/docforge/internal/document"
	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
)

// CheckDocs verifies @doctest blocks: each block's code runs in isolation
// (blocks sharing a session name within one file accumulate state) and the
// captured output is compared against the expected text embedded below the
// "----" separator. Mismatches and timeouts are doctest-failure findings;
// no check ever aborts the remaining ones.
//
// The stage leaves content trees untouched; trees are final once it runs.
type CheckDocs struct {
	Runner *doctest.Runner

	// Results collects one outcome per checked block, in document order.
	Results []doctest.Result
}

// Name implements Stage.
func (c *CheckDocs) Name() string { return "doctest" }

// Run implements Stage. With run_doctests disabled the stage is skipped
// entirely: no results, no findings of this kind possible.
func (c *CheckDocs) Run(ctx context.Context, doc *document.Document) error {
	if !doc.Config.RunDoctests {
		slog.Info("Doctest checking disabled, skipping")
		return nil
	}

	for _, file := range doc.Files {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CategoryBuild, "doctest checking canceled").Fatal().Build()
		}
		c.checkFile(ctx, doc, file)
	}
	return nil
}

func (c *CheckDocs) checkFile(ctx context.Context, doc *document.Document, file *document.FileRecord) {
	sessionCode := make(map[string]string)
	sessionOutput := make(map[string]string)

	doctree.Walk(file.Nodes, func(n *doctree.Node) (doctree.Action, *doctree.Node) {
		if n.Kind != doctree.KindDirective || n.Name != "doctest" {
			return doctree.Continue, nil
		}

		code, expected := doctest.SplitBlock(n.Literal)
		run := code
		if n.Arg != "" {
			run = sessionCode[n.Arg] + code
		}

		actual, err := c.Runner.Run(ctx, run)
		if n.Arg != "" {
			// Continued sessions re-run accumulated code; compare only the
			// output produced by this block.
			if prev := sessionOutput[n.Arg]; err == nil && len(actual) >= len(prev) && actual[:len(prev)] == prev {
				sessionCode[n.Arg] = run
				sessionOutput[n.Arg] = actual
				actual = actual[len(prev):]
			}
		}

		var result doctest.Result
		if err != nil {
			result = doctest.Result{
				Pass:     false,
				Expected: expected,
				Actual:   fmt.Sprintf("%s\n%v", actual, err),
				TimedOut: stderrors.Is(err, doctest.ErrTimeout),
			}
		} else {
			result = doctest.Result{Pass: c.Runner.Equal(expected, actual), Expected: expected, Actual: actual}
		}
		c.Results = append(c.Results, result)

		if !result.Pass {
			doc.RecordError(document.ErrorRecord{
				Kind: document.KindDoctestFailure, File: file.RelPath, Line: n.Line,
				Message: fmt.Sprintf("expected %q, got %q", result.Expected, result.Actual),
			})
		}
		return doctree.SkipChildren, nil
	})
}
