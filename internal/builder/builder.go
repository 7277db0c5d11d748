// Package builder drives the build pipeline: an ordered list of stages, each
// applied fully across every file of the document before the next one starts.
// Later stages depend on invariants established by earlier ones (every anchor
// registered before any reference resolves), so the order is a single
// explicit list and never inferred.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/doctest"
	"git.home.luguber.info/inful/docforge/internal/document"
	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
	"git.home.luguber.info/inful/docforge/internal/symbols"
)

// Stage is one pass of the build pipeline. A non-nil return is a fatal
// condition that aborts the whole pipeline; recoverable per-node findings go
// to the document's error collection instead and never abort.
type Stage interface {
	Name() string
	Run(ctx context.Context, doc *document.Document) error
}

// Report summarizes one pipeline run.
type Report struct {
	BuildID        uuid.UUID
	StageDurations map[string]time.Duration
	ErrorsByKind   map[document.ErrorKind]int
	Duration       time.Duration
}

// DefaultStages returns the standard pipeline order for a configuration:
// expansion, cross-reference resolution, doctest verification.
func DefaultStages(cfg *config.Config, provider symbols.Provider) []Stage {
	runner := &doctest.Runner{
		Command:             cfg.Doctest.Command,
		Timeout:             cfg.Doctest.Timeout(),
		NormalizeWhitespace: cfg.Doctest.NormalizeWhitespace,
	}
	return []Stage{
		&Expand{Symbols: provider, Runner: runner},
		&Resolve{},
		&CheckDocs{Runner: runner},
	}
}

// RunStages applies each stage to the document in order, recording per-stage
// timing, and stops only on fatal errors or context cancellation. The caller
// inspects doc.HasErrors afterwards to decide overall success.
func RunStages(ctx context.Context, doc *document.Document, stages []Stage) (*Report, error) {
	report := &Report{
		BuildID:        uuid.New(),
		StageDurations: make(map[string]time.Duration),
	}
	start := time.Now()

	for _, stage := range stages {
		select {
		case <-ctx.Done():
			return report, errors.Wrap(ctx.Err(), errors.CategoryBuild, "build canceled").
				WithContext("stage", stage.Name()).
				Fatal().
				Build()
		default:
		}

		before := len(doc.Errors)
		t0 := time.Now()
		err := stage.Run(ctx, doc)
		dur := time.Since(t0)
		report.StageDurations[stage.Name()] = dur

		if err != nil {
			slog.Error("Stage failed", "build_id", report.BuildID, "stage", stage.Name(), "duration", dur, "error", err)
			if _, ok := errors.AsClassified(err); ok {
				return report, err
			}
			return report, errors.Wrap(err, errors.CategoryBuild, fmt.Sprintf("stage %s failed", stage.Name())).Fatal().Build()
		}

		slog.Info("Stage complete",
			"build_id", report.BuildID,
			"stage", stage.Name(),
			"duration", dur,
			"findings", len(doc.Errors)-before)
	}

	report.Duration = time.Since(start)
	report.ErrorsByKind = doc.ErrorsByKind()
	return report, nil
}
