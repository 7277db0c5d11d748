package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/doctree"
	"git.home.luguber.info/inful/docforge/internal/document"
	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
	"git.home.luguber.info/inful/docforge/internal/symbols"
)

// parseFixture parses a source tree laid out as rel-path -> content.
func parseFixture(t *testing.T, files map[string]string) *document.Document {
	t.Helper()
	src := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(src, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	cfg := config.Default()
	cfg.SourceDir = src
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	doc, err := document.Parse(cfg)
	require.NoError(t, err)
	return doc
}

func run(t *testing.T, doc *document.Document, provider symbols.Provider) *Report {
	t.Helper()
	report, err := RunStages(context.Background(), doc, DefaultStages(doc.Config, provider))
	require.NoError(t, err)
	return report
}

func collect(doc *document.Document, kind doctree.Kind) []*doctree.Node {
	var out []*doctree.Node
	for _, f := range doc.Files {
		doctree.Walk(f.Nodes, func(n *doctree.Node) (doctree.Action, *doctree.Node) {
			if n.Kind == kind {
				out = append(out, n)
			}
			return doctree.Continue, nil
		})
	}
	return out
}

func TestPipeline_HeadingRefResolvesCleanly(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"index.md": "# Intro\n\nSee [Intro](@ref).\n",
	})
	run(t, doc, symbols.Static{})

	require.False(t, doc.HasErrors())
	links := collect(doc, doctree.KindLink)
	require.Len(t, links, 1)
	assert.Equal(t, "index.md#intro", links[0].Target)
	assert.Empty(t, collect(doc, doctree.KindRef), "no placeholder survives resolution")
}

func TestPipeline_CrossFileReferenceNeedsAllFilesExpanded(t *testing.T) {
	// a.md references an anchor that only exists once b.md's @docs expands.
	doc := parseFixture(t, map[string]string{
		"a.md": "See [the API](<@ref mypkg.Run>).\n",
		"b.md": "# API\n\n```@docs mypkg.Run\n```\n",
	})
	run(t, doc, symbols.Static{"mypkg.Run": "Run starts the thing."})

	require.False(t, doc.HasErrors())
	links := collect(doc, doctree.KindLink)
	require.NotEmpty(t, links)
	assert.Equal(t, "b.md#mypkg.Run", links[0].Target)
}

func TestPipeline_UnresolvedReferenceIsMarkedNotFatal(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"index.md": "See [ghost](<@ref ghost>).\n",
	})
	run(t, doc, symbols.Static{})

	require.Len(t, doc.Errors, 1)
	assert.Equal(t, document.KindUnresolvedReference, doc.Errors[0].Kind)
	assert.Equal(t, 1, doc.Unresolved)
	require.Len(t, collect(doc, doctree.KindErrorMarker), 1)
}

func TestPipeline_MissingDocstringContinuesExpansion(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"api.md": "```@docs mypkg.Gone\n```\n\n```@docs mypkg.Here\n```\n",
	})
	run(t, doc, symbols.Static{"mypkg.Here": "Here is documented."})

	require.Len(t, doc.Errors, 1)
	assert.Equal(t, document.KindMissingDocstring, doc.Errors[0].Kind)

	// The second directive in the same file still expanded.
	markers := collect(doc, doctree.KindErrorMarker)
	require.Len(t, markers, 1)
	assert.Contains(t, markers[0].Literal, "mypkg.Gone")
	assert.True(t, doc.Anchors.Has("mypkg.Here", "api.md"))
}

func TestPipeline_DuplicateDocsAnchorKeepsFirst(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"a.md": "```@docs mypkg.Run\n```\n",
		"b.md": "```@docs mypkg.Run\n```\n",
	})
	run(t, doc, symbols.Static{"mypkg.Run": "Run runs."})

	require.Len(t, doc.Errors, 1)
	assert.Equal(t, document.KindDuplicateAnchor, doc.Errors[0].Kind)
	assert.Equal(t, "b.md", doc.Errors[0].File)

	a, err := doc.Anchors.Resolve("mypkg.Run", "c.md")
	require.NoError(t, err)
	assert.Equal(t, "a.md", a.File)
}

func TestResolve_Idempotent(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"index.md": "# Intro\n\nSee [Intro](@ref) and [ghost](<@ref ghost>).\n",
	})
	stages := DefaultStages(doc.Config, symbols.Static{})
	_, err := RunStages(context.Background(), doc, stages)
	require.NoError(t, err)

	errsAfterFirst := len(doc.Errors)
	anchorsAfterFirst := doc.Anchors.Len()
	linksAfterFirst := collect(doc, doctree.KindLink)

	require.NoError(t, (&Resolve{}).Run(context.Background(), doc))

	assert.Equal(t, errsAfterFirst, len(doc.Errors), "no new findings on re-run")
	assert.Equal(t, anchorsAfterFirst, doc.Anchors.Len())
	assert.Equal(t, linksAfterFirst, collect(doc, doctree.KindLink), "same link targets")
}

func TestCheckDocs_FailureCapturesBothOutputs(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"examples.md": "```@doctest\necho 5\n----\n4\n```\n",
	})
	stages := DefaultStages(doc.Config, symbols.Static{})
	_, err := RunStages(context.Background(), doc, stages)
	require.NoError(t, err)

	checker := stages[2].(*CheckDocs)
	require.Len(t, checker.Results, 1)
	res := checker.Results[0]
	assert.False(t, res.Pass)
	assert.Contains(t, res.Expected, "4")
	assert.Contains(t, res.Actual, "5")

	require.True(t, doc.HasErrors(), "doctest failure fails the build")
	assert.Equal(t, document.KindDoctestFailure, doc.Errors[0].Kind)
}

func TestCheckDocs_PassingBlock(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"examples.md": "```@doctest\necho 4\n----\n4\n```\n",
	})
	stages := DefaultStages(doc.Config, symbols.Static{})
	_, err := RunStages(context.Background(), doc, stages)
	require.NoError(t, err)
	assert.False(t, doc.HasErrors())
}

func TestCheckDocs_ContinuedSessionSharesState(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"session.md": "```@doctest s1\nX=4\n----\n```\n\n```@doctest s1\necho $X\n----\n4\n```\n",
	})
	stages := DefaultStages(doc.Config, symbols.Static{})
	_, err := RunStages(context.Background(), doc, stages)
	require.NoError(t, err)
	assert.False(t, doc.HasErrors(), "second block sees the first block's variable")
}

func TestCheckDocs_DisabledProducesNothing(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"examples.md": "```@doctest\necho 5\n----\n4\n```\n",
	})
	doc.Config.RunDoctests = false
	stages := DefaultStages(doc.Config, symbols.Static{})
	_, err := RunStages(context.Background(), doc, stages)
	require.NoError(t, err)

	checker := stages[2].(*CheckDocs)
	assert.Empty(t, checker.Results)
	assert.False(t, doc.HasErrors())
}

func TestExpand_ExampleBlockInlinesOutput(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"demo.md": "```@example\necho hello\n```\n",
	})
	run(t, doc, symbols.Static{})

	require.False(t, doc.HasErrors())
	blocks := collect(doc, doctree.KindCodeBlock)
	require.Len(t, blocks, 2, "source block plus output block")
	assert.Equal(t, "example", blocks[0].Info)
	assert.Equal(t, "output", blocks[1].Info)
	assert.Contains(t, blocks[1].Literal, "hello")
}

func TestExpand_FailingExampleIsRecoverable(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"demo.md": "```@example\nexit 9\n```\n\n# After\n",
	})
	run(t, doc, symbols.Static{})

	require.Len(t, doc.Errors, 1)
	assert.Equal(t, document.KindDoctestFailure, doc.Errors[0].Kind)
	require.Len(t, collect(doc, doctree.KindErrorMarker), 1)
}

func TestExpand_IncludeDirective(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"guide.md":   "```@include snippet.sh\n```\n",
		"snippet.sh": "echo included\n",
		"missing.md": "```@include nowhere.txt\n```\n",
		"partial.md": "```@include part.md\n```\n",
		"part.md":    "# Part\n\nIncluded prose.\n",
	})
	run(t, doc, symbols.Static{})

	byKind := doc.ErrorsByKind()
	assert.Equal(t, 1, byKind[document.KindIncludeFailure])

	guide := doc.File("guide.md")
	require.NotNil(t, guide)
	var found bool
	doctree.Walk(guide.Nodes, func(n *doctree.Node) (doctree.Action, *doctree.Node) {
		if n.Kind == doctree.KindCodeBlock && n.Literal == "echo included\n" {
			found = true
		}
		return doctree.Continue, nil
	})
	assert.True(t, found)
}

func TestRunStages_CancellationAborts(t *testing.T) {
	doc := parseFixture(t, map[string]string{"a.md": "# A\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunStages(ctx, doc, DefaultStages(doc.Config, symbols.Static{}))
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.True(t, ce.IsFatal())
}

func TestRunStages_ReportCoversStagesAndFindings(t *testing.T) {
	doc := parseFixture(t, map[string]string{
		"index.md": "See [ghost](<@ref ghost>).\n",
	})
	report := run(t, doc, symbols.Static{})

	assert.Contains(t, report.StageDurations, "expand")
	assert.Contains(t, report.StageDurations, "resolve")
	assert.Contains(t, report.StageDurations, "doctest")
	assert.Equal(t, 1, report.ErrorsByKind[document.KindUnresolvedReference])
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", report.BuildID.String())
}
