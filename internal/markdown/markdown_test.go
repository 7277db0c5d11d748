package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docforge/internal/doctree"
)

func findKind(forest []*doctree.Node, kind doctree.Kind) []*doctree.Node {
	var out []*doctree.Node
	doctree.Walk(forest, func(n *doctree.Node) (doctree.Action, *doctree.Node) {
		if n.Kind == kind {
			out = append(out, n)
		}
		return doctree.Continue, nil
	})
	return out
}

func TestParse_HeadingGetsSlugAnchor(t *testing.T) {
	forest := Parse([]byte("# Getting Started\n\nSome text.\n"))
	headings := findKind(forest, doctree.KindHeading)
	require.Len(t, headings, 1)
	assert.Equal(t, 1, headings[0].Level)
	assert.Equal(t, "getting-started", headings[0].Anchor)
	assert.Equal(t, 1, headings[0].Line)

	paras := findKind(forest, doctree.KindParagraph)
	require.Len(t, paras, 1)
	assert.Equal(t, 3, paras[0].Line)
}

func TestParse_DirectiveFence(t *testing.T) {
	src := "intro\n\n```@docs mypkg.Run\n```\n\n```@example session-1\nprintln(2+2)\n```\n"
	forest := Parse([]byte(src))
	directives := findKind(forest, doctree.KindDirective)
	require.Len(t, directives, 2)

	assert.Equal(t, "docs", directives[0].Name)
	assert.Equal(t, "mypkg.Run", directives[0].Arg)

	assert.Equal(t, "example", directives[1].Name)
	assert.Equal(t, "session-1", directives[1].Arg)
	assert.Equal(t, "println(2+2)\n", directives[1].Literal)
}

func TestParse_OrdinaryFenceStaysCodeBlock(t *testing.T) {
	forest := Parse([]byte("```go\nfmt.Println()\n```\n"))
	require.Empty(t, findKind(forest, doctree.KindDirective))
	blocks := findKind(forest, doctree.KindCodeBlock)
	require.Len(t, blocks, 1)
	assert.Equal(t, "go", blocks[0].Info)
}

func TestParse_BareRefUsesSluggedLabel(t *testing.T) {
	forest := Parse([]byte("See [Getting Started](@ref) for details.\n"))
	refs := findKind(forest, doctree.KindRef)
	require.Len(t, refs, 1)
	assert.Equal(t, "getting-started", refs[0].Target)
	assert.Equal(t, "Getting Started", (&doctree.Node{Kind: doctree.KindFragment, Children: refs[0].Children}).PlainText())
}

func TestParse_KeyedRef(t *testing.T) {
	forest := Parse([]byte("See [the API](<@ref mypkg.Run>).\n"))
	refs := findKind(forest, doctree.KindRef)
	require.Len(t, refs, 1)
	assert.Equal(t, "mypkg.Run", refs[0].Target)
}

func TestParse_OrdinaryLinkNotTreatedAsRef(t *testing.T) {
	forest := Parse([]byte("[site](https://example.org)\n"))
	require.Empty(t, findKind(forest, doctree.KindRef))
	links := findKind(forest, doctree.KindLink)
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.org", links[0].Target)
}

func TestSplitFrontMatter(t *testing.T) {
	meta, body := SplitFrontMatter([]byte("---\nscope: local\ntitle: Internals\n---\n# Body\n"))
	require.NotNil(t, meta)
	assert.Equal(t, "local", meta["scope"])
	assert.Equal(t, "# Body\n", string(body))
}

func TestSplitFrontMatter_Absent(t *testing.T) {
	meta, body := SplitFrontMatter([]byte("# Body\n"))
	assert.Nil(t, meta)
	assert.Equal(t, "# Body\n", string(body))
}

func TestSplitFrontMatter_Unclosed(t *testing.T) {
	content := []byte("---\nkey: value\n# Body\n")
	meta, body := SplitFrontMatter(content)
	assert.Nil(t, meta)
	assert.Equal(t, content, body)
}
