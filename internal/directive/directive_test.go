package directive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstitch/docstitch/internal/types"
)

func TestParse_Directives(t *testing.T) {
	body := "# Store\n\n" +
		"::example='src/store.ts'::\n\n" +
		"::example='src/store.ts#store-setup'::\n\n" +
		"::example='webpack.config.js' lang='javascript'::\n\n" +
		"::snippet='typed-reducer'::\n\n" +
		"::toc::\n"

	fragment, err := Parse("docs/fragments/store.md", []byte(body))
	require.NoError(t, err)
	require.Len(t, fragment.Directives, 5)

	d := fragment.Directives[0]
	assert.Equal(t, types.DirectiveExample, d.Kind)
	assert.Equal(t, "src/store.ts", d.Target)
	assert.Empty(t, d.Region)
	assert.Equal(t, 3, d.Line)

	d = fragment.Directives[1]
	assert.Equal(t, "src/store.ts", d.Target)
	assert.Equal(t, "store-setup", d.Region)
	assert.Equal(t, 5, d.Line)

	d = fragment.Directives[2]
	assert.Equal(t, "javascript", d.Language)

	d = fragment.Directives[3]
	assert.Equal(t, types.DirectiveSnippet, d.Kind)
	assert.Equal(t, "typed-reducer", d.Target)

	assert.Equal(t, types.DirectiveTOC, fragment.Directives[4].Kind)
}

func TestParse_FrontMatter(t *testing.T) {
	content := "---\ntitle: Redux Patterns\nweight: 20\ndraft: true\n---\n# Redux\n\n::toc::\n"

	fragment, err := Parse("redux.md", []byte(content))
	require.NoError(t, err)
	assert.Equal(t, "Redux Patterns", fragment.Meta.Title)
	assert.Equal(t, 20, fragment.Meta.Weight)
	assert.True(t, fragment.Meta.Draft)
	assert.Equal(t, "# Redux\n\n::toc::\n", fragment.Body)

	// Directive line numbers stay file-relative across the front matter.
	require.Len(t, fragment.Directives, 1)
	assert.Equal(t, 8, fragment.Directives[0].Line)
}

func TestParse_NoFrontMatter(t *testing.T) {
	fragment, err := Parse("plain.md", []byte("# Plain\n"))
	require.NoError(t, err)
	assert.Equal(t, types.FrontMatter{}, fragment.Meta)
	assert.Equal(t, "# Plain\n", fragment.Body)
}

func TestParse_EmptyFrontMatter(t *testing.T) {
	fragment, err := Parse("empty.md", []byte("---\n---\n# Body\n"))
	require.NoError(t, err)
	assert.Equal(t, types.FrontMatter{}, fragment.Meta)
	assert.Equal(t, "# Body\n", fragment.Body)

	// A closing fence at end of input works the same way.
	fragment, err = Parse("bare.md", []byte("---\n---"))
	require.NoError(t, err)
	assert.Equal(t, types.FrontMatter{}, fragment.Meta)
	assert.Empty(t, fragment.Body)
}

func TestParse_UnclosedFrontMatter(t *testing.T) {
	_, err := Parse("broken.md", []byte("---\ntitle: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_FRONT_MATTER")
}

func TestParse_InvalidFrontMatterYAML(t *testing.T) {
	_, err := Parse("broken.md", []byte("---\n: : :\n---\nbody\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_FRONT_MATTER")
}

func TestParse_MalformedDirective(t *testing.T) {
	_, err := Parse("bad.md", []byte("intro\n::example=src/missing-quotes.ts::\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MALFORMED_DIRECTIVE")
	assert.Contains(t, err.Error(), "bad.md:2")
}

func TestParse_EmptyRegion(t *testing.T) {
	_, err := Parse("bad.md", []byte("::example='src/a.ts#'::\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MALFORMED_DIRECTIVE")
}

func TestParse_IgnoresDirectivesInFences(t *testing.T) {
	body := "```md\n::example='not/real.ts'::\n```\n"

	fragment, err := Parse("fenced.md", []byte(body))
	require.NoError(t, err)
	assert.Empty(t, fragment.Directives)
}

func TestParse_DoubleColonProseIsNotADirective(t *testing.T) {
	// A line merely starting with a word is fine; only "::" openings are
	// held to directive syntax.
	fragment, err := Parse("prose.md", []byte("C++ uses :: for scope resolution.\n"))
	require.NoError(t, err)
	assert.Empty(t, fragment.Directives)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intro.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Intro\n---\n# Intro\n"), 0o644))

	fragment, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Intro", fragment.Meta.Title)
	assert.False(t, fragment.LastMod.IsZero())
	assert.NotEmpty(t, fragment.Hash)

	_, err = ParseFile(filepath.Join(dir, "missing.md"))
	assert.Error(t, err)
}
