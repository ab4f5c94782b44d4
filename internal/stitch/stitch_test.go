package stitch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstitch/docstitch/internal/config"
	"github.com/docstitch/docstitch/internal/logging"
	"github.com/docstitch/docstitch/internal/registry"
	"github.com/docstitch/docstitch/internal/types"
)

func testLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelError,
		Output: io.Discard,
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Document: config.DocumentConfig{
			Title:        "Guide",
			FragmentsDir: "docs/fragments",
			Output:       "README.md",
		},
		Sources: config.SourcesConfig{
			ScanPaths:       []string{"playground"},
			ExcludePatterns: []string{"node_modules"},
		},
	}
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// guideProject lays out a small guide: two fragments, one playground file
// with a marked region.
func guideProject(t *testing.T) string {
	root := t.TempDir()

	write(t, root, "playground/src/store.ts", strings.Join([]string{
		"import { createStore } from 'redux'",
		"",
		"// ::snippet store-setup",
		"// ::note Requires redux 4 or later.",
		"const store = createStore(rootReducer)",
		"// ::end",
		"",
		"export default store",
	}, "\n"))

	write(t, root, "docs/fragments/10-intro.md",
		"---\ntitle: Introduction\n---\n::toc::\n")

	write(t, root, "docs/fragments/20-store.md", strings.Join([]string{
		"## Store Setup",
		"",
		"::example='playground/src/store.ts#store-setup'::",
		"",
		"## Full Module",
		"",
		"::example='playground/src/store.ts'::",
	}, "\n"))

	return root
}

func newTestGenerator(root string, cfg *config.Config) *Generator {
	return NewGenerator(cfg, registry.NewSnippetRegistry(), testLogger(), root)
}

func TestGenerate(t *testing.T) {
	root := guideProject(t)
	g := newTestGenerator(root, testConfig())

	result, err := g.Generate(context.Background())
	require.NoError(t, err)

	doc := result.Markdown
	assert.True(t, strings.HasPrefix(doc, "<!-- Generated by docstitch"))
	assert.Contains(t, doc, "# Guide")

	// TOC from the intro fragment links the store fragment's headings.
	assert.Contains(t, doc, "- [Store Setup](#store-setup)")
	assert.Contains(t, doc, "- [Full Module](#full-module)")

	// Region include with note and inferred language.
	assert.Contains(t, doc, "> Requires redux 4 or later.")
	assert.Contains(t, doc, "```typescript\nconst store = createStore(rootReducer)\n```")

	// Whole-file include keeps surrounding code but not marker lines.
	assert.Contains(t, doc, "import { createStore } from 'redux'")
	assert.NotContains(t, doc, "::snippet")
	assert.NotContains(t, doc, "::end")
	assert.NotContains(t, doc, "::example")

	assert.Equal(t, 2, result.Fragments)
	assert.Equal(t, 1, result.Snippets)
}

func TestGenerate_Deterministic(t *testing.T) {
	root := guideProject(t)
	cfg := testConfig()

	first, err := newTestGenerator(root, cfg).Generate(context.Background())
	require.NoError(t, err)
	second, err := newTestGenerator(root, cfg).Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Markdown, second.Markdown)
}

func TestGenerate_CacheHitsOnRerun(t *testing.T) {
	root := guideProject(t)
	g := newTestGenerator(root, testConfig())
	ctx := context.Background()

	first, err := g.Generate(ctx)
	require.NoError(t, err)
	assert.Zero(t, first.CacheHits)

	second, err := g.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.CacheHits)
	assert.Equal(t, first.Markdown, second.Markdown)
}

func TestGenerate_RegionRemovedBetweenRuns(t *testing.T) {
	root := guideProject(t)
	g := newTestGenerator(root, testConfig())
	ctx := context.Background()

	_, err := g.Generate(ctx)
	require.NoError(t, err)

	// Strip the marked region; the file itself stays around.
	write(t, root, "playground/src/store.ts", strings.Join([]string{
		"import { createStore } from 'redux'",
		"",
		"export default store",
	}, "\n"))

	_, err = g.Generate(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store-setup")
	assert.NotContains(t, err.Error(), "DUPLICATE_SNIPPET")
}

func TestGenerate_RegionMovedBetweenRuns(t *testing.T) {
	root := guideProject(t)
	g := newTestGenerator(root, testConfig())
	ctx := context.Background()

	_, err := g.Generate(ctx)
	require.NoError(t, err)

	// Move the region to a sibling file and repoint the fragment at it.
	source, err := os.ReadFile(filepath.Join(root, "playground/src/store.ts"))
	require.NoError(t, err)
	write(t, root, "playground/src/setup.ts", string(source))
	require.NoError(t, os.Remove(filepath.Join(root, "playground/src/store.ts")))
	write(t, root, "docs/fragments/20-store.md", strings.Join([]string{
		"## Store Setup",
		"",
		"::example='playground/src/setup.ts#store-setup'::",
	}, "\n"))

	result, err := g.Generate(ctx)
	require.NoError(t, err)
	assert.Contains(t, result.Markdown, "const store = createStore(rootReducer)")
	assert.Equal(t, 1, result.Snippets)
}

func TestGenerate_NoteEditBetweenRuns(t *testing.T) {
	root := guideProject(t)
	g := newTestGenerator(root, testConfig())
	ctx := context.Background()

	first, err := g.Generate(ctx)
	require.NoError(t, err)
	assert.Contains(t, first.Markdown, "> Requires redux 4 or later.")

	// Only the note changes; the region code stays identical.
	write(t, root, "playground/src/store.ts", strings.Join([]string{
		"import { createStore } from 'redux'",
		"",
		"// ::snippet store-setup",
		"// ::note Requires redux 5 or later.",
		"const store = createStore(rootReducer)",
		"// ::end",
		"",
		"export default store",
	}, "\n"))

	second, err := g.Generate(ctx)
	require.NoError(t, err)
	assert.Contains(t, second.Markdown, "> Requires redux 5 or later.")
	assert.NotContains(t, second.Markdown, "redux 4")
}

func TestGenerate_PersistsRenderCache(t *testing.T) {
	root := guideProject(t)
	cfg := testConfig()
	cfg.Generate.CacheDir = ".docstitch-cache"
	ctx := context.Background()

	_, err := newTestGenerator(root, cfg).Generate(ctx)
	require.NoError(t, err)

	cacheDir := filepath.Join(root, ".docstitch-cache")
	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// A fresh generator serves the persisted rendering, so tampering with a
	// cache entry shows up in its output.
	write(t, root, filepath.Join(".docstitch-cache", entries[0].Name()), "tampered entry\n")

	result, err := newTestGenerator(root, cfg).Generate(ctx)
	require.NoError(t, err)
	assert.Contains(t, result.Markdown, "tampered entry")
}

func TestGenerate_ExplicitManifestOrder(t *testing.T) {
	root := guideProject(t)
	cfg := testConfig()
	cfg.Document.Fragments = []string{
		"docs/fragments/20-store.md",
		"docs/fragments/10-intro.md",
	}

	result, err := newTestGenerator(root, cfg).Generate(context.Background())
	require.NoError(t, err)

	storeIdx := strings.Index(result.Markdown, "## Store Setup")
	tocIdx := strings.Index(result.Markdown, "- [Store Setup]")
	require.Positive(t, storeIdx)
	require.Positive(t, tocIdx)
	assert.Less(t, storeIdx, tocIdx)
}

func TestGenerate_WeightOrdering(t *testing.T) {
	root := t.TempDir()
	write(t, root, "playground/.keep.ts", "")
	write(t, root, "docs/fragments/a-last.md", "---\nweight: 90\n---\n## Last\n")
	write(t, root, "docs/fragments/b-first.md", "---\nweight: 10\n---\n## First\n")

	result, err := newTestGenerator(root, testConfig()).Generate(context.Background())
	require.NoError(t, err)

	assert.Less(t,
		strings.Index(result.Markdown, "## First"),
		strings.Index(result.Markdown, "## Last"))
}

func TestGenerate_SkipsDrafts(t *testing.T) {
	root := guideProject(t)
	write(t, root, "docs/fragments/30-wip.md", "---\ndraft: true\n---\n## Unfinished\n")

	cfg := testConfig()
	result, err := newTestGenerator(root, cfg).Generate(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, result.Markdown, "Unfinished")

	cfg.Generate.IncludeDrafts = true
	result, err = newTestGenerator(root, cfg).Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Markdown, "Unfinished")
}

func TestGenerate_MissingSnippet(t *testing.T) {
	root := guideProject(t)
	write(t, root, "docs/fragments/30-bad.md", "::snippet='no-such-region'::\n")

	_, err := newTestGenerator(root, testConfig()).Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNIPPET_NOT_FOUND")
	assert.Contains(t, err.Error(), "30-bad.md")
}

func TestGenerate_RegionFileMismatch(t *testing.T) {
	root := guideProject(t)
	write(t, root, "playground/src/other.ts", "const y = 2\n")
	write(t, root, "docs/fragments/30-bad.md",
		"::example='playground/src/other.ts#store-setup'::\n")

	_, err := newTestGenerator(root, testConfig()).Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REGION_FILE_MISMATCH")
}

func TestGenerate_TraversalRejected(t *testing.T) {
	root := guideProject(t)
	write(t, root, "docs/fragments/30-bad.md", "::example='../outside.ts'::\n")

	_, err := newTestGenerator(root, testConfig()).Generate(context.Background())
	require.Error(t, err)
}

func TestGenerate_NoFragments(t *testing.T) {
	root := t.TempDir()
	write(t, root, "playground/.keep.ts", "")

	_, err := newTestGenerator(root, testConfig()).Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NO_FRAGMENTS")
}

func TestWriteAndCheck(t *testing.T) {
	root := guideProject(t)
	g := newTestGenerator(root, testConfig())
	ctx := context.Background()

	result, err := g.Generate(ctx)
	require.NoError(t, err)

	require.NoError(t, g.Check(result))
	assert.False(t, result.UpToDate)

	require.NoError(t, g.Write(result))
	written, err := os.ReadFile(filepath.Join(root, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, result.Markdown, string(written))

	require.NoError(t, g.Check(result))
	assert.True(t, result.UpToDate)

	// A drifted output fails the check again.
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"),
		[]byte("stale"), 0o644))
	require.NoError(t, g.Check(result))
	assert.False(t, result.UpToDate)
}

func TestRenderInclude_GrowsFence(t *testing.T) {
	out := renderInclude(&include{
		content:  "```md\nnested\n```",
		language: "markdown",
	})

	assert.True(t, strings.HasPrefix(out, "````markdown\n"))
	assert.True(t, strings.HasSuffix(out, "\n````"))
}

func TestFragmentTitle(t *testing.T) {
	withMeta := &types.FragmentInfo{
		Path: "docs/fragments/10-intro.md",
		Meta: types.FrontMatter{Title: "Hello There"},
	}
	assert.Equal(t, "Hello There", FragmentTitle(withMeta))

	derived := &types.FragmentInfo{Path: "docs/fragments/20-react-patterns.md"}
	assert.Equal(t, "React Patterns", FragmentTitle(derived))

	underscore := &types.FragmentInfo{Path: "docs/fragments/advanced_usage.md"}
	assert.Equal(t, "Advanced Usage", FragmentTitle(underscore))
}
