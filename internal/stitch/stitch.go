// Package stitch assembles guide documents from Markdown fragments and
// playground snippets. It resolves include directives against the snippet
// registry, renders fenced code blocks, builds the table of contents, and
// writes deterministic output so generated documents can be diffed in CI.
package stitch

import (
	"context"
	stderrors "errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/docstitch/docstitch/internal/config"
	"github.com/docstitch/docstitch/internal/directive"
	"github.com/docstitch/docstitch/internal/errors"
	"github.com/docstitch/docstitch/internal/logging"
	"github.com/docstitch/docstitch/internal/registry"
	"github.com/docstitch/docstitch/internal/scanner"
	"github.com/docstitch/docstitch/internal/types"
	"github.com/docstitch/docstitch/internal/validation"
)

// tocPlaceholder stands in for ::toc:: until every heading of the document
// is known. It is a harmless HTML comment if substitution ever fails.
const tocPlaceholder = "<!-- docstitch:toc -->"

const (
	cacheMaxSize = 16 << 20
	cacheTTL     = time.Hour
)

var fragmentOrderPrefixRE = regexp.MustCompile(`^\d+[-_]?`)

// Generator stitches fragments and snippets into output documents.
type Generator struct {
	config   *config.Config
	registry *registry.SnippetRegistry
	scanner  *scanner.SourceScanner
	cache    *RenderCache
	logger   logging.Logger
	root     string
}

// Result summarizes one generation run.
type Result struct {
	Markdown    string
	OutputPath  string
	Fragments   int
	Snippets    int
	CacheHits   int64
	CacheMisses int64
	Duration    time.Duration
	UpToDate    bool
}

// NewGenerator creates a generator rooted at the project directory root.
func NewGenerator(cfg *config.Config, reg *registry.SnippetRegistry, logger logging.Logger, root string) *Generator {
	src := scanner.NewSourceScanner(reg)
	src.SetExcludePatterns(cfg.Sources.ExcludePatterns)

	return &Generator{
		config:   cfg,
		registry: reg,
		scanner:  src,
		cache:    NewRenderCache(cacheMaxSize, cacheTTL),
		logger:   logger.WithComponent("stitch"),
		root:     root,
	}
}

// Scanner exposes the generator's source scanner for watch-mode rescans.
func (g *Generator) Scanner() *scanner.SourceScanner {
	return g.scanner
}

// Generate scans the playground, resolves every fragment, and assembles the
// document. It does not touch the output file; see Write and Check.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	start := time.Now()
	hitsBefore, missesBefore := g.cache.Stats()

	if err := g.scanSources(ctx); err != nil {
		return nil, err
	}

	fragments, err := g.loadFragments()
	if err != nil {
		return nil, err
	}
	if len(fragments) == 0 {
		return nil, errors.NewGenerateError("NO_FRAGMENTS",
			fmt.Sprintf("no fragments found under %q", g.config.Document.FragmentsDir), nil)
	}

	bodies := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		body, err := g.renderFragment(fragment)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}

	doc := g.assemble(bodies)

	hitsAfter, missesAfter := g.cache.Stats()
	result := &Result{
		Markdown:    doc,
		OutputPath:  filepath.Join(g.root, g.config.Document.Output),
		Fragments:   len(fragments),
		Snippets:    g.registry.SnippetCount(),
		CacheHits:   hitsAfter - hitsBefore,
		CacheMisses: missesAfter - missesBefore,
		Duration:    time.Since(start),
	}

	g.logger.Info(ctx, "Document assembled",
		"fragments", result.Fragments,
		"snippets", result.Snippets,
		"cache_hits", result.CacheHits,
		"duration", result.Duration.String(),
	)

	return result, nil
}

// Write stores the assembled document at its output path atomically.
func (g *Generator) Write(result *Result) error {
	if err := os.MkdirAll(filepath.Dir(result.OutputPath), 0o755); err != nil {
		return errors.NewIOError("WRITE_OUTPUT", "creating output directory", err)
	}

	tmp := result.OutputPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(result.Markdown), 0o644); err != nil {
		return errors.NewIOError("WRITE_OUTPUT", "writing output", err)
	}
	if err := os.Rename(tmp, result.OutputPath); err != nil {
		os.Remove(tmp)
		return errors.NewIOError("WRITE_OUTPUT", "replacing output", err)
	}

	return nil
}

// Check compares the assembled document with the file on disk and records
// the verdict in result. A missing file counts as out of date.
func (g *Generator) Check(result *Result) error {
	existing, err := os.ReadFile(result.OutputPath)
	if err != nil {
		if os.IsNotExist(err) {
			result.UpToDate = false
			return nil
		}
		return errors.NewIOError("CHECK_OUTPUT", "reading existing output", err)
	}

	result.UpToDate = string(existing) == result.Markdown

	return nil
}

// persistPath maps a cache key to its on-disk location under the configured
// cache directory, or "" when persistence is disabled.
func (g *Generator) persistPath(key string) string {
	if g.config.Generate.CacheDir == "" {
		return ""
	}
	return filepath.Join(g.root, g.config.Generate.CacheDir, key+".md")
}

// readPersisted loads a rendered fragment from the cache directory. Keys are
// content hashes of the fragment and everything it includes, so a hit is
// valid regardless of which process wrote it.
func (g *Generator) readPersisted(key string) ([]byte, bool) {
	path := g.persistPath(key)
	if path == "" {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// writePersisted stores a rendered fragment in the cache directory. Cache
// write failures never fail generation.
func (g *Generator) writePersisted(key string, data []byte) {
	path := g.persistPath(key)
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		g.logger.Debug(context.Background(), "Cache directory not writable", "path", path, "error", err.Error())
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		g.logger.Debug(context.Background(), "Cache write failed", "path", path, "error", err.Error())
	}
}

func (g *Generator) scanSources(ctx context.Context) error {
	// Every path is scanned even when one fails, so each tree still
	// reconciles its registry entries and a later pass starts clean.
	var collected errors.ErrorCollection
	for _, scanPath := range g.config.Sources.ScanPaths {
		resolved, err := validation.ResolveWithin(g.root, scanPath)
		if err != nil {
			collected.Add(err)
			continue
		}
		if err := g.scanner.ScanDirectory(resolved); err != nil {
			collected.Add(err)
			continue
		}
		g.logger.Debug(ctx, "Scanned sources", "path", scanPath)
	}

	if collected.HasErrors() {
		return &collected
	}

	return nil
}

// loadFragments parses and orders the fragments named by the manifest, or
// globs the fragments directory when no manifest is configured.
func (g *Generator) loadFragments() ([]*types.FragmentInfo, error) {
	paths, explicit, err := g.fragmentPaths()
	if err != nil {
		return nil, err
	}

	fragments := make([]*types.FragmentInfo, 0, len(paths))
	for _, path := range paths {
		fragment, err := directive.ParseFile(path)
		if err != nil {
			return nil, err
		}
		if fragment.Meta.Draft && !g.config.Generate.IncludeDrafts {
			continue
		}
		g.registry.RegisterFragment(fragment)
		fragments = append(fragments, fragment)
	}

	// Explicit manifests fix the order themselves; globbed directories
	// order by front matter weight, then path.
	if !explicit {
		sort.SliceStable(fragments, func(i, j int) bool {
			if fragments[i].Meta.Weight != fragments[j].Meta.Weight {
				return fragments[i].Meta.Weight < fragments[j].Meta.Weight
			}
			return fragments[i].Path < fragments[j].Path
		})
	}

	return fragments, nil
}

func (g *Generator) fragmentPaths() (paths []string, explicit bool, err error) {
	if len(g.config.Document.Fragments) > 0 {
		for _, entry := range g.config.Document.Fragments {
			resolved, err := validation.ResolveWithin(g.root, entry)
			if err != nil {
				return nil, true, err
			}
			matches, err := filepath.Glob(resolved)
			if err != nil {
				return nil, true, errors.NewConfigError("BAD_FRAGMENT_GLOB",
					fmt.Sprintf("invalid fragment pattern %q", entry))
			}
			if len(matches) == 0 {
				return nil, true, errors.NewConfigError("FRAGMENT_MISSING",
					fmt.Sprintf("fragment pattern %q matched nothing", entry))
			}
			sort.Strings(matches)
			paths = append(paths, matches...)
		}
		return paths, true, nil
	}

	dir, err := validation.ResolveWithin(g.root, g.config.Document.FragmentsDir)
	if err != nil {
		return nil, false, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, false, errors.NewIOError("FRAGMENT_GLOB", "globbing fragments", err)
	}
	sort.Strings(matches)

	return matches, false, nil
}

// include is a resolved directive target ready to render.
type include struct {
	content  string
	language string
	notes    []string
	hash     string
}

func (g *Generator) renderFragment(fragment *types.FragmentInfo) (string, error) {
	includes := make(map[int]*include, len(fragment.Directives))
	includeHashes := make([]string, 0, len(fragment.Directives))
	for _, d := range fragment.Directives {
		if d.Kind == types.DirectiveTOC {
			continue
		}
		inc, err := g.resolveDirective(d)
		if err != nil {
			return "", annotate(err, fragment.Path, d.Line)
		}
		includes[d.BodyLine] = inc
		includeHashes = append(includeHashes, inc.hash)
	}

	key := CacheKey(fragment.Hash, includeHashes)
	if cached, ok := g.cache.Get(key); ok {
		return string(cached), nil
	}
	if cached, ok := g.readPersisted(key); ok {
		g.cache.Set(key, cached)
		return string(cached), nil
	}

	directiveLines := make(map[int]types.Directive, len(fragment.Directives))
	for _, d := range fragment.Directives {
		directiveLines[d.BodyLine] = d
	}

	var out []string
	var fences validation.FenceTracker
	for i, line := range strings.Split(fragment.Body, "\n") {
		if fences.Observe(line) || fences.InFence() {
			out = append(out, line)
			continue
		}

		d, isDirective := directiveLines[i+1]
		if !isDirective {
			out = append(out, line)
			continue
		}

		if d.Kind == types.DirectiveTOC {
			out = append(out, tocPlaceholder)
			continue
		}
		out = append(out, renderInclude(includes[d.BodyLine]))
	}

	rendered := strings.Join(out, "\n")
	g.cache.Set(key, []byte(rendered))
	g.writePersisted(key, []byte(rendered))

	return rendered, nil
}

func (g *Generator) resolveDirective(d types.Directive) (*include, error) {
	switch d.Kind {
	case types.DirectiveExample:
		return g.resolveExample(d)
	case types.DirectiveSnippet:
		snippet, ok := g.registry.GetSnippet(d.Target)
		if !ok {
			return nil, errors.ErrSnippetNotFound(d.Target)
		}
		return includeFromSnippet(snippet, d.Language), nil
	default:
		return nil, errors.NewInternalError("UNKNOWN_DIRECTIVE",
			fmt.Sprintf("unhandled directive kind %q", d.Kind), nil)
	}
}

func (g *Generator) resolveExample(d types.Directive) (*include, error) {
	resolved, err := validation.ResolveWithin(g.root, d.Target)
	if err != nil {
		return nil, err
	}

	if d.Region == "" {
		text, lang, err := scanner.ReadWholeFile(resolved)
		if err != nil {
			return nil, err
		}
		if d.Language != "" {
			lang = d.Language
		}
		return &include{
			content:  text,
			language: lang,
			hash:     fmt.Sprintf("%x", crc32.ChecksumIEEE([]byte(text))),
		}, nil
	}

	snippet, ok := g.registry.GetSnippet(d.Region)
	if !ok {
		return nil, errors.ErrSnippetNotFound(d.Region)
	}
	if snippet.FilePath != resolved {
		return nil, errors.NewValidationError("REGION_FILE_MISMATCH",
			fmt.Sprintf("region %q lives in %s, not %s", d.Region, snippet.FilePath, d.Target))
	}

	return includeFromSnippet(snippet, d.Language), nil
}

func includeFromSnippet(snippet *types.SnippetInfo, langOverride string) *include {
	lang := snippet.Language
	if langOverride != "" {
		lang = langOverride
	}
	return &include{
		content:  snippet.Content,
		language: lang,
		notes:    snippet.Notes,
		hash:     snippet.Hash,
	}
}

// renderInclude produces the Markdown for one resolved include: notes as a
// blockquote, then the fenced code block. The fence grows when the content
// itself contains backtick fences.
func renderInclude(inc *include) string {
	var b strings.Builder

	for _, note := range inc.notes {
		b.WriteString("> ")
		b.WriteString(note)
		b.WriteString("\n")
	}
	if len(inc.notes) > 0 {
		b.WriteString("\n")
	}

	fence := "```"
	for strings.Contains(inc.content, fence) {
		fence += "`"
	}

	b.WriteString(fence)
	b.WriteString(inc.language)
	b.WriteString("\n")
	b.WriteString(inc.content)
	b.WriteString("\n")
	b.WriteString(fence)

	return b.String()
}

// assemble joins rendered fragment bodies, prepends the banner and title,
// and substitutes the table of contents.
func (g *Generator) assemble(bodies []string) string {
	var parts []string

	if !g.config.Generate.NoBanner {
		parts = append(parts, fmt.Sprintf(
			"<!-- Generated by docstitch from %s; DO NOT EDIT directly. -->",
			g.config.Document.FragmentsDir))
	}
	if g.config.Document.Title != "" {
		parts = append(parts, "# "+g.config.Document.Title)
	}
	for _, body := range bodies {
		trimmed := strings.TrimSpace(body)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	doc := strings.Join(parts, "\n\n") + "\n"

	if strings.Contains(doc, tocPlaceholder) {
		doc = strings.ReplaceAll(doc, tocPlaceholder, buildTOC(doc))
	}

	return doc
}

// FragmentTitle returns the fragment's display title: front matter when
// present, otherwise the file name with order prefixes stripped and words
// title-cased.
func FragmentTitle(fragment *types.FragmentInfo) string {
	if fragment.Meta.Title != "" {
		return fragment.Meta.Title
	}

	base := strings.TrimSuffix(filepath.Base(fragment.Path), filepath.Ext(fragment.Path))
	base = fragmentOrderPrefixRE.ReplaceAllString(base, "")
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)

	return cases.Title(language.English).String(base)
}

func annotate(err error, path string, line int) error {
	var de *errors.DocstitchError
	if stderrors.As(err, &de) && de.FilePath == "" {
		return de.WithLocation(path, line, 0)
	}

	return fmt.Errorf("%s:%d: %w", path, line, err)
}
