package scanner

import (
	"regexp"
	"strings"

	"github.com/docstitch/docstitch/internal/errors"
)

// Region markers are comments in the host language:
//
//	// ::snippet store-setup
//	const store = configureStore(...)
//	// ::end
//
// A ::note marker inside a region attaches a documentary note that the
// generator renders as a blockquote before the code block. Marker lines are
// never part of the extracted text.
const (
	startMarker = "::snippet"
	endMarker   = "::end"
	noteMarker  = "::note"
)

// commentStyle describes how the host language writes line comments.
type commentStyle struct {
	prefix string
	suffix string // closing token for block-comment languages, empty otherwise
}

var commentStyles = map[string]commentStyle{
	".go":   {prefix: "//"},
	".ts":   {prefix: "//"},
	".tsx":  {prefix: "//"},
	".js":   {prefix: "//"},
	".jsx":  {prefix: "//"},
	".java": {prefix: "//"},
	".c":    {prefix: "//"},
	".h":    {prefix: "//"},
	".rs":   {prefix: "//"},
	".py":   {prefix: "#"},
	".rb":   {prefix: "#"},
	".sh":   {prefix: "#"},
	".yml":  {prefix: "#"},
	".yaml": {prefix: "#"},
	".toml": {prefix: "#"},
	".html": {prefix: "<!--", suffix: "-->"},
	".xml":  {prefix: "<!--", suffix: "-->"},
	".css":  {prefix: "/*", suffix: "*/"},
	".scss": {prefix: "//"},
	".sql":  {prefix: "--"},
}

var fenceLanguages = map[string]string{
	".go":   "go",
	".ts":   "typescript",
	".tsx":  "tsx",
	".js":   "javascript",
	".jsx":  "jsx",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".rs":   "rust",
	".py":   "python",
	".rb":   "ruby",
	".sh":   "bash",
	".yml":  "yaml",
	".yaml": "yaml",
	".toml": "toml",
	".html": "html",
	".xml":  "xml",
	".css":  "css",
	".scss": "scss",
	".sql":  "sql",
	".json": "json",
	".md":   "markdown",
}

// FenceLanguage returns the fenced-block language for a file extension,
// empty when unknown.
func FenceLanguage(ext string) string {
	return fenceLanguages[strings.ToLower(ext)]
}

// SupportedExtension reports whether files with this extension are scanned
// for region markers.
func SupportedExtension(ext string) bool {
	_, ok := commentStyles[strings.ToLower(ext)]
	return ok
}

// markerSet holds the compiled marker patterns for one comment style.
type markerSet struct {
	start *regexp.Regexp
	end   *regexp.Regexp
	note  *regexp.Regexp
}

var markerSets = func() map[commentStyle]markerSet {
	sets := make(map[commentStyle]markerSet)
	for _, style := range commentStyles {
		if _, done := sets[style]; done {
			continue
		}
		head := `^\s*` + regexp.QuoteMeta(style.prefix) + `\s*`
		tail := `\s*$`
		if style.suffix != "" {
			tail = `\s*` + regexp.QuoteMeta(style.suffix) + `\s*$`
		}
		sets[style] = markerSet{
			start: regexp.MustCompile(head + regexp.QuoteMeta(startMarker) + `\s+([A-Za-z0-9._-]+)` + tail),
			end:   regexp.MustCompile(head + regexp.QuoteMeta(endMarker) + tail),
			note:  regexp.MustCompile(head + regexp.QuoteMeta(noteMarker) + `\s+(.*?)` + tail),
		}
	}
	return sets
}()

// Region is a named span of source text extracted from a file.
type Region struct {
	Name      string
	StartLine int // line of the start marker, 1-based
	EndLine   int // line of the end marker, 1-based
	Lines     []string
	Notes     []string
}

// ExtractRegions parses the marked regions out of a source file. The ext
// argument selects the comment style; content is the full file text.
// Nested regions, stray end markers, and unterminated regions are parse
// errors carrying the file path and line number.
func ExtractRegions(path, ext string, content []byte) ([]Region, error) {
	style, ok := commentStyles[strings.ToLower(ext)]
	if !ok {
		return nil, errors.NewParseError("UNSUPPORTED_LANGUAGE",
			"no comment style for extension "+ext).WithLocation(path, 0, 0)
	}
	markers := markerSets[style]

	var (
		regions []Region
		current *Region
	)

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		lineNo := i + 1

		if m := markers.start.FindStringSubmatch(line); m != nil {
			if current != nil {
				return nil, errors.NewParseError("NESTED_REGION",
					"region "+m[1]+" starts inside region "+current.Name).
					WithLocation(path, lineNo, 0)
			}
			current = &Region{Name: m[1], StartLine: lineNo}
			continue
		}

		if markers.end.MatchString(line) {
			if current == nil {
				return nil, errors.NewParseError("STRAY_END_MARKER",
					"end marker without a matching start").
					WithLocation(path, lineNo, 0)
			}
			current.EndLine = lineNo
			current.Lines = trimBlankEdges(dedent(current.Lines))
			regions = append(regions, *current)
			current = nil
			continue
		}

		if current == nil {
			continue
		}

		if m := markers.note.FindStringSubmatch(line); m != nil {
			current.Notes = append(current.Notes, strings.TrimSpace(m[1]))
			continue
		}

		current.Lines = append(current.Lines, line)
	}

	if current != nil {
		return nil, errors.NewParseError("UNTERMINATED_REGION",
			"region "+current.Name+" has no end marker").
			WithLocation(path, current.StartLine, 0)
	}

	return regions, nil
}

// dedent strips the longest common leading whitespace from the non-blank
// lines, so an indented region sits flush in the rendered code block.
func dedent(lines []string) []string {
	margin := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			margin = indent
			first = false
			continue
		}
		margin = commonPrefix(margin, indent)
		if margin == "" {
			break
		}
	}

	if margin == "" {
		return lines
	}

	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = strings.TrimPrefix(line, margin)
	}
	return result
}

func commonPrefix(a, b string) string {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for i := 0; i < max; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:max]
}

// trimBlankEdges drops leading and trailing blank lines.
func trimBlankEdges(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
