package server

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/docstitch/docstitch/internal/validation"
)

// The preview renderer intentionally covers only the Markdown constructs
// the generator emits: headings, fenced code, blockquotes, links, inline
// code, and paragraphs. It is a development preview, not a publishing
// pipeline.

var (
	previewHeadingRE = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*$`)
	previewLinkRE    = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	previewCodeRE    = regexp.MustCompile("`([^`]+)`")
)

// previewPage wraps the rendered document in a minimal HTML page with the
// live-reload script.
func previewPage(title, markdown string) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	b.WriteString("<style>\n" + previewCSS + "</style>\n")
	b.WriteString("</head>\n<body>\n<main>\n")
	b.WriteString(renderHTML(markdown))
	b.WriteString("\n</main>\n")
	b.WriteString("<script>\n" + reloadScript + "</script>\n")
	b.WriteString("</body>\n</html>\n")

	return b.String()
}

// renderHTML converts the generated Markdown to preview HTML.
func renderHTML(markdown string) string {
	var (
		out       []string
		paragraph []string
		fences    validation.FenceTracker
		fenceLang string
		fenceBuf  []string
	)
	seenSlugs := make(map[string]int)

	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		out = append(out, "<p>"+renderInline(strings.Join(paragraph, " "))+"</p>")
		paragraph = nil
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if fences.Observe(line) {
			if fences.InFence() {
				flushParagraph()
				_, fenceLang = validation.FenceInfo(line)
			} else {
				out = append(out, renderCodeBlock(fenceLang, fenceBuf))
				fenceBuf = nil
			}
			continue
		}
		if fences.InFence() {
			fenceBuf = append(fenceBuf, line)
			continue
		}

		if m := previewHeadingRE.FindStringSubmatch(line); m != nil {
			flushParagraph()
			level := len(m[1])

			// Duplicate slugs take -1, -2 suffixes so the ids match the
			// anchors the table of contents links to.
			slug := validation.Slugify(m[2])
			if n, dup := seenSlugs[slug]; dup {
				seenSlugs[slug] = n + 1
				slug = fmt.Sprintf("%s-%d", slug, n)
			} else {
				seenSlugs[slug] = 1
			}

			out = append(out, fmt.Sprintf("<h%d id=%q>%s</h%d>",
				level, slug, renderInline(m[2]), level))
			continue
		}

		if strings.HasPrefix(trimmed, "> ") {
			flushParagraph()
			out = append(out, "<blockquote>"+renderInline(strings.TrimPrefix(trimmed, "> "))+"</blockquote>")
			continue
		}

		if strings.HasPrefix(trimmed, "- ") {
			flushParagraph()
			out = append(out, "<li>"+renderInline(strings.TrimPrefix(trimmed, "- "))+"</li>")
			continue
		}

		if strings.HasPrefix(trimmed, "<!--") {
			continue
		}

		if trimmed == "" {
			flushParagraph()
			continue
		}

		// Raw HTML passes through untouched.
		if strings.HasPrefix(trimmed, "<") {
			flushParagraph()
			out = append(out, line)
			continue
		}

		paragraph = append(paragraph, trimmed)
	}
	flushParagraph()
	if fences.InFence() {
		out = append(out, renderCodeBlock(fenceLang, fenceBuf))
	}

	return strings.Join(out, "\n")
}

func renderCodeBlock(lang string, lines []string) string {
	class := ""
	if lang != "" {
		class = fmt.Sprintf(" class=\"language-%s\"", html.EscapeString(lang))
	}
	return fmt.Sprintf("<pre><code%s>%s</code></pre>",
		class, html.EscapeString(strings.Join(lines, "\n")))
}

func renderInline(text string) string {
	escaped := html.EscapeString(text)
	escaped = previewCodeRE.ReplaceAllString(escaped, "<code>$1</code>")
	escaped = previewLinkRE.ReplaceAllString(escaped, `<a href="$2">$1</a>`)
	return escaped
}

const previewCSS = `body { margin: 0; font-family: -apple-system, sans-serif; }
main { max-width: 46rem; margin: 0 auto; padding: 2rem 1rem; }
pre { background: #f6f8fa; padding: 1rem; overflow-x: auto; border-radius: 6px; }
code { font-family: ui-monospace, monospace; font-size: 0.9em; }
blockquote { border-left: 4px solid #d0d7de; margin-left: 0; padding-left: 1rem; color: #57606a; }
`

const reloadScript = `(function () {
	var proto = location.protocol === "https:" ? "wss://" : "ws://";
	var ws = new WebSocket(proto + location.host + "/ws");
	ws.onmessage = function (ev) {
		if (ev.data === "reload") location.reload();
	};
})();
`
