package stitch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/docstitch/docstitch/internal/validation"
)

var tocHeadingRE = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*$`)

// buildTOC renders a nested bullet list of the document's headings. Level
// one headings are treated as document titles and skipped; anchors follow
// GitHub's slug rules, including the -1, -2 suffixes for duplicates, and the
// duplicate counter covers every heading so links stay correct even when a
// skipped title shares text with a listed section.
func buildTOC(doc string) string {
	var entries []string
	seen := make(map[string]int)

	var fences validation.FenceTracker
	for _, line := range strings.Split(doc, "\n") {
		if fences.Observe(line) || fences.InFence() {
			continue
		}

		m := tocHeadingRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		level := len(m[1])
		text := m[2]

		slug := validation.Slugify(text)
		if n, dup := seen[slug]; dup {
			seen[slug] = n + 1
			slug = fmt.Sprintf("%s-%d", slug, n)
		} else {
			seen[slug] = 1
		}

		if level < 2 {
			continue
		}

		indent := strings.Repeat("  ", level-2)
		entries = append(entries, fmt.Sprintf("%s- [%s](#%s)", indent, text, slug))
	}

	if len(entries) == 0 {
		return ""
	}

	return strings.Join(entries, "\n")
}
