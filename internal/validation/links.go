package validation

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	headingRE = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*$`)
	// Inline markdown links; images are excluded by the leading char class.
	mdLinkRE = regexp.MustCompile(`(?:^|[^!])\[[^\]]*\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	slugDrop = regexp.MustCompile(`[^a-z0-9\- ]`)
)

// Slugify converts a heading to its GitHub-style anchor: lowercased,
// punctuation stripped, spaces replaced with dashes.
func Slugify(heading string) string {
	s := strings.ToLower(strings.TrimSpace(heading))
	// Inline code and emphasis markers never appear in anchors.
	s = strings.NewReplacer("`", "", "*", "", "_", "").Replace(s)
	s = slugDrop.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

// LinkIssue describes a broken or suspicious link found in a document.
type LinkIssue struct {
	Target string
	Line   int
	Reason string
}

func (i LinkIssue) String() string {
	return fmt.Sprintf("line %d: link %q: %s", i.Line, i.Target, i.Reason)
}

// CollectAnchors returns every anchor a link can target in the document:
// slugs of Markdown headings (with GitHub's -1, -2 suffixes for duplicates)
// plus id and name attributes of raw HTML elements.
func CollectAnchors(doc string) map[string]bool {
	anchors := make(map[string]bool)
	seen := make(map[string]int)

	forEachProseLine(doc, func(line string, _ int) {
		m := headingRE.FindStringSubmatch(line)
		if m == nil {
			return
		}
		slug := Slugify(m[2])
		if n, dup := seen[slug]; dup {
			anchors[fmt.Sprintf("%s-%d", slug, n)] = true
			seen[slug] = n + 1
		} else {
			anchors[slug] = true
			seen[slug] = 1
		}
	})

	// Raw HTML anchors (<a name="..."> is common in hand-written guides).
	tokenizer := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		for _, attr := range token.Attr {
			if attr.Key == "id" || attr.Key == "name" {
				anchors[attr.Val] = true
			}
		}
	}

	return anchors
}

// CheckLinks verifies every link in the document: fragment links must target
// an existing anchor and external links must be well-formed http(s) URLs.
// Relative file links are left to the filesystem checks of the caller.
func CheckLinks(doc string) []LinkIssue {
	anchors := CollectAnchors(doc)

	var issues []LinkIssue
	forEachProseLine(doc, func(line string, lineNo int) {
		for _, m := range mdLinkRE.FindAllStringSubmatch(line, -1) {
			target := m[1]
			issues = append(issues, checkTarget(target, lineNo, anchors)...)
		}
		for _, target := range htmlHrefs(line) {
			issues = append(issues, checkTarget(target, lineNo, anchors)...)
		}
	})

	return issues
}

func checkTarget(target string, lineNo int, anchors map[string]bool) []LinkIssue {
	switch {
	case strings.HasPrefix(target, "#"):
		if !anchors[strings.TrimPrefix(target, "#")] {
			return []LinkIssue{{Target: target, Line: lineNo, Reason: "no matching anchor"}}
		}
	case strings.Contains(target, "://") || strings.HasPrefix(target, "//"):
		if err := ValidateURL(target); err != nil {
			return []LinkIssue{{Target: target, Line: lineNo, Reason: err.Error()}}
		}
	}

	return nil
}

func htmlHrefs(line string) []string {
	if !strings.Contains(line, "href") {
		return nil
	}

	var hrefs []string
	tokenizer := html.NewTokenizer(strings.NewReader(line))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.Data != "a" {
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key == "href" {
				hrefs = append(hrefs, attr.Val)
			}
		}
	}

	return hrefs
}

// forEachProseLine calls fn for every line outside fenced code blocks.
func forEachProseLine(doc string, fn func(line string, lineNo int)) {
	var fences FenceTracker
	for i, line := range strings.Split(doc, "\n") {
		if fences.Observe(line) || fences.InFence() {
			continue
		}
		fn(line, i+1)
	}
}
