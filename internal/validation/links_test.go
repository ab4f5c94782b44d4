package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Table of Contents":        "table-of-contents",
		"Redux - Typing Patterns":  "redux---typing-patterns",
		"`configureStore`":         "configurestore",
		"React, Redux & TypeScript": "react-redux--typescript",
		"  Spaces  ":               "spaces",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCollectAnchors_Headings(t *testing.T) {
	doc := "# Guide\n\n## Setup\n\ntext\n\n## Setup\n"

	anchors := CollectAnchors(doc)
	assert.True(t, anchors["guide"])
	assert.True(t, anchors["setup"])
	assert.True(t, anchors["setup-1"])
}

func TestCollectAnchors_IgnoresFences(t *testing.T) {
	doc := "# Real\n\n```go\n// # Not a heading\n```\n"

	anchors := CollectAnchors(doc)
	assert.True(t, anchors["real"])
	assert.Len(t, anchors, 1)
}

func TestCollectAnchors_RawHTML(t *testing.T) {
	doc := "# Top\n\n<a name=\"legacy-anchor\"></a>\n<div id=\"section-2\"></div>\n"

	anchors := CollectAnchors(doc)
	assert.True(t, anchors["legacy-anchor"])
	assert.True(t, anchors["section-2"])
}

func TestCheckLinks(t *testing.T) {
	doc := "# Guide\n\n" +
		"[good](#guide)\n" +
		"[missing](#nowhere)\n" +
		"[external](https://example.com)\n" +
		"[bad scheme](ftp://example.com/x)\n" +
		"<a href=\"#guide\">also good</a>\n" +
		"<a href=\"#gone\">also missing</a>\n"

	issues := CheckLinks(doc)
	targets := make([]string, 0, len(issues))
	for _, issue := range issues {
		targets = append(targets, issue.Target)
	}

	assert.ElementsMatch(t, []string{"#nowhere", "ftp://example.com/x", "#gone"}, targets)
}

func TestCheckLinks_SkipsRelativeFiles(t *testing.T) {
	doc := "# Guide\n\n[sibling](docs/other.md)\n"

	assert.Empty(t, CheckLinks(doc))
}
