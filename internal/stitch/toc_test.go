package stitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTOC(t *testing.T) {
	doc := "# Title\n\n## Setup\n\n### Install\n\n## Usage\n"

	toc := buildTOC(doc)
	assert.Equal(t,
		"- [Setup](#setup)\n"+
			"  - [Install](#install)\n"+
			"- [Usage](#usage)",
		toc)
}

func TestBuildTOC_DuplicateHeadings(t *testing.T) {
	doc := "## Patterns\n\n## Patterns\n"

	toc := buildTOC(doc)
	assert.Equal(t, "- [Patterns](#patterns)\n- [Patterns](#patterns-1)", toc)
}

func TestBuildTOC_TitleCountsTowardDuplicates(t *testing.T) {
	// The H1 is skipped but still claims its slug, matching how anchors
	// are assigned in the rendered document.
	doc := "# Guide\n\n## Guide\n"

	toc := buildTOC(doc)
	assert.Equal(t, "- [Guide](#guide-1)", toc)
}

func TestBuildTOC_IgnoresFencedHeadings(t *testing.T) {
	doc := "## Real\n\n```md\n## Fake\n```\n"

	toc := buildTOC(doc)
	assert.Equal(t, "- [Real](#real)", toc)
}

func TestBuildTOC_Empty(t *testing.T) {
	assert.Equal(t, "", buildTOC("just prose\n"))
}
