// Package types provides common type definitions used throughout the docstitch CLI.
// This package contains shared types to avoid circular dependencies between packages.
package types

import "time"

// SnippetInfo contains metadata about a marked region discovered in a
// playground source file, used by the scanner, registry, and generator.
type SnippetInfo struct {
	// Name is the region identifier declared on the start marker
	Name string
	// FilePath is the path to the source file containing the region
	FilePath string
	// StartLine is the line of the start marker (1-based)
	StartLine int
	// EndLine is the line of the end marker (1-based)
	EndLine int
	// Language is the fence language inferred from the file extension
	Language string
	// Content is the dedented region text without marker lines
	Content string
	// Notes holds documentary notes attached with note markers
	Notes []string
	// LastMod tracks the last modification time for change detection
	LastMod time.Time
	// Hash provides a CRC32 checksum for efficient change detection
	Hash string
}

// DirectiveKind discriminates the include directive forms recognized in
// Markdown fragments.
type DirectiveKind string

const (
	// DirectiveExample includes a playground file, or a named region of it.
	DirectiveExample DirectiveKind = "example"
	// DirectiveSnippet includes a region by its unique name.
	DirectiveSnippet DirectiveKind = "snippet"
	// DirectiveTOC is replaced by the generated table of contents.
	DirectiveTOC DirectiveKind = "toc"
)

// Directive is a single include directive parsed from a fragment.
type Directive struct {
	// Kind is the directive form
	Kind DirectiveKind
	// Target is the playground path (example) or snippet name (snippet)
	Target string
	// Region is the optional region name of an example directive
	Region string
	// Language overrides the inferred fence language when non-empty
	Language string
	// Line is the 1-based line of the directive in the fragment file
	Line int
	// BodyLine is the 1-based line within the fragment body, which differs
	// from Line when front matter is present
	BodyLine int
}

// FrontMatter holds the optional YAML header of a fragment.
type FrontMatter struct {
	Title  string `yaml:"title"`
	Weight int    `yaml:"weight"`
	Draft  bool   `yaml:"draft"`
}

// FragmentInfo contains metadata about a parsed Markdown fragment.
type FragmentInfo struct {
	// Path is the fragment file path
	Path string
	// Meta is the parsed front matter (zero value when absent)
	Meta FrontMatter
	// Body is the fragment text with the front matter stripped
	Body string
	// Directives lists the include directives found in Body
	Directives []Directive
	// LastMod tracks the last modification time for change detection
	LastMod time.Time
	// Hash provides a CRC32 checksum for efficient change detection
	Hash string
}

// EventType represents the type of registry change event.
type EventType string

const (
	EventTypeAdded   EventType = "added"
	EventTypeUpdated EventType = "updated"
	EventTypeRemoved EventType = "removed"
)

// SnippetEvent represents a change in the snippet registry, used for
// notifications to watchers like the watch loop and the preview server.
type SnippetEvent struct {
	// Type indicates the kind of change (added, updated, removed)
	Type EventType
	// Snippet contains the snippet information (may be nil for removed events)
	Snippet *SnippetInfo
	// Timestamp records when the event occurred for ordering and filtering
	Timestamp time.Time
}
