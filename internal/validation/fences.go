package validation

import "strings"

// FenceTracker tracks fenced code blocks while walking a Markdown document
// line by line. A fence opened with N backticks closes only on a line of at
// least N backticks and nothing else, so code blocks containing smaller
// fences stay intact.
type FenceTracker struct {
	width int
}

// Observe inspects one line and updates the fence state. It reports whether
// the line is a fence delimiter itself.
func (t *FenceTracker) Observe(line string) bool {
	trimmed := strings.TrimSpace(line)
	ticks := leadingTicks(trimmed)

	if t.width == 0 {
		if ticks >= 3 {
			t.width = ticks
			return true
		}
		return false
	}

	if ticks >= t.width && strings.TrimLeft(trimmed, "`") == "" {
		t.width = 0
		return true
	}

	return false
}

// InFence reports whether the tracker is currently inside a fenced block.
func (t *FenceTracker) InFence() bool {
	return t.width != 0
}

// FenceInfo returns the delimiter width and info string of an opening fence
// line, or zero width when the line does not open a fence.
func FenceInfo(line string) (width int, info string) {
	trimmed := strings.TrimSpace(line)
	ticks := leadingTicks(trimmed)
	if ticks < 3 {
		return 0, ""
	}
	return ticks, strings.TrimSpace(trimmed[ticks:])
}

func leadingTicks(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}
