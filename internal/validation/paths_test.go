package validation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRelativePath(t *testing.T) {
	valid := []string{
		"README.md",
		"docs/fragments",
		"playground/src/components/button.tsx",
		"a/b/../c",
	}
	for _, p := range valid {
		assert.NoError(t, ValidateRelativePath(p), p)
	}

	invalid := []string{
		"",
		"/etc/passwd",
		"..",
		"../sibling",
		"a/../../escape",
		"bad\x00path",
	}
	for _, p := range invalid {
		assert.Error(t, ValidateRelativePath(p), p)
	}
}

func TestResolveWithin(t *testing.T) {
	root := t.TempDir()

	resolved, err := ResolveWithin(root, "playground/src/app.ts")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "playground", "src", "app.ts"), resolved)

	_, err = ResolveWithin(root, "../outside.ts")
	assert.Error(t, err)

	_, err = ResolveWithin(root, "a/../../../outside.ts")
	assert.Error(t, err)
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://example.com/guide"))
	assert.NoError(t, ValidateURL("http://example.com"))

	assert.Error(t, ValidateURL(""))
	assert.Error(t, ValidateURL("javascript:alert(1)"))
	assert.Error(t, ValidateURL("ftp://example.com/file"))
	assert.Error(t, ValidateURL("example.com/no-scheme"))
}
