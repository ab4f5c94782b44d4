package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocstitchError_Error(t *testing.T) {
	err := NewParseError("UNTERMINATED_REGION", "region has no end marker").
		WithLocation("playground/src/store.ts", 42, 0).
		WithComponent("scanner")

	msg := err.Error()
	assert.Contains(t, msg, "[UNTERMINATED_REGION]")
	assert.Contains(t, msg, "component:scanner")
	assert.Contains(t, msg, "playground/src/store.ts:42")
	assert.Contains(t, msg, "region has no end marker")
}

func TestDocstitchError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewIOError("WRITE_FAILED", "writing output", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestDocstitchError_Is(t *testing.T) {
	a := ErrSnippetNotFound("counter")
	b := ErrSnippetNotFound("reducer")

	// Same type and code match regardless of message.
	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, ErrInvalidPath("x")))
}

func TestRecoverability(t *testing.T) {
	assert.True(t, IsRecoverable(ErrSnippetNotFound("x")))
	assert.False(t, IsRecoverable(ErrPathTraversal("../../etc/passwd")))
	assert.False(t, IsRecoverable(stderrors.New("plain")))

	assert.True(t, IsSecurityError(ErrPathTraversal("../x")))
	assert.False(t, IsSecurityError(ErrSnippetNotFound("x")))
}

func TestRecoverability_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("generating document: %w", ErrPathTraversal("../x"))
	assert.True(t, IsSecurityError(wrapped))
	assert.False(t, IsRecoverable(wrapped))
}

func TestErrorCollection(t *testing.T) {
	var c ErrorCollection
	assert.False(t, c.HasErrors())
	assert.Equal(t, "no errors", c.Error())

	c.Add(nil)
	assert.False(t, c.HasErrors())

	c.Add(ErrSnippetNotFound("a"))
	require.True(t, c.HasErrors())
	assert.Equal(t, c.Errors()[0].Error(), c.Error())

	c.Add(ErrDuplicateSnippet("b", "x.ts", "y.ts"))
	assert.Len(t, c.Errors(), 2)
	assert.Contains(t, c.Error(), "2 errors:")
	assert.Contains(t, c.Error(), "DUPLICATE_SNIPPET")
}
