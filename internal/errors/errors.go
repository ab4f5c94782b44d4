// Package errors provides structured error types for docstitch with error
// codes, categories, and source locations so that failures in fragment
// parsing, region extraction, and document generation can be reported with
// enough context to act on.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeGenerate   ErrorType = "generate"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// DocstitchError is a structured error type with context.
type DocstitchError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Component   string
	FilePath    string
	Line        int
	Column      int
	Recoverable bool
}

// Error implements the error interface.
func (e *DocstitchError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *DocstitchError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *DocstitchError) Is(target error) bool {
	var t *DocstitchError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithLocation adds file location information.
func (e *DocstitchError) WithLocation(filePath string, line, column int) *DocstitchError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithComponent adds component context.
func (e *DocstitchError) WithComponent(component string) *DocstitchError {
	e.Component = component

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *DocstitchError {
	return &DocstitchError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewSecurityError creates a security error. Security errors are never
// recoverable.
func NewSecurityError(code, message string) *DocstitchError {
	return &DocstitchError{
		Type:        ErrorTypeSecurity,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewParseError creates a parse error for fragment or marker syntax problems.
func NewParseError(code, message string) *DocstitchError {
	return &DocstitchError{
		Type:        ErrorTypeParse,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewGenerateError creates a generation error.
func NewGenerateError(code, message string, cause error) *DocstitchError {
	return &DocstitchError{
		Type:        ErrorTypeGenerate,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewIOError creates an IO error.
func NewIOError(code, message string, cause error) *DocstitchError {
	return &DocstitchError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *DocstitchError {
	return &DocstitchError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *DocstitchError {
	return &DocstitchError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable reports whether the error allows processing to continue
// with the remaining inputs.
func IsRecoverable(err error) bool {
	var de *DocstitchError
	if errors.As(err, &de) {
		return de.Recoverable
	}

	return false
}

// IsSecurityError reports whether the error is security related.
func IsSecurityError(err error) bool {
	var de *DocstitchError
	if errors.As(err, &de) {
		return de.Type == ErrorTypeSecurity
	}

	return false
}

// Common constructors for well-known failures.

// ErrInvalidPath indicates a malformed or unusable path.
func ErrInvalidPath(path string) *DocstitchError {
	return NewValidationError("INVALID_PATH", fmt.Sprintf("invalid path: %q", path))
}

// ErrPathTraversal indicates an attempt to escape the project root.
func ErrPathTraversal(path string) *DocstitchError {
	return NewSecurityError("PATH_TRAVERSAL", fmt.Sprintf("path escapes project root: %q", path))
}

// ErrSnippetNotFound indicates a directive referenced an unknown snippet.
func ErrSnippetNotFound(name string) *DocstitchError {
	return NewValidationError("SNIPPET_NOT_FOUND", fmt.Sprintf("snippet %q not found", name))
}

// ErrDuplicateSnippet indicates two regions share a name.
func ErrDuplicateSnippet(name, firstPath, secondPath string) *DocstitchError {
	return NewValidationError("DUPLICATE_SNIPPET",
		fmt.Sprintf("snippet %q declared in both %s and %s", name, firstPath, secondPath))
}

// ErrorCollection aggregates errors from processing many inputs so a single
// run can report every problem instead of the first one.
type ErrorCollection struct {
	errors []error
}

// Add appends an error, ignoring nil.
func (c *ErrorCollection) Add(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

// HasErrors reports whether any error was collected.
func (c *ErrorCollection) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns the collected errors.
func (c *ErrorCollection) Errors() []error {
	return c.errors
}

// Error implements the error interface.
func (c *ErrorCollection) Error() string {
	if len(c.errors) == 0 {
		return "no errors"
	}
	if len(c.errors) == 1 {
		return c.errors[0].Error()
	}

	msgs := make([]string, 0, len(c.errors))
	for _, err := range c.errors {
		msgs = append(msgs, "  - "+err.Error())
	}

	return fmt.Sprintf("%d errors:\n%s", len(c.errors), strings.Join(msgs, "\n"))
}
