package errors

import (
	"slices"
	"strings"
	"unicode"
)

// Formats accepted by the view renderer.
var Formats = []string{"json", "dot", "svg", "png"}

// maxNodeIDLength bounds IDs accepted from the command line and query strings.
const maxNodeIDLength = 1024

// ValidateNodeID checks a node ID taken from user input. Lineage IDs are
// free-form ("dataset:namespace:name"), so only emptiness, length and control
// characters are rejected.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node ID cannot be empty")
	}
	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidInput, "node ID too long (max %d characters)", maxNodeIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node ID contains invalid control characters")
		}
	}
	return nil
}

// ValidateFormat checks that format is one of [Formats].
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, strings.ToLower(format)) {
		return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateDepth checks a traversal depth. Zero means unlimited.
func ValidateDepth(depth int) error {
	if depth < 0 {
		return New(ErrCodeInvalidOptions, "depth must not be negative, got %d", depth)
	}
	return nil
}

// ValidatePath validates a graph file path from user input.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
