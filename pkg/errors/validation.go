package errors

import (
	"strings"
	"unicode"
)

// MaxNodeIDLength bounds node identifiers accepted from raw prerequisite data.
const MaxNodeIDLength = 256

// ValidateNodeID validates a graph node identifier.
//
// The rules are intentionally conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - Maximum length of 256 bytes
func ValidateNodeID(id string) error {
	if id == "" {
		return GraphValidation(nil, "node id cannot be empty")
	}
	if len(id) > MaxNodeIDLength {
		return GraphValidation([]string{id[:32] + "..."}, "node id too long (max %d characters)", MaxNodeIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return GraphValidation([]string{id}, "node id contains invalid control characters")
		}
	}
	return nil
}

// ValidateCourseID validates a numeric course identifier.
func ValidateCourseID(id int) error {
	if id <= 0 {
		return New(ErrCodeInvalidInput, "course id must be positive, got %d", id)
	}
	return nil
}

// ValidatePath validates a file path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
