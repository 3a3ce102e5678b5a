package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxNameLength bounds group, node and asset names.
const maxNameLength = 256

// ValidateName validates a graph, node or asset name taken from a document.
// Names become map keys and may become file names for relative-mode assets,
// so the rules are conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid control characters")
		}
	}

	return nil
}

// ValidateAssetFilename validates the stored file name of a relative-mode
// dependency. It must be a simple basename without path components.
func ValidateAssetFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "asset filename cannot be empty")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "asset filename cannot contain path separators")
	}

	if filename == "." || filename == ".." {
		return New(ErrCodeInvalidPath, "asset filename cannot be %q", filename)
	}

	return nil
}

// ValidatePath validates a document path given on the command line or in a
// request.
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

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateRelativePath validates a path that must stay inside a base
// directory once joined to it.
func ValidateRelativePath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
