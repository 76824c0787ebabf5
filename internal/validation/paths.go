// Package validation provides input validation for paths handed to the
// backend.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateSourcePath validates a path before it is queued for sending or
// sharing. The backend opens these paths with its own privileges, so only
// clean absolute paths are allowed through.
//
// Returns an error if the path:
//   - Is empty
//   - Contains null bytes
//   - Is not absolute
//   - Contains ".." components after cleaning
func ValidateSourcePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains null byte")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	cleaned := filepath.Clean(path)
	for _, part := range strings.Split(cleaned, string(filepath.Separator)) {
		if part == ".." {
			return fmt.Errorf("path escapes its root: %s", path)
		}
	}
	return nil
}

// ValidateFilename validates a bare filename received from an external
// source (text snippet names, backend-reported file names) before it is
// used in display or joined into a path.
//
// Returns an error if the filename is empty, contains path separators,
// ".." components, or null bytes.
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %s", filename)
	}
	if strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("filename contains path separator: %s", filename)
	}
	if filename == ".." {
		return fmt.Errorf("filename is a traversal component")
	}
	return nil
}
