// Package safename validates user-supplied identifiers before they become
// path components. Every access re-validates; nothing here is cached.
package safename

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/zcf0508/mem-mcp/internal/model"
)

// Ext is the fixed extension appended to every record filename.
const Ext = ".md"

var (
	filenamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.md$`)
	tokenPattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
)

// Normalize appends Ext if absent and rejects anything outside the safe
// character class, including path separators and parent references.
func Normalize(name string) (string, error) {
	if name == "" {
		return "", errors.Wrap(model.ErrInvalidIdentifier, "empty filename")
	}
	if !strings.HasSuffix(name, Ext) {
		name += Ext
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", errors.Wrap(model.ErrInvalidIdentifier, "path traversal")
	}
	if !filenamePattern.MatchString(name) {
		return "", errors.Wrapf(model.ErrInvalidIdentifier, "unsafe filename %q", name)
	}
	return name, nil
}

// Resolve normalizes name and joins it under root, then verifies the
// resolved path is a strict descendant of the resolved root.
func Resolve(root, name string) (string, error) {
	norm, err := Normalize(name)
	if err != nil {
		return "", err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(model.ErrInvalidIdentifier, err.Error())
	}
	candidate := filepath.Join(absRoot, norm)
	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", errors.Wrapf(model.ErrInvalidIdentifier, "escapes user directory: %q", name)
	}
	return candidate, nil
}

// ValidateToken applies the same character-class rules to a user token,
// which is used verbatim as a directory-name component.
func ValidateToken(token string) error {
	if token == "" || strings.Contains(token, "..") || strings.ContainsAny(token, `/\`) {
		return errors.Wrap(model.ErrInvalidIdentifier, "unsafe token")
	}
	if !tokenPattern.MatchString(token) {
		return errors.Wrapf(model.ErrInvalidIdentifier, "unsafe token %q", token)
	}
	return nil
}
