package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// namePattern is the only character class allowed in entry names.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// blockedExtensions are rejected on create and upload regardless of content.
var blockedExtensions = map[string]bool{
	".php":   true,
	".php5":  true,
	".phtml": true,
	".exe":   true,
	".sh":    true,
}

// ValidateName checks a single path segment: non-empty, allowed
// characters only, no traversal sequence, extension not blocked.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: name cannot contain '..'", ErrInvalidName)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q contains disallowed characters", ErrInvalidName, name)
	}
	if ext := strings.ToLower(filepath.Ext(name)); blockedExtensions[ext] {
		return fmt.Errorf("%w: extension %q is blocked", ErrInvalidName, ext)
	}
	return nil
}

// cleanBase sanitizes a caller-supplied relative directory path.
// Traversal segments are stripped rather than rejected so stale UI
// navigation state degrades to a reachable directory instead of an error.
func cleanBase(base string) []string {
	base = strings.ReplaceAll(base, "\\", "/")
	parts := strings.Split(base, "/")
	segs := make([]string, 0, len(parts))
	for _, s := range parts {
		if s == "" || s == "." || strings.Contains(s, "..") {
			continue
		}
		segs = append(segs, s)
	}
	return segs
}

// ResolveDir resolves a relative directory path to an absolute path
// inside the storage root.
func (v *Vault) ResolveDir(base string) (string, error) {
	parts := append([]string{v.root}, cleanBase(base)...)
	return v.ensureInside(filepath.Join(parts...))
}

// Resolve resolves base/name to an absolute path inside the storage
// root, validating the name first. No filesystem access beyond the
// containment check.
func (v *Vault) Resolve(base, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	dir, err := v.ResolveDir(base)
	if err != nil {
		return "", err
	}
	return v.ensureInside(filepath.Join(dir, name))
}

// ensureInside verifies the cleaned absolute form of p still has the
// storage root as a prefix. Any divergence is rejected before a
// mutation can happen.
func (v *Vault) ensureInside(p string) (string, error) {
	cp := filepath.Clean(p)
	if cp != v.root && !strings.HasPrefix(cp, v.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, p)
	}
	return cp, nil
}

// relative converts an absolute path inside the vault back to a
// root-relative slash path.
func (v *Vault) relative(p string) string {
	rel, err := filepath.Rel(v.root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}
