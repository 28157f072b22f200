// Package security confines tool-supplied paths to the served directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator resolves caller paths against a root directory and rejects
// anything that escapes it, including through symlinks.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. The directory does not
// need to exist yet.
func NewPathValidator(dir string) (*PathValidator, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute root directory.
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve turns path into an absolute path inside the root. Relative paths
// are taken relative to the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	clean := filepath.Clean(path)

	if !v.Contains(clean) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}

	return clean, nil
}

// ResolveDir is Resolve for directories: an existing path must be a directory.
func (v *PathValidator) ResolveDir(path string) (string, error) {
	resolved, err := v.Resolve(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	switch {
	case os.IsNotExist(err):
		return resolved, nil
	case err != nil:
		return "", fmt.Errorf("cannot access directory: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("path is not a directory: %s", path)
	}

	return resolved, nil
}

// Contains reports whether the absolute path lies inside the root, both
// lexically and after resolving symlinks on either side.
func (v *PathValidator) Contains(path string) bool {
	clean := filepath.Clean(path)
	if !within(clean, v.root) {
		return false
	}

	realRoot := v.root
	if resolved, err := filepath.EvalSymlinks(v.root); err == nil {
		realRoot = resolved
	}

	realPath, ok := evalExisting(clean)
	if !ok {
		return true
	}

	return within(realPath, realRoot) || within(realPath, v.root)
}

// evalExisting resolves symlinks on the longest existing prefix of path.
func evalExisting(path string) (string, bool) {
	var rest []string
	for p := path; ; p = filepath.Dir(p) {
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved, true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", false
		}
		rest = append(rest, filepath.Base(p))
	}
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
