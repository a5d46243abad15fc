// Package fs confines stored DICOM files to a storage root and decides where
// received files are written.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPathTraversal is returned when a reference resolves outside the root.
	ErrPathTraversal = errors.New("fs: path escapes storage root")
	// ErrFileNotFound is returned when a reference names no regular file.
	ErrFileNotFound = errors.New("fs: stored file not found")
)

// Resolver maps stored-file references to canonical absolute paths inside a
// storage root.
type Resolver struct {
	root string
}

// NewResolver canonicalizes root and returns a Resolver for it. The root does
// not need to exist yet.
func NewResolver(root string) (*Resolver, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("fs: storage root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Resolver{root: canonicalize(abs)}, nil
}

// Root returns the canonical storage root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve canonicalizes ref and checks that it stays inside the root.
// Relative references are joined under the root, absolute ones are taken as
// they are.
func (r *Resolver) Resolve(ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("%w: empty reference", ErrFileNotFound)
	}
	p := filepath.FromSlash(ref)
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.root, p)
	}
	canonical := canonicalize(p)
	if err := r.within(canonical); err != nil {
		return "", err
	}
	return canonical, nil
}

// AssertWithinRoot fails with ErrPathTraversal unless the canonical form of
// path lies inside the root.
func (r *Resolver) AssertWithinRoot(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPathTraversal, err)
	}
	return r.within(canonicalize(abs))
}

// Relative returns the slash separated reference of an absolute path inside
// the root, the form recorded in the catalog.
func (r *Resolver) Relative(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	canonical := canonicalize(abs)
	if err := r.within(canonical); err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.root, canonical)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Open resolves ref and opens the regular file it names.
func (r *Resolver) Open(ref string) (*os.File, error) {
	path, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, ref)
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrFileNotFound, ref)
	}
	return os.Open(path)
}

func (r *Resolver) within(canonical string) error {
	rel, err := filepath.Rel(r.root, canonical)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, canonical)
	}
	return nil
}

// canonicalize cleans p and resolves symlinks along its longest existing
// prefix. Components past that prefix are appended unresolved.
func canonicalize(p string) string {
	p = filepath.Clean(p)
	var rest []string
	cur := p
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}
