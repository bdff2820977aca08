// Package imagestore keeps enrolled reference images on disk, one
// directory per identity. The images are the source of truth for
// re-extracting descriptors when the extractor mode changes, and they back
// the profile endpoint's sample listing.
package imagestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store manages reference images under a root directory. Layout is
// <root>/<identity-id>/sample_<n>.jpg with n assigned sequentially.
type Store struct {
	root string
}

// New creates the root directory if needed and returns a store.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create image store root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Save writes an image for an identity and returns its path. Sample
// numbers continue from the highest existing sample, so deleting one
// sample never causes a later save to overwrite another.
func (s *Store) Save(identityID string, imageData []byte) (string, error) {
	dir, err := s.identityDir(identityID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create identity directory: %w", err)
	}

	existing, err := s.List(identityID)
	if err != nil {
		return "", err
	}
	next := 1
	for _, p := range existing {
		if n, ok := sampleNumber(filepath.Base(p)); ok && n >= next {
			next = n + 1
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("sample_%d.jpg", next))
	if err := os.WriteFile(path, imageData, 0o640); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

// List returns the sample image paths for an identity, sorted by sample
// number. A missing identity directory yields an empty list.
func (s *Store) List(identityID string) ([]string, error) {
	dir, err := s.identityDir(identityID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := sampleNumber(e.Name()); !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Slice(paths, func(i, j int) bool {
		a, _ := sampleNumber(filepath.Base(paths[i]))
		b, _ := sampleNumber(filepath.Base(paths[j]))
		return a < b
	})
	return paths, nil
}

// ListIdentityDirs returns the identity IDs that have an image directory.
func (s *Store) ListIdentityDirs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read image store root: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes an identity's directory and all its images. Deleting an
// identity that has no images is not an error.
func (s *Store) Delete(identityID string) error {
	dir, err := s.identityDir(identityID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete identity images: %w", err)
	}
	return nil
}

// identityDir validates the ID and returns its directory. IDs come from
// the gallery store (UUIDs), but path traversal is rejected regardless.
func (s *Store) identityDir(identityID string) (string, error) {
	if identityID == "" || strings.ContainsAny(identityID, `/\`) || identityID == "." || identityID == ".." {
		return "", fmt.Errorf("invalid identity id %q", identityID)
	}
	return filepath.Join(s.root, identityID), nil
}

// sampleNumber parses "sample_<n>.jpg" names.
func sampleNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "sample_")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ".jpg")
	if !ok {
		return 0, false
	}
	n := 0
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if rest == "" {
		return 0, false
	}
	return n, true
}
