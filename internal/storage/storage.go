// Package storage keeps uploaded publication attachments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BlobStore stores attachment bytes and hands back an opaque reference.
type BlobStore interface {
	Put(ctx context.Context, kind, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

// LocalStore keeps blobs under a directory on the local filesystem.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory blobs are written to.
func (s *LocalStore) Root() string {
	return s.root
}

// Put writes r under kind/<uuid><ext>. The original name only contributes
// its extension.
func (s *LocalStore) Put(ctx context.Context, kind, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	ref := path.Join(kind, uuid.NewString()+ext)
	dest := filepath.Join(s.root, filepath.FromSlash(ref))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to open temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}
	return ref, nil
}

// Delete removes the blob behind ref. Missing blobs are not an error.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	clean := path.Clean("/" + ref)
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", ref, err)
	}
	return nil
}

// URL returns the public address of ref, or "" for an empty reference.
func (s *LocalStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.baseURL + "/" + ref
}
