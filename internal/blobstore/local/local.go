package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store keeps blobs on the local filesystem, one subdirectory per bin.
// Storage paths are relative ("<binID>/<filename>") so the base directory
// can move without rewriting photo rows.
type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) Put(ctx context.Context, binID, filename string, data []byte) (string, error) {
	rel := filepath.Join(sanitize(binID), sanitize(filename))
	abs, err := s.safeJoin(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("failed to create bin directory: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	abs, err := s.safeJoin(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	abs, err := s.safeJoin(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *Store) DeleteBin(ctx context.Context, binID string) error {
	abs, err := s.safeJoin(sanitize(binID))
	if err != nil {
		return err
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("failed to delete bin directory: %w", err)
	}
	return nil
}

// safeJoin resolves path relative to basePath and rejects directory traversal.
func (s *Store) safeJoin(path string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	abs, err := filepath.Abs(filepath.Join(s.basePath, filepath.FromSlash(path)))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	if !strings.HasPrefix(abs, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return abs, nil
}

// sanitize strips path separators and parent references from an untrusted
// name component. Imported snapshots supply filenames and ids from outside
// the process.
func sanitize(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "__")
	if name == "" || name == "." {
		return "_"
	}
	return name
}
