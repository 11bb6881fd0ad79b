package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStorage keeps blobs as files under a local directory. Used for development runs and
// the offline report tool.
type FileStorage struct {
	root string
}

// Ensure FileStorage implements StorageInterface
var _ StorageInterface = (*FileStorage)(nil)

// NewFileStorage creates the root directory if needed
func NewFileStorage(root string) (*FileStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{root: root}, nil
}

func (s *FileStorage) path(filename string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(filename))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", fmt.Errorf("invalid blob name %q", filename)
	}
	return filepath.Join(s.root, clean), nil
}

// Store writes data to root/filename, creating parent directories
func (s *FileStorage) Store(_ context.Context, filename string, data []byte) error {
	p, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filename, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// Retrieve reads root/filename
func (s *FileStorage) Retrieve(_ context.Context, filename string) ([]byte, error) {
	p, err := s.path(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", filename, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return data, nil
}

// List returns the slash-separated names of all files starting with prefix, sorted
func (s *FileStorage) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes root/filename
func (s *FileStorage) Delete(_ context.Context, filename string) error {
	p, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file %s: %w", filename, ErrNotFound)
		}
		return fmt.Errorf("failed to delete %s: %w", filename, err)
	}
	return nil
}
