// Package storage keeps uploaded files (profile pictures) on local disk and
// hands out the public path they are served under.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for names or paths that escape the store.
var ErrOutsideRoot = errors.New("path outside upload directory")

// FileStore writes files below Root and publishes them under URLPrefix.
type FileStore struct {
	Root      string
	URLPrefix string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root, urlPrefix string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir upload dir: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &FileStore{Root: root, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Save writes data under name and returns its public path.  Only the base
// name is used.
func (s *FileStore) Save(data []byte, name string) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == "/" || base == "" || strings.HasPrefix(base, "..") {
		return "", ErrOutsideRoot
	}
	if err := os.WriteFile(filepath.Join(s.Root, base), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path.Join(s.URLPrefix, base), nil
}

// Delete removes the file behind a public path.  A missing file is not an
// error.
func (s *FileStore) Delete(publicPath string) error {
	if publicPath == "" {
		return nil
	}
	rel := strings.TrimPrefix(publicPath, s.URLPrefix+"/")
	if rel == publicPath || rel == "" || strings.Contains(rel, "/") || strings.HasPrefix(rel, "..") {
		return ErrOutsideRoot
	}
	err := os.Remove(filepath.Join(s.Root, rel))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
