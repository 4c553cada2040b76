package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FileStore reads and writes UTF-8 files under a base directory. Every write
// goes to a temp file first and is renamed over the target.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, dirPerm); err != nil {
		return nil, fmt.Errorf("create base dir %s: %w", baseDir, err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) BaseDir() string {
	return s.baseDir
}

// Resolve maps a relative path into the store; absolute paths are returned as is.
func (s *FileStore) Resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.baseDir, rel)
}

func (s *FileStore) Exists(rel string) bool {
	_, err := os.Stat(s.Resolve(rel))
	return err == nil
}

func (s *FileStore) ReadText(rel string) (string, error) {
	data, err := os.ReadFile(s.Resolve(rel))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *FileStore) WriteText(rel, content string) (string, error) {
	target := s.Resolve(rel)
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", target, err)
	}
	if err := renameio.WriteFile(target, []byte(content), filePerm); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}

// EnsureFile creates rel with defaultContent unless it already exists.
func (s *FileStore) EnsureFile(rel, defaultContent string) (string, error) {
	target := s.Resolve(rel)
	_, err := os.Stat(target)
	switch {
	case err == nil:
		return target, nil
	case errors.Is(err, fs.ErrNotExist):
		return s.WriteText(rel, defaultContent)
	default:
		return "", fmt.Errorf("stat %s: %w", target, err)
	}
}

// WriteNew writes content to rel, or to "name (2).ext", "name (3).ext", ...
// when rel is already taken. It returns the path actually written.
func (s *FileStore) WriteNew(rel, content string) (string, error) {
	return s.WriteText(s.FreeName(rel, nil), content)
}

// FreeName returns rel or the first counter-suffixed sibling that neither
// exists on disk nor is in reserved.
func (s *FileStore) FreeName(rel string, reserved map[string]bool) string {
	ext := filepath.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	candidate := rel
	for n := 2; s.Exists(candidate) || reserved[candidate]; n++ {
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
	return candidate
}
