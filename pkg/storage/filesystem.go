package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrOutsideRoot is returned when a relative path escapes the storage root.
var ErrOutsideRoot = errors.New("path escapes export root")

// ExportStore keeps rendered timetable exports on local disk.
type ExportStore struct {
	root string
}

// NewExportStore creates the root directory when missing.
func NewExportStore(root string) (*ExportStore, error) {
	if root == "" {
		root = "./exports"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve export root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create export root: %w", err)
	}
	return &ExportStore{root: abs}, nil
}

// ObjectName builds the relative location of an export file. Files are grouped
// per school and class so cleanup and inspection stay cheap.
func ObjectName(schoolID, classID, jobID, ext string) string {
	return filepath.ToSlash(filepath.Join(schoolID, classID, jobID+"."+strings.TrimPrefix(ext, ".")))
}

// Put writes payload under rel and returns rel unchanged.
func (s *ExportStore) Put(rel string, payload []byte) (string, error) {
	path, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare export dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalize export: %w", err)
	}
	return rel, nil
}

// Read returns the stored bytes for rel.
func (s *ExportStore) Read(rel string) ([]byte, error) {
	path, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return payload, nil
}

// Remove deletes rel. Missing files are not an error.
func (s *ExportStore) Remove(rel string) error {
	path, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove export: %w", err)
	}
	return nil
}

// Sweep deletes files last modified before now-maxAge and returns their
// relative names.
func (s *ExportStore) Sweep(maxAge time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := make([]string, 0)
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		if rel, relErr := filepath.Rel(s.root, path); relErr == nil {
			removed = append(removed, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sweep exports: %w", err)
	}
	return removed, nil
}

// Root returns the absolute storage directory.
func (s *ExportStore) Root() string {
	return s.root
}

func (s *ExportStore) resolve(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", ErrOutsideRoot
	}
	path := filepath.Join(s.root, filepath.FromSlash(rel))
	if path != s.root && !strings.HasPrefix(path, s.root+string(os.PathSeparator)) {
		return "", ErrOutsideRoot
	}
	return path, nil
}
