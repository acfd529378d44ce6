package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// LocalStorage keeps blobs on the local disk under a base directory. Document
// uploads and generated export files are its two tenants, each with its own
// base dir.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", baseDir, err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes data under the given relative path and echoes the path back.
func (s *LocalStorage) Save(filename string, data []byte) (string, error) {
	path, err := s.prepare(filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", filename, err)
	}
	return filename, nil
}

// SaveStream streams r into the target path and reports the byte count.
// Uploads go through here so large files never sit in memory whole.
func (s *LocalStorage) SaveStream(filename string, r io.Reader) (int64, error) {
	path, err := s.prepare(filename)
	if err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create blob %s: %w", filename, err)
	}
	defer f.Close() //nolint:errcheck
	n, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("stream blob %s: %w", filename, err)
	}
	return n, nil
}

// Open returns a read handle on a stored blob.
func (s *LocalStorage) Open(filename string) (*os.File, error) {
	f, err := os.Open(s.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", filename, err)
	}
	return f, nil
}

// Delete removes a blob; a missing file is not an error.
func (s *LocalStorage) Delete(filename string) error {
	if err := os.Remove(s.resolve(filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", filename, err)
	}
	return nil
}

// CleanupOlderThan deletes blobs whose mtime is beyond ttl and returns their
// relative paths. Export files age out this way.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	var removed []string
	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
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
		rel, relErr := filepath.Rel(s.baseDir, path)
		if relErr != nil {
			rel = path
		}
		removed = append(removed, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup %s: %w", s.baseDir, err)
	}
	return removed, nil
}

// Path resolves a relative blob name to its absolute location.
func (s *LocalStorage) Path(filename string) string {
	return s.resolve(filename)
}

func (s *LocalStorage) prepare(filename string) (string, error) {
	path := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare directory for %s: %w", filename, err)
	}
	return path, nil
}

func (s *LocalStorage) resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(s.baseDir, filename)
}
