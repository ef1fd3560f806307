package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore writes documents as JSON files under a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir. An empty dir means the
// working directory.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "."
	}
	return &FileStore{root: dir}
}

// Save writes doc to its FileName and returns the full path. The file is
// written to a temp file in the same directory and renamed into place, so a
// reader never observes a partial document.
func (s *FileStore) Save(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if doc.Ticker == "" {
		return "", fmt.Errorf("%w: document has no ticker", ErrSaveFailed)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSaveFailed, doc.Ticker, err)
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSaveFailed, doc.Ticker, err)
	}

	path := filepath.Join(s.root, doc.FileName())

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSaveFailed, doc.Ticker, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %s: %v", ErrSaveFailed, doc.Ticker, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %s: %v", ErrSaveFailed, doc.Ticker, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %s: %v", ErrSaveFailed, doc.Ticker, err)
	}

	return path, nil
}
