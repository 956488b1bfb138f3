package availability

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps each record in a plain-text file named "{key}.txt" inside dir.
// With a single key this is exactly one file on disk.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir.
// The directory is created lazily on the first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the file that holds the record for key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+".txt")
}

// Save writes the record to a temporary file and renames it over the
// previous one, so readers see either the old or the new record.
func (s *FileStore) Save(ctx context.Context, key string, lines []string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("availability: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("availability: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.WriteString(Encode(lines)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("availability: write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("availability: sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("availability: close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		return fmt.Errorf("availability: replace %s: %w", key, err)
	}
	return nil
}

// Load implements Store. A file that does not exist is an empty record.
func (s *FileStore) Load(ctx context.Context, key string) ([]string, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("availability: read %s: %w", key, err)
	}
	return Decode(string(data)), nil
}

// Ping checks that the data directory exists or can be created.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("availability: data directory unavailable: %w", err)
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("availability: stat data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("availability: %s is not a directory", s.dir)
	}
	return nil
}
