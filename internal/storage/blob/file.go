package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
)

// FileStore implements interfaces.ImageStore on a local directory.
// Key "uploads/ab12.jpg" maps to "{basePath}/uploads/ab12.jpg".
type FileStore struct {
	basePath string
	logger   *common.Logger
}

// NewFileStore creates the base directory if needed.
func NewFileStore(logger *common.Logger, basePath string) (*FileStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("file image store path is required")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory %s: %w", basePath, err)
	}

	logger.Debug().Str("path", basePath).Msg("File image store initialized")
	return &FileStore{basePath: basePath, logger: logger}, nil
}

func (fs *FileStore) keyToPath(key string) (string, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(fs.basePath, filepath.FromSlash(clean)), nil
}

// Put writes atomically using a temp file and rename.
func (fs *FileStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := fs.keyToPath(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	fs.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Image stored")
	return nil
}

// Get returns interfaces.ErrNotFound when the key is absent.
func (fs *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := fs.keyToPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read image %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the image. No error if not found.
func (fs *FileStore) Delete(ctx context.Context, key string) error {
	path, err := fs.keyToPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}
	return nil
}

func (fs *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	path, err := fs.keyToPath(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat image %s: %w", key, err)
}

var _ interfaces.ImageStore = (*FileStore)(nil)
