package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalFSProvider local filesystem storage provider implementation
type LocalFSProvider struct {
	basePath   string
	prefix     string
	createDirs bool
}

var _ ObjectStorageProvider = (*LocalFSProvider)(nil)

// NewLocalFSProvider creates a new local filesystem storage provider
func NewLocalFSProvider(cfg *ProviderConfig) (*LocalFSProvider, error) {
	if cfg.Type != ProviderTypeLocalFS {
		return nil, fmt.Errorf("invalid provider type: %s, expected: %s", cfg.Type, ProviderTypeLocalFS)
	}

	basePath := ""
	createDirs := true
	if cfg.LocalFS != nil {
		basePath = cfg.LocalFS.BasePath
		createDirs = cfg.LocalFS.CreateDirs
	}
	if basePath == "" {
		basePath = "./telemetry-data" // default path
	}

	if createDirs {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create base directory %s: %w", basePath, err)
		}
	}

	return &LocalFSProvider{
		basePath:   basePath,
		prefix:     cfg.Prefix,
		createDirs: createDirs,
	}, nil
}

// buildPath builds the complete path with prefix
func (l *LocalFSProvider) buildPath(path string) string {
	if l.prefix != "" {
		prefix := strings.TrimSuffix(l.prefix, "/")
		path = strings.TrimPrefix(path, "/")
		path = prefix + "/" + path
	}
	return filepath.Join(l.basePath, filepath.FromSlash(path))
}

// Upload implements ObjectStorageProvider interface
func (l *LocalFSProvider) Upload(ctx context.Context, path string, data io.Reader) error {
	fullPath := l.buildPath(path)

	if l.createDirs {
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(fullPath), err)
		}
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write data to file %s: %w", fullPath, err)
	}
	return nil
}

// Download implements ObjectStorageProvider interface
func (l *LocalFSProvider) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath := l.buildPath(path)
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open file %s: %w", fullPath, err)
	}
	return file, nil
}

// Delete implements ObjectStorageProvider interface
func (l *LocalFSProvider) Delete(ctx context.Context, path string) error {
	fullPath := l.buildPath(path)
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	return nil
}

// Exists implements ObjectStorageProvider interface
func (l *LocalFSProvider) Exists(ctx context.Context, path string) (bool, error) {
	fullPath := l.buildPath(path)
	_, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file %s: %w", fullPath, err)
	}
	return true, nil
}

// List implements ObjectStorageProvider interface
func (l *LocalFSProvider) List(ctx context.Context, prefix string) ([]string, error) {
	root := l.buildPath(prefix)
	var objects []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		objects = append(objects, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
	}
	return objects, nil
}
