// Package sink persists collected telemetry to object storage.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ProviderType storage backend type
type ProviderType string

const (
	// ProviderTypeS3 AWS S3 backend
	ProviderTypeS3 ProviderType = "s3"
	// ProviderTypeLocalFS local filesystem backend
	ProviderTypeLocalFS ProviderType = "localfs"
)

// ErrObjectExists returned when a write would overwrite an existing object
// and overwriting is disabled
var ErrObjectExists = errors.New("object already exists")

// ObjectStorageProvider defines the object storage provider interface
type ObjectStorageProvider interface {
	// Upload uploads data to specified path
	Upload(ctx context.Context, path string, data io.Reader) error
	// Download downloads data from specified path
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete deletes data at specified path
	Delete(ctx context.Context, path string) error
	// Exists checks if data exists at specified path
	Exists(ctx context.Context, path string) (bool, error)
	// List lists all objects under specified prefix
	List(ctx context.Context, prefix string) ([]string, error)
}

// AWSConfig AWS S3 specific configuration
type AWSConfig struct {
	AccessKey        string `yaml:"access-key,omitempty" toml:"access-key,omitempty" json:"access-key,omitempty"`
	SecretAccessKey  string `yaml:"secret-access-key,omitempty" toml:"secret-access-key,omitempty" json:"secret-access-key,omitempty"`
	SessionToken     string `yaml:"session-token,omitempty" toml:"session-token,omitempty" json:"session-token,omitempty"`
	S3ForcePathStyle bool   `yaml:"s3-force-path-style,omitempty" toml:"s3-force-path-style,omitempty" json:"s3-force-path-style,omitempty"`
}

// LocalFSConfig local filesystem specific configuration
type LocalFSConfig struct {
	BasePath   string `yaml:"base-path,omitempty" toml:"base-path,omitempty" json:"base-path,omitempty"`
	CreateDirs bool   `yaml:"create-dirs,omitempty" toml:"create-dirs,omitempty" json:"create-dirs,omitempty"`
}

// ProviderConfig storage provider configuration
type ProviderConfig struct {
	// Type storage backend type: s3 or localfs
	Type ProviderType `yaml:"type" toml:"type" json:"type"`
	// Region storage region (S3 only)
	Region string `yaml:"region,omitempty" toml:"region,omitempty" json:"region,omitempty"`
	// Bucket bucket name (S3 only)
	Bucket string `yaml:"bucket,omitempty" toml:"bucket,omitempty" json:"bucket,omitempty"`
	// Prefix path prefix applied to every stored object
	Prefix string `yaml:"prefix,omitempty" toml:"prefix,omitempty" json:"prefix,omitempty"`
	// Endpoint custom endpoint for S3-compatible services
	Endpoint string `yaml:"endpoint,omitempty" toml:"endpoint,omitempty" json:"endpoint,omitempty"`

	AWS     *AWSConfig     `yaml:"aws,omitempty" toml:"aws,omitempty" json:"aws,omitempty"`
	LocalFS *LocalFSConfig `yaml:"localfs,omitempty" toml:"localfs,omitempty" json:"localfs,omitempty"`
}

// NewObjectStorageProvider creates a storage provider for the configured
// backend type
func NewObjectStorageProvider(cfg *ProviderConfig) (ObjectStorageProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider config cannot be nil")
	}

	switch cfg.Type {
	case ProviderTypeS3:
		return NewS3Provider(cfg)
	case ProviderTypeLocalFS:
		return NewLocalFSProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}
}
