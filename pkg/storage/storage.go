package storage

import (
	"context"
	"io"
	"time"
)

// Storage is the file storage contract used by the rest of the service.
type Storage interface {
	// Put uploads r. size is sent as the content length.
	Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error)

	// Get opens a stored file. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error

	// URL returns a signed URL unless WithPublic is given.
	URL(ctx context.Context, key string, opts ...URLOption) (string, error)
}

// Config holds S3 connection settings.
type Config struct {
	Bucket    string `env:"S3_BUCKET"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	// Endpoint is set for MinIO and other S3-compatible services.
	Endpoint string `env:"S3_ENDPOINT"`
	Region   string `env:"S3_REGION" envDefault:"us-east-1"`
	// PublicURL is a CDN prefix used instead of the bucket URL.
	PublicURL  string `env:"S3_PUBLIC_URL"`
	DefaultACL ACL    `env:"S3_DEFAULT_ACL" envDefault:"private"`
	PathStyle  bool   `env:"S3_PATH_STYLE" envDefault:"false"`
}

// FileInfo describes an uploaded object.
type FileInfo struct {
	Key         string
	URL         string
	ContentType string
	ACL         ACL
	Size        int64
}

type ACL string

const (
	ACLPrivate    ACL = "private"
	ACLPublicRead ACL = "public-read"
)

const (
	DefaultRegion    = "us-east-1"
	DefaultURLExpiry = 15 * time.Minute
)

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.DefaultACL == "" {
		c.DefaultACL = ACLPrivate
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	if c.DefaultACL != ACLPrivate && c.DefaultACL != ACLPublicRead {
		return ErrInvalidConfig
	}
	return nil
}
