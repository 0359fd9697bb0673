package filestore

import "github.com/koustreak/dsqldump/internal/errs"

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// DefaultEndpoint is used when no endpoint is configured.
const DefaultEndpoint = "s3.amazonaws.com"

// Config holds all settings needed to upload a dump to object storage.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider

	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string

	// AccessKey is the access key ID (MinIO / S3 style). When empty the
	// AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY environment is used.
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends (e.g. AWS S3).
	// Leave empty for MinIO.
	Region string

	// Bucket and Key locate the uploaded dump.
	Bucket string
	Key    string
}

// DefaultConfig returns an S3 config for bucket/key over TLS.
func DefaultConfig(bucket, key string) *Config {
	return &Config{
		Provider: ProviderMinIO,
		Endpoint: DefaultEndpoint,
		UseSSL:   true,
		Bucket:   bucket,
		Key:      key,
	}
}

// Validate reports a missing bucket or key.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errs.New(errs.ErrKindValidation, "object storage output needs a bucket")
	}
	if c.Key == "" {
		return errs.New(errs.ErrKindValidation, "object storage output needs an object key")
	}
	return nil
}
