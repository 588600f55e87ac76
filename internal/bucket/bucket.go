package bucket

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	S3AccessKey       string `mapstructure:"s3_access_key"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key"`
	S3Endpoint        string `mapstructure:"s3_endpoint"`
	S3BucketName      string `mapstructure:"s3_bucket_name"`
	S3BucketLocation  string `mapstructure:"s3_bucket_location"`
	BaseFolder        string `mapstructure:"base_folder"`
	Insecure          bool   `mapstructure:"insecure"`
}

type Bucket struct {
	*minio.Client
	*Config
}

// New creates an S3 compatible client for the configured bucket.
func (c *Config) New() (*Bucket, error) {
	cli, err := minio.New(c.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.S3AccessKey, c.S3SecretAccessKey, ""),
		Secure: !c.Insecure,
		Region: c.S3BucketLocation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &Bucket{
		Client: cli,
		Config: c,
	}, nil
}

// GetObject opens the object stored under key. A missing object yields an
// error wrapping fs.ErrNotExist.
func (b *Bucket) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := b.Client.GetObject(ctx, b.S3BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("object %s: %w", key, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	return obj, nil
}
