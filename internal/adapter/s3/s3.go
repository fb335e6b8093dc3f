// Package s3 uploads export shard files to S3-compatible object storage.
package s3

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/openstationmap/stationpipe/internal/config"
)

// Client wraps a minio connection for one bucket.
// It implements export.ObjectStore.
type Client struct {
	conn   *minio.Client
	bucket string
	logger *slog.Logger
}

// NewClient connects to the configured endpoint. The bucket must already
// exist; bucket lifecycle is managed outside the service.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	conn, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &Client{conn: conn, bucket: cfg.S3Bucket, logger: logger}, nil
}

// PutFile uploads one local file under key, overwriting any previous
// object with the same key so window re-runs stay idempotent.
func (c *Client) PutFile(ctx context.Context, key, localPath string) error {
	info, err := c.conn.FPutObject(ctx, c.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "application/gzip",
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	c.logger.Debug("object uploaded", "bucket", c.bucket, "key", key, "bytes", info.Size)
	return nil
}
