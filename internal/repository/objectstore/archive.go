// Package objectstore archives source documents in an S3-compatible bucket
// through the MinIO client.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mediscript/internal/domain/models/record"
)

// Config holds the connection settings for the archive bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ObjectPutter is the subset of *minio.Client the archive uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archive implements repositories.SourceArchive.
type Archive struct {
	client ObjectPutter
	bucket string
	logger *slog.Logger
}

// NewArchive connects to the object store and creates the bucket when it
// does not exist yet.
func NewArchive(ctx context.Context, cfg Config, logger *slog.Logger) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("archive bucket created", "bucket", cfg.Bucket)
	}

	return &Archive{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// NewArchiveWithClient wraps an existing client. The bucket must exist.
func NewArchiveWithClient(client ObjectPutter, bucket string, logger *slog.Logger) *Archive {
	return &Archive{client: client, bucket: bucket, logger: logger}
}

// Put uploads doc under key.
func (a *Archive) Put(ctx context.Context, key string, doc record.SourceDocument) error {
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(doc.Data), int64(len(doc.Data)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"original-name": doc.Name,
		},
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", a.bucket, key, err)
	}

	a.logger.Debug("source document archived",
		"bucket", a.bucket,
		"key", key,
		"size", info.Size,
	)
	return nil
}
