package storage

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/moldock/pkg/errors"
)

// MinIOConfig describes the object-store backend.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
}

// MinIOStore is a Store backed by a single object-store bucket.  Object keys
// are the store paths verbatim.  Rename is not available: Move is server-side
// copy followed by delete.
type MinIOStore struct {
	client *minio.Client
	bucket string
	logger logging.Logger
}

// NewMinIOStore connects to the object store, verifies the connection and
// creates the bucket when missing.
func NewMinIOStore(cfg *MinIOConfig, log logging.Logger) (*MinIOStore, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "moldock-artifacts"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create bucket "+cfg.Bucket)
		}
	}

	log.Info("minio store connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))

	return &MinIOStore{client: client, bucket: cfg.Bucket, logger: log}, nil
}

func (s *MinIOStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "stat "+path)
	}
	return true, nil
}

func (s *MinIOStore) Read(ctx context.Context, path string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "get "+path)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, apperrors.NotFound("no content at " + path)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "read "+path)
	}
	return data, nil
}

func (s *MinIOStore) Write(ctx context.Context, path string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, path,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "chemical/x-pdb"})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "put "+path)
	}
	return nil
}

func (s *MinIOStore) Move(ctx context.Context, src, dst string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: s.bucket, Object: src})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "copy "+src+" to "+dst)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, src, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Warn("source cleanup after copy failed",
			logging.String("path", src), logging.Err(err))
	}
	return nil
}

func (s *MinIOStore) Remove(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "remove "+path)
	}
	return nil
}

func (s *MinIOStore) CanRename() bool { return false }
