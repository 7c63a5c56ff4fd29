package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// avatarCacheControl lets clients cache an avatar briefly; a new upload gets
// a fresh key.
const avatarCacheControl = "private, max-age=300"

// MinioConfig locates the avatar bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AvatarStore keeps avatar images as objects in a MinIO bucket.
type AvatarStore struct {
	client *minio.Client
	bucket string
}

// NewAvatarStore connects to MinIO and creates the bucket if it is missing,
// retrying until the server answers or ctx is done.
func NewAvatarStore(ctx context.Context, cfg MinioConfig, logger *slog.Logger) (*AvatarStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	err = retryConnect(ctx, logger, "minio", func(ctx context.Context) error {
		exists, err := client.BucketExists(ctx, cfg.Bucket)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		return client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{})
	})
	if err != nil {
		return nil, fmt.Errorf("minio bucket %s: %w", cfg.Bucket, err)
	}
	return &AvatarStore{client: client, bucket: cfg.Bucket}, nil
}

// Upload writes an avatar image under key.
func (s *AvatarStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: avatarCacheControl,
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("avatar put %s: %w", key, mapMinioError(err))
	}
	return nil
}

// Download returns the avatar bytes and their content type. A missing object
// is ErrNotFound.
func (s *AvatarStore) Download(ctx context.Context, key string) ([]byte, string, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, "", mapMinioError(err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", mapMinioError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, info.Size))
	if err != nil {
		return nil, "", fmt.Errorf("avatar read %s: %w", key, mapMinioError(err))
	}
	return data, info.ContentType, nil
}

// Remove deletes an avatar. Removing a missing object is not an error.
func (s *AvatarStore) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err = mapMinioError(err); err != nil && err != ErrNotFound {
		return fmt.Errorf("avatar remove %s: %w", key, err)
	}
	return nil
}

func mapMinioError(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrNotFound
	}
	return err
}
