package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/config"
)

// StorageService keeps scan images and the recipe catalog in an S3-compatible bucket
type StorageService struct {
	client     *minio.Client
	bucketName string
	region     string
	logger     *zap.Logger
}

// UploadResult contains information about an uploaded object
type UploadResult struct {
	Bucket      string
	Key         string
	Size        int64
	ContentType string
	ETag        string
}

// NewStorageService creates a new S3 storage service from the S3 settings in cfg
func NewStorageService(cfg *config.Config, logger *zap.Logger) (*StorageService, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &StorageService{
		client:     client,
		bucketName: cfg.S3Bucket,
		region:     cfg.S3Region,
		logger:     logger.Named("storage"),
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	s.logger.Info("bucket created", zap.String("bucket", s.bucketName))
	return nil
}

// Upload stores data under key
func (s *StorageService) Upload(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error) {
	info, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return &UploadResult{
		Bucket:      info.Bucket,
		Key:         info.Key,
		Size:        info.Size,
		ContentType: contentType,
		ETag:        info.ETag,
	}, nil
}

// GetPresignedURL generates a time-limited download URL
func (s *StorageService) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

// Download opens the object stored under key. A missing key fails on open
// rather than on first read.
func (s *StorageService) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return obj, nil
}

// Delete removes the object stored under key
func (s *StorageService) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// DeleteMultiple removes several objects in one batch
func (s *StorageService) DeleteMultiple(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for _, key := range keys {
			objectsCh <- minio.ObjectInfo{Key: key}
		}
	}()

	for rerr := range s.client.RemoveObjects(ctx, s.bucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return fmt.Errorf("failed to delete object %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	return nil
}

// BucketName returns the bucket name
func (s *StorageService) BucketName() string {
	return s.bucketName
}

// ScanImageKey builds the object key for a scan's uploaded image:
// scans/<user>/<yyyy>/<mm>/<scan id><ext>
func ScanImageKey(userID int, scanID, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		ext = ".jpg"
	}
	return fmt.Sprintf("scans/%d/%04d/%02d/%s%s", userID, now.Year(), int(now.Month()), scanID, ext)
}
