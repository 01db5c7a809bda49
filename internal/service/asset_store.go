package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/catalogops/priced-catalog-service/internal/domain"
	"github.com/catalogops/priced-catalog-service/internal/observability"
)

const (
	maxImageSize    = 500 * 1024 // 500 KB
	imagePathPrefix = "products"
)

var (
	ErrAssetTooLarge     = errors.New("image exceeds the 500KB size limit")
	ErrAssetInvalidType  = errors.New("invalid image type, only JPEG and PNG are allowed")
	ErrAssetUploadFailed = errors.New("failed to store image")
	ErrAssetDeleteFailed = errors.New("failed to delete image")
	ErrBucketInitFailed  = errors.New("failed to initialize storage bucket")

	allowedImageTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
	}
)

// AssetStore persists product image blobs under generated names and resolves
// public URLs for stored names.
type AssetStore interface {
	// Put stores the image and returns the generated object name.
	Put(ctx context.Context, file io.Reader, fileSize int64) (string, error)

	// ResolveURL maps a stored name to a public URL. The sentinel
	// domain.DefaultImage resolves to the placeholder URL. Pure function,
	// never fails.
	ResolveURL(name string) string

	// Delete removes a stored object. Best-effort and idempotent: a missing
	// object is not an error. Callers must not pass the sentinel.
	Delete(ctx context.Context, name string) error
}

// MinIOAssetStore implements AssetStore on MinIO/S3-compatible storage.
type MinIOAssetStore struct {
	client         *minio.Client
	bucketName     string
	publicBaseURL  string
	placeholderURL string
	initOnce       sync.Once
	initErr        error
}

// NewMinIOAssetStore creates a MinIO-backed asset store. Bucket creation is
// deferred until the first operation to avoid blocking app startup.
func NewMinIOAssetStore(endpoint, accessKey, secretKey, bucketName, publicBaseURL, placeholderURL string, useSSL bool) (*MinIOAssetStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOAssetStore{
		client:         client,
		bucketName:     bucketName,
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
		placeholderURL: placeholderURL,
	}, nil
}

func (s *MinIOAssetStore) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.ensureBucketExists(ctx)
	})
	return s.initErr
}

func (s *MinIOAssetStore) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketInitFailed, err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketInitFailed, err)
		}
	}

	return nil
}

// Put stores an image after size and type validation. The content type is
// detected from the actual bytes, not a client-provided header.
func (s *MinIOAssetStore) Put(ctx context.Context, file io.Reader, fileSize int64) (string, error) {
	if fileSize > maxImageSize {
		observability.RecordAssetOperation(ctx, "put", "too_large")
		return "", ErrAssetTooLarge
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		observability.RecordAssetOperation(ctx, "put", "error")
		return "", fmt.Errorf("%w: read file for content detection: %v", ErrAssetUploadFailed, err)
	}
	buf = buf[:n]

	detectedType := strings.ToLower(strings.TrimSpace(http.DetectContentType(buf)))
	if _, allowed := allowedImageTypes[detectedType]; !allowed {
		observability.RecordAssetOperation(ctx, "put", "invalid_type")
		return "", ErrAssetInvalidType
	}

	if err := s.lazyInit(ctx); err != nil {
		observability.RecordAssetOperation(ctx, "put", "error")
		return "", err
	}

	fullFile := io.MultiReader(bytes.NewReader(buf), file)
	objectName := fmt.Sprintf("%s/%s%s", imagePathPrefix, uuid.New().String(), contentTypeToExtension(detectedType))

	_, err = s.client.PutObject(ctx, s.bucketName, objectName, fullFile, fileSize, minio.PutObjectOptions{
		ContentType: detectedType,
	})
	if err != nil {
		observability.RecordAssetOperation(ctx, "put", "error")
		return "", fmt.Errorf("%w: %v", ErrAssetUploadFailed, err)
	}

	observability.RecordAssetOperation(ctx, "put", "success")
	return objectName, nil
}

func (s *MinIOAssetStore) ResolveURL(name string) string {
	if name == "" || name == domain.DefaultImage {
		return s.placeholderURL
	}
	return s.publicBaseURL + "/" + path.Join(s.bucketName, name)
}

func (s *MinIOAssetStore) Delete(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	if strings.Contains(name, "..") {
		return ErrAssetDeleteFailed
	}

	if err := s.lazyInit(ctx); err != nil {
		observability.RecordAssetOperation(ctx, "delete", "error")
		return err
	}

	// RemoveObject on a missing key succeeds, which keeps Delete idempotent.
	if err := s.client.RemoveObject(ctx, s.bucketName, name, minio.RemoveObjectOptions{}); err != nil {
		observability.RecordAssetOperation(ctx, "delete", "error")
		return fmt.Errorf("%w: %v", ErrAssetDeleteFailed, err)
	}

	observability.RecordAssetOperation(ctx, "delete", "success")
	return nil
}

func contentTypeToExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
