// Package storage issues presigned upload URLs for listing photos.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const uploadExpiry = 15 * time.Minute

var (
	// ErrUnsupportedType is returned for non-image uploads.
	ErrUnsupportedType = errors.New("only jpeg, png, webp and gif images are accepted")
	// ErrNotConfigured is returned when no object storage is wired.
	ErrNotConfigured = errors.New("photo uploads are not configured")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Config holds the S3-compatible endpoint settings.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// Upload is a presigned PUT target plus the URL the object will be served from.
type Upload struct {
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Presigner signs object uploads.
type Presigner interface {
	PresignedPutObject(ctx context.Context, bucket, object string, expires time.Duration) (*url.URL, error)
}

// PhotoStore creates upload slots under listings/<user>/.
type PhotoStore struct {
	client     Presigner
	bucket     string
	publicBase string
	now        func() time.Time
}

// NewMinIO connects to an S3-compatible endpoint and makes sure the bucket exists.
func NewMinIO(ctx context.Context, cfg Config) (*PhotoStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", cfg.Bucket, err)
		}
	}

	base := cfg.PublicBaseURL
	if base == "" {
		base = client.EndpointURL().String() + "/" + cfg.Bucket
	}
	return NewPhotoStore(client, cfg.Bucket, base), nil
}

// NewPhotoStore builds a PhotoStore around any presigner.
func NewPhotoStore(client Presigner, bucket, publicBase string) *PhotoStore {
	return &PhotoStore{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		now:        time.Now,
	}
}

// PresignPhoto reserves an object key for userID and returns a signed PUT URL.
// The extension always follows the content type.
func (s *PhotoStore) PresignPhoto(ctx context.Context, userID, filename, contentType string) (*Upload, error) {
	if s == nil || s.client == nil {
		return nil, ErrNotConfigured
	}
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, ErrUnsupportedType
	}
	if given := strings.ToLower(path.Ext(filename)); given == ".jpeg" && ext == ".jpg" {
		ext = given
	}

	key := fmt.Sprintf("listings/%s/%s%s", url.PathEscape(userID), uuid.NewString(), ext)
	signed, err := s.client.PresignedPutObject(ctx, s.bucket, key, uploadExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}

	return &Upload{
		UploadURL: signed.String(),
		PublicURL: s.publicBase + "/" + key,
		ObjectKey: key,
		ExpiresAt: s.now().Add(uploadExpiry).UTC(),
	}, nil
}
