// Package objectstore hosts KYC documents and exports in an S3-compatible
// bucket.
package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/barkshad/fuliza/internal/domain/port"
)

// Config locates the bucket. With PublicURL set, uploads are addressed
// through it; otherwise a presigned URL valid for URLExpiry is returned.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
	URLExpiry time.Duration
}

// Store implements port.DocumentHost.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
	expiry    time.Duration
	logger    *slog.Logger
}

// New connects and makes sure the bucket exists.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		expiry:    cfg.URLExpiry,
		logger:    logger,
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("bucket created", "bucket", s.bucket)
	return nil
}

// Upload stores doc under <folder>/<name>, replacing any earlier object.
func (s *Store) Upload(ctx context.Context, doc port.Document) (string, error) {
	key := ObjectKey(doc.Folder, doc.Name)
	size := doc.Size
	if size <= 0 {
		size = -1
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, doc.Body, size, minio.PutObjectOptions{
		ContentType: doc.ContentType,
		UserMetadata: map[string]string{
			"uploaded-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	s.logger.DebugContext(ctx, "document stored", "key", key, "size", info.Size)

	if s.publicURL != "" {
		return PublicURL(s.publicURL, key), nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// ObjectKey builds a clean object key; names cannot escape their folder.
func ObjectKey(folder, name string) string {
	name = path.Base("/" + name)
	if folder == "" {
		return name
	}
	return path.Join(strings.Trim(folder, "/"), name)
}

// PublicURL joins base and an object key, escaping each segment.
func PublicURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(segments, "/")
}
