// Package gcs stores rendered card images in Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/phrazzld/loopmind-api/internal/config"
	"google.golang.org/api/option"
)

const uploadTimeout = 2 * time.Minute

// ErrEmptyObject is returned when Put is called without data.
var ErrEmptyObject = errors.New("object data cannot be empty")

// Locator returns the gs:// URL of key in bucket.
func Locator(bucket, key string) string {
	return "gs://" + bucket + "/" + key
}

// objectWriter opens a writer for one object. The storage client satisfies
// it through storageWriter; tests substitute an in-memory writer.
type objectWriter func(ctx context.Context, bucket, key, contentType string) io.WriteCloser

// BlobStore writes objects to a single bucket.
type BlobStore struct {
	bucket string
	open   objectWriter
	close  func() error
	logger *slog.Logger
}

// NewBlobStore creates a BlobStore for cfg.Bucket. When cfg.StorageEndpoint
// is set the client talks to that endpoint without authentication, which is
// how local emulators are reached.
func NewBlobStore(ctx context.Context, cfg config.RenderConfig, logger *slog.Logger) (*BlobStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("render bucket cannot be empty")
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if cfg.StorageEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.StorageEndpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	store := newBlobStore(cfg.Bucket, storageWriter(client), logger)
	store.close = client.Close
	return store, nil
}

func newBlobStore(bucket string, open objectWriter, logger *slog.Logger) *BlobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobStore{
		bucket: bucket,
		open:   open,
		close:  func() error { return nil },
		logger: logger.With("component", "blob_store", "bucket", bucket),
	}
}

func storageWriter(client *storage.Client) objectWriter {
	return func(ctx context.Context, bucket, key, contentType string) io.WriteCloser {
		w := client.Bucket(bucket).Object(key).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
}

// Put writes data under key and returns the object's locator.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyObject
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.open(ctx, s.bucket, key, contentType)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer for object %q: %w", key, err)
	}

	s.logger.DebugContext(ctx, "stored object",
		"key", key,
		"size", len(data),
		"content_type", contentType)

	return Locator(s.bucket, key), nil
}

// Close releases the underlying storage client.
func (s *BlobStore) Close() error {
	return s.close()
}
