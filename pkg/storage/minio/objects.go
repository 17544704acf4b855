// File: pkg/storage/minio/objects.go
package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"terrable/pkg/storage"

	miniogo "github.com/minio/minio-go/v7"
)

// Non-recursive listings are grouped on "/" by the server
const listDelimiter = "/"

func (m *MinIOStorage) ListCommonPrefixes(ctx context.Context, bucketName, prefix, delimiter string) ([]string, error) {
	m.logger.Debug("Starting MinIO ListCommonPrefixes operation", "bucket", bucketName, "prefix", prefix)

	if delimiter != listDelimiter {
		return nil, fmt.Errorf("unsupported delimiter %q: MinIO listings only group on %q", delimiter, listDelimiter)
	}

	var prefixes []string
	err := collect(ctx, m.lister(bucketName, miniogo.ListObjectsOptions{Prefix: prefix, Recursive: false}), func(obj miniogo.ObjectInfo) {
		// Common prefixes come back as keys ending with the delimiter
		if strings.HasSuffix(obj.Key, listDelimiter) {
			prefixes = append(prefixes, obj.Key)
		}
	})
	if err != nil {
		return nil, mapError(err, bucketName, prefix)
	}
	return prefixes, nil
}

func (m *MinIOStorage) ListObjects(ctx context.Context, bucketName, prefix string) ([]storage.Object, error) {
	m.logger.Debug("Starting MinIO ListObjects operation", "bucket", bucketName, "prefix", prefix)

	objects := make([]storage.Object, 0)
	err := collect(ctx, m.lister(bucketName, miniogo.ListObjectsOptions{Prefix: prefix, Recursive: true}), func(obj miniogo.ObjectInfo) {
		objects = append(objects, storage.Object{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified.UTC(),
			ContentType:  obj.ContentType,
			Metadata:     obj.UserMetadata,
		})
	})
	if err != nil {
		return nil, mapError(err, bucketName, prefix)
	}
	return objects, nil
}

type listFunc func(ctx context.Context) <-chan miniogo.ObjectInfo

func (m *MinIOStorage) lister(bucketName string, opts miniogo.ListObjectsOptions) listFunc {
	return func(ctx context.Context) <-chan miniogo.ObjectInfo {
		return m.client.ListObjects(ctx, bucketName, opts)
	}
}

// collect drains a listing into fn and stops at the first error. The listing runs under its own
// cancellable context so the producer goroutine exits when collect returns early
func collect(ctx context.Context, list listFunc, fn func(miniogo.ObjectInfo)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range list(ctx) {
		if obj.Err != nil {
			return obj.Err
		}
		fn(obj)
	}
	return nil
}

func (m *MinIOStorage) GetObject(ctx context.Context, bucketName, objectKey string) (io.ReadCloser, error) {
	m.logger.Debug("Starting MinIO GetObject operation", "bucket", bucketName, "key", objectKey)

	obj, err := m.client.GetObject(ctx, bucketName, objectKey, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, bucketName, objectKey)
	}

	// GetObject is lazy; Stat surfaces a missing key before the caller starts reading
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, mapError(err, bucketName, objectKey)
	}
	return obj, nil
}

func (m *MinIOStorage) PutObject(ctx context.Context, bucketName, objectKey string, body io.Reader, size int64, opts storage.PutOptions) error {
	m.logger.Debug("Starting MinIO PutObject operation", "bucket", bucketName, "key", objectKey, "size", size)

	_, err := m.client.PutObject(ctx, bucketName, objectKey, body, size, miniogo.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		return mapError(err, bucketName, objectKey)
	}
	return nil
}

// Translates S3 error responses into the storage sentinels
func mapError(err error, bucketName, key string) error {
	resp := miniogo.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket"):
		return fmt.Errorf("s3://%s/%s: %w: %w", bucketName, key, storage.ErrObjectNotFound, err)
	case resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("s3://%s/%s: %w: %w", bucketName, key, storage.ErrAccessDenied, err)
	}
	return fmt.Errorf("s3://%s/%s: %w", bucketName, key, err)
}
