// File: pkg/storage/gcp/objects.go
package gcp

import (
	"context"
	"fmt"
	"io"

	"terrable/pkg/storage"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

func (g *GCPStorage) ListCommonPrefixes(ctx context.Context, bucketName, prefix, delimiter string) ([]string, error) {
	g.logger.Debug("Starting GCP ListCommonPrefixes operation", "bucket", bucketName, "prefix", prefix)

	query := &gcpstorage.Query{
		Prefix:    prefix,
		Delimiter: delimiter,
	}
	if err := query.SetAttrSelection([]string{"Prefix"}); err != nil {
		return nil, fmt.Errorf("error building query: %w", err)
	}

	it := g.client.Bucket(bucketName).Objects(ctx, query)

	var prefixes []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapError(err, bucketName, prefix)
		}

		// Entries with Prefix set are the synthetic "directories"
		if attrs.Prefix != "" {
			prefixes = append(prefixes, attrs.Prefix)
		}
	}
	return prefixes, nil
}

func (g *GCPStorage) ListObjects(ctx context.Context, bucketName, prefix string) ([]storage.Object, error) {
	g.logger.Debug("Starting GCP ListObjects operation", "bucket", bucketName, "prefix", prefix)

	query := &gcpstorage.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name", "Size", "Updated", "ContentType", "Metadata"}); err != nil {
		return nil, fmt.Errorf("error building query: %w", err)
	}

	it := g.client.Bucket(bucketName).Objects(ctx, query)

	objects := make([]storage.Object, 0)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapError(err, bucketName, prefix)
		}
		objects = append(objects, mapObjectAttributes(attrs))
	}
	return objects, nil
}

func (g *GCPStorage) GetObject(ctx context.Context, bucketName, objectKey string) (io.ReadCloser, error) {
	g.logger.Debug("Starting GCP GetObject operation", "bucket", bucketName, "object", objectKey)

	reader, err := g.client.Bucket(bucketName).Object(objectKey).NewReader(ctx)
	if err != nil {
		return nil, mapError(err, bucketName, objectKey)
	}
	return reader, nil
}

func (g *GCPStorage) PutObject(ctx context.Context, bucketName, objectKey string, body io.Reader, size int64, opts storage.PutOptions) error {
	g.logger.Debug("Starting GCP PutObject operation", "bucket", bucketName, "object", objectKey, "size", size)

	// Cancelling the writer's context discards a partially written object
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := g.client.Bucket(bucketName).Object(objectKey).NewWriter(writeCtx)
	writer.ContentType = opts.ContentType
	writer.Metadata = opts.Metadata
	if size > 0 && size < int64(writer.ChunkSize) {
		// Small archives go up in a single request
		writer.ChunkSize = 0
	}

	if _, err := io.Copy(writer, body); err != nil {
		cancel()
		writer.Close()
		return fmt.Errorf("error uploading gs://%s/%s: %w", bucketName, objectKey, err)
	}
	if err := writer.Close(); err != nil {
		return mapError(err, bucketName, objectKey)
	}
	return nil
}
