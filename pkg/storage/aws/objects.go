// File: pkg/storage/aws/objects.go
package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"terrable/pkg/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

func (s *AWSStorage) ListCommonPrefixes(ctx context.Context, bucketName, prefix, delimiter string) ([]string, error) {
	s.logger.Debug("Starting AWS ListCommonPrefixes operation", "bucket", bucketName, "prefix", prefix)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucketName),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(delimiter),
	})

	var prefixes []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError(err, bucketName, prefix)
		}
		for _, cp := range page.CommonPrefixes {
			prefixes = append(prefixes, aws.ToString(cp.Prefix))
		}
	}
	return prefixes, nil
}

func (s *AWSStorage) ListObjects(ctx context.Context, bucketName, prefix string) ([]storage.Object, error) {
	s.logger.Debug("Starting AWS ListObjects operation", "bucket", bucketName, "prefix", prefix)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucketName),
		Prefix: aws.String(prefix),
	})

	objects := make([]storage.Object, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError(err, bucketName, prefix)
		}
		for _, obj := range page.Contents {
			objects = append(objects, storage.Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified).UTC(),
			})
		}
	}
	return objects, nil
}

func (s *AWSStorage) GetObject(ctx context.Context, bucketName, objectKey string) (io.ReadCloser, error) {
	s.logger.Debug("Starting AWS GetObject operation", "bucket", bucketName, "key", objectKey)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, mapError(err, bucketName, objectKey)
	}
	return out.Body, nil
}

func (s *AWSStorage) PutObject(ctx context.Context, bucketName, objectKey string, body io.Reader, size int64, opts storage.PutOptions) error {
	s.logger.Debug("Starting AWS PutObject operation", "bucket", bucketName, "key", objectKey, "size", size)

	// Unsigned payloads are only allowed over TLS, so plain-http endpoints need a rewindable body
	if _, ok := body.(io.ReadSeeker); !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("failed to buffer upload body: %w", err)
		}
		body = bytes.NewReader(data)
		size = int64(len(data))
	}

	input := &s3.PutObjectInput{
		Bucket:   aws.String(bucketName),
		Key:      aws.String(objectKey),
		Body:     body,
		Metadata: opts.Metadata,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return mapError(err, bucketName, objectKey)
	}
	return nil
}

// Translates SDK errors into the storage sentinels, keeping the original error in the chain
func mapError(err error, bucketName, key string) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("s3://%s/%s: %w: %w", bucketName, key, storage.ErrObjectNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDenied" {
		return fmt.Errorf("s3://%s/%s: %w: %w", bucketName, key, storage.ErrAccessDenied, err)
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusForbidden {
		return fmt.Errorf("s3://%s/%s: %w: %w", bucketName, key, storage.ErrAccessDenied, err)
	}

	return fmt.Errorf("s3://%s/%s: %w", bucketName, key, err)
}
