// File: pkg/storage/storage.go
package storage

import (
	"context"
	"errors"
	"io"
	"terrable/pkg/common"
)

var (
	// ErrObjectNotFound is returned by backends when a key does not exist in the bucket
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied is returned by backends when the credentials lack permission for the call
	ErrAccessDenied = errors.New("access denied")
)

// Storage is the object store capability consumed by the catalog and the publisher.
// Implementations live in pkg/storage/<provider> and register themselves with the provider registry.
type Storage interface {
	ProviderName() common.Provider

	// Returns the "directory-like" groupings directly below prefix, each ending with the delimiter
	ListCommonPrefixes(ctx context.Context, bucketName, prefix, delimiter string) ([]string, error)

	// Returns every object whose key starts with prefix, in the order the store reports them
	ListObjects(ctx context.Context, bucketName, prefix string) ([]Object, error)

	// Opens the object for reading. The caller must close the returned reader
	GetObject(ctx context.Context, bucketName, objectKey string) (io.ReadCloser, error)

	PutObject(ctx context.Context, bucketName, objectKey string, body io.Reader, size int64, opts PutOptions) error

	// Returns a locator for the object that can be used as a Terraform module source
	SourceURL(bucketName, objectKey string) string

	Close() error
}

// UsageReporter is implemented by backends that can report the total bytes stored in a bucket.
// Usage is -1 when the provider has not reported it yet.
type UsageReporter interface {
	BucketUsage(ctx context.Context, bucketName string) (int64, error)
}
