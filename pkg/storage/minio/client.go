// File: pkg/storage/minio/client.go
package minio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"terrable/internal/config"
	"terrable/internal/provider/registry"
	"terrable/pkg/common"
	"terrable/pkg/storage"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultRegion = "us-east-1"

func init() {
	registry.RegisterProvider("minio", registry.Registration{
		ConfigCheck:  isConfigured,
		Initializer:  initialize,
		RequiredKeys: []string{"minio.endpoint", "minio.access_key", "minio.secret_key"},
	})
}

func isConfigured(cfg *config.Config) bool {
	return cfg != nil && cfg.MinIO.Endpoint != ""
}

func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("MinIO configuration missing or incomplete")
	}
	return NewMinIOStorage(Options{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Region:    cfg.MinIO.Region,
		Secure:    cfg.MinIO.Secure,
	}, logger)
}

// Options describes how to reach an S3-compatible server
type Options struct {
	// host:port, without scheme
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool
}

type MinIOStorage struct {
	client   *miniogo.Client
	endpoint string
	secure   bool
	logger   *slog.Logger
}

var _ storage.Storage = (*MinIOStorage)(nil)

func NewMinIOStorage(opts Options, logger *slog.Logger) (*MinIOStorage, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(opts.Endpoint, "https://"), "http://")
	endpoint = strings.TrimRight(endpoint, "/")

	region := opts.Region
	if region == "" {
		// A fixed region skips the bucket location lookup before every call
		region = defaultRegion
	}

	client, err := miniogo.New(endpoint, &miniogo.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       opts.Secure,
		Region:       region,
		BucketLookup: miniogo.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOStorage{
		client:   client,
		endpoint: endpoint,
		secure:   opts.Secure,
		logger:   logger,
	}, nil
}

func (m *MinIOStorage) ProviderName() common.Provider {
	return common.MinIO
}

// SourceURL returns an "s3::" locator with path-style addressing against the server
func (m *MinIOStorage) SourceURL(bucketName, objectKey string) string {
	scheme := "http"
	if m.secure {
		scheme = "https"
	}
	return fmt.Sprintf("s3::%s://%s/%s/%s", scheme, m.endpoint, bucketName, objectKey)
}

func (m *MinIOStorage) Close() error {
	return nil
}
