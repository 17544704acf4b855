// File: pkg/storage/aws/client.go
package aws

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"terrable/internal/config"
	"terrable/internal/provider/registry"
	"terrable/pkg/common"
	"terrable/pkg/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultRegion = "us-east-1"

func init() {
	registry.RegisterProvider("aws", registry.Registration{
		ConfigCheck:  isConfigured,
		Initializer:  initialize,
		RequiredKeys: []string{"aws.region", "aws.profile"},
	})
}

// The SDK resolves credentials on its own (env, shared files, instance roles), so any config is usable
func isConfigured(cfg *config.Config) bool {
	return cfg != nil
}

// Initializes the S3 client from the profile, shared files directory, region and endpoint settings
func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg.AWS.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.AWS.Profile))
	}
	dir, err := config.ExpandPath(cfg.AWS.Directory)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		opts = append(opts,
			awsconfig.WithSharedConfigFiles([]string{filepath.Join(dir, "config")}),
			awsconfig.WithSharedCredentialsFiles([]string{filepath.Join(dir, "credentials")}),
		)
	}
	if cfg.AWS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWS.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = defaultRegion
	}

	endpoint := strings.TrimRight(cfg.AWS.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
			// S3-compatible stores rarely implement the flexible checksum headers
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
	})

	logger.Debug("AWS client initialized", "region", awsCfg.Region, "profile", cfg.AWS.Profile, "endpoint", endpoint)
	return NewAWSStorage(client, awsCfg.Region, endpoint, logger), nil
}

type AWSStorage struct {
	client   *s3.Client
	region   string
	endpoint string
	logger   *slog.Logger
}

var _ storage.Storage = (*AWSStorage)(nil)

// NewAWSStorage wraps an existing S3 client. An empty endpoint means the public AWS endpoint for region
func NewAWSStorage(client *s3.Client, region, endpoint string, logger *slog.Logger) *AWSStorage {
	if region == "" {
		region = defaultRegion
	}
	return &AWSStorage{
		client:   client,
		region:   region,
		endpoint: strings.TrimRight(endpoint, "/"),
		logger:   logger,
	}
}

func (s *AWSStorage) ProviderName() common.Provider {
	return common.AWS
}

// SourceURL returns the "s3::" locator Terraform uses to fetch a module from S3
func (s *AWSStorage) SourceURL(bucketName, objectKey string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("s3::%s/%s/%s", s.endpoint, bucketName, objectKey)
	}
	return fmt.Sprintf("s3::https://s3-%s.amazonaws.com/%s/%s", s.region, bucketName, objectKey)
}

func (s *AWSStorage) Close() error {
	// The SDK client holds no resources that need releasing
	return nil
}
