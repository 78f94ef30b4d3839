package sink

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Provider AWS S3 storage provider implementation
type S3Provider struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ ObjectStorageProvider = (*S3Provider)(nil)

// NewS3Provider creates a new S3 storage provider
func NewS3Provider(cfg *ProviderConfig) (*S3Provider, error) {
	if cfg.Type != ProviderTypeS3 {
		return nil, fmt.Errorf("invalid provider type: %s, expected: %s", cfg.Type, ProviderTypeS3)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required for S3 provider")
	}

	var loadOptions []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AWS != nil && cfg.AWS.AccessKey != "" && cfg.AWS.SecretAccessKey != "" {
		staticCredentials := credentials.NewStaticCredentialsProvider(
			cfg.AWS.AccessKey,
			cfg.AWS.SecretAccessKey,
			cfg.AWS.SessionToken,
		)
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(staticCredentials))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AWS != nil && cfg.AWS.S3ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3Provider{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// buildPath builds the complete path with prefix
func (s *S3Provider) buildPath(path string) string {
	if s.prefix == "" {
		return path
	}
	prefix := strings.TrimSuffix(s.prefix, "/")
	path = strings.TrimPrefix(path, "/")
	return prefix + "/" + path
}

// Upload implements ObjectStorageProvider interface
func (s *S3Provider) Upload(ctx context.Context, path string, data io.Reader) error {
	fullPath := s.buildPath(path)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullPath),
		Body:   data,
	})
	return err
}

// Download implements ObjectStorageProvider interface
func (s *S3Provider) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath := s.buildPath(path)
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullPath),
	})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// Delete implements ObjectStorageProvider interface
func (s *S3Provider) Delete(ctx context.Context, path string) error {
	fullPath := s.buildPath(path)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullPath),
	})
	return err
}

// Exists implements ObjectStorageProvider interface
func (s *S3Provider) Exists(ctx context.Context, path string) (bool, error) {
	fullPath := s.buildPath(path)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullPath),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List implements ObjectStorageProvider interface
func (s *S3Provider) List(ctx context.Context, prefix string) ([]string, error) {
	var objects []string
	fullPrefix := s.buildPath(prefix)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				objects = append(objects, *obj.Key)
			}
		}
	}
	return objects, nil
}
