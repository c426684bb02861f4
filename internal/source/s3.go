package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/lvonguyen/ppc-analyzer/internal/config"
)

const s3Scheme = "s3://"

// ObjectGetter is the subset of the S3 client used to fetch exports
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher downloads bulk exports from S3
type S3Fetcher struct {
	client ObjectGetter
}

// NewS3Fetcher creates a new S3 fetcher, assuming cfg.RoleARN when set
func NewS3Fetcher(ctx context.Context, cfg config.S3Config) (*S3Fetcher, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// If role ARN specified, assume role
	if cfg.RoleARN != "" {
		stsClient := sts.NewFromConfig(awsCfg)
		creds := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN)
		awsCfg.Credentials = aws.NewCredentialsCache(creds)
	}

	return NewS3FetcherWithClient(s3.NewFromConfig(awsCfg)), nil
}

// NewS3FetcherWithClient creates a fetcher around an existing client
func NewS3FetcherWithClient(client ObjectGetter) *S3Fetcher {
	return &S3Fetcher{client: client}
}

// Fetch opens the object at bucket/key. The caller closes the body.
func (f *S3Fetcher) Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// IsS3URI reports whether input names an S3 object
func IsS3URI(input string) bool {
	return strings.HasPrefix(input, s3Scheme)
}

// ParseS3URI splits s3://bucket/key into bucket and key
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsS3URI(uri) {
		return "", "", fmt.Errorf("not an s3 uri: %s", uri)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri must be s3://bucket/key, got %s", uri)
	}
	return bucket, key, nil
}
