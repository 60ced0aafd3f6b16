package repomanager

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/authrelay/internal/server/repositories/users"
)

// S3Options configures the object storage backend.
type S3Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	ObjectKey    string
}

// S3RepositoryManager keeps the user collection in one JSON object.
type S3RepositoryManager struct {
	users *users.S3Repository
}

// NewS3RepositoryManager builds an S3 client for opts. Static credentials
// are used when AccessKey is set, otherwise the default AWS chain applies.
// A non-empty BaseEndpoint switches to path-style addressing (MinIO).
func NewS3RepositoryManager(ctx context.Context, opts S3Options) (*S3RepositoryManager, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3RepositoryManager(client, opts.Bucket, opts.ObjectKey), nil
}

func newS3RepositoryManager(client users.ObjectAPI, bucket, key string) *S3RepositoryManager {
	return &S3RepositoryManager{users: users.NewS3Repository(client, bucket, key)}
}

// Users returns the shared document repository. It must be shared so that
// its write lock covers every caller.
func (m *S3RepositoryManager) Users() users.Repository {
	return m.users
}

// RunMigrations is a no-op: the document is created on first write.
func (m *S3RepositoryManager) RunMigrations(context.Context) error {
	return nil
}

func (m *S3RepositoryManager) Close() error {
	return nil
}
