package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// ObjectGetter is the part of the S3 client the source uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configure NewS3Client.
type S3Options struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
	AccessKey    string
	SecretKey    string
}

// NewS3Client builds an S3 client. Static credentials are used when both
// keys are set, otherwise the default AWS credential chain applies. A custom
// endpoint targets S3-compatible stores (MinIO, R2).
func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(o.Region)}
	if o.AccessKey != "" && o.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("op=catalog.NewS3Client: %w", err)
	}
	return s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
		so.UsePathStyle = o.UsePathStyle
	}), nil
}

// S3Source loads a catalog object from S3.
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Key    string
}

// NewS3Source returns an S3Source for bucket/key.
func NewS3Source(client ObjectGetter, bucket, key string) *S3Source {
	return &S3Source{Client: client, Bucket: bucket, Key: key}
}

// Name implements domain.CatalogSource.
func (s *S3Source) Name() string { return "s3" }

// Load implements domain.CatalogSource.
func (s *S3Source) Load(ctx context.Context) ([]domain.Posting, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("op=catalog.S3Source.Load: get s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxCatalogBytes+1))
	if err != nil {
		return nil, fmt.Errorf("op=catalog.S3Source.Load: read body: %w", err)
	}
	if len(data) > maxCatalogBytes {
		return nil, fmt.Errorf("op=catalog.S3Source.Load: object exceeds %d bytes", maxCatalogBytes)
	}
	return decodeNamed(s.Key, data)
}
