// Package s3 uploads rendered batch output to S3-compatible object storage.
package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"semclass/internal/config"
	"semclass/internal/port"
)

// ObjectStore implements port.ObjectStorage on top of the S3 upload manager.
type ObjectStore struct {
	uploader *manager.Uploader
}

// NewObjectStore creates an ObjectStore. Static credentials are used when both keys are
// configured, otherwise the default AWS credential chain. A custom endpoint switches to
// path-style addressing (MinIO, LocalStack).
func NewObjectStore(ctx context.Context, cfg *config.S3Config) (*ObjectStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &ObjectStore{uploader: manager.NewUploader(client)}, nil
}

func (o *ObjectStore) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	put := &s3.PutObjectInput{
		Bucket: aws.String(input.Bucket),
		Key:    aws.String(input.Key),
		Body:   input.Body,
	}
	if input.ContentType != "" {
		put.ContentType = aws.String(input.ContentType)
	}
	if len(input.Metadata) > 0 {
		put.Metadata = input.Metadata
	}

	result, err := o.uploader.Upload(ctx, put)
	if err != nil {
		return nil, fmt.Errorf("s3 upload %s/%s: %w", input.Bucket, input.Key, err)
	}

	out := &port.UploadOutput{Location: result.Location}
	if result.ETag != nil {
		out.ETag = *result.ETag
	}
	return out, nil
}
