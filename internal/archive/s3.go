package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rbright/candor/internal/config"
	"github.com/rbright/candor/internal/interview"
)

// PutObjectAPI is the subset of the S3 client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads archived interviews to an S3-compatible bucket.
type S3 struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3 creates a sink over an existing client.
func NewS3(client PutObjectAPI, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

// NewS3FromConfig builds an S3 client from the archive config. Static
// credentials are read from the configured environment variables when both
// are set; otherwise the default AWS credential chain applies.
func NewS3FromConfig(ctx context.Context, cfg config.ArchiveConfig) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region := strings.TrimSpace(cfg.Region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	accessKey := os.Getenv(cfg.AccessKeyEnv)
	secretKey := os.Getenv(cfg.SecretKeyEnv)
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3(client, cfg.Bucket, cfg.Prefix), nil
}

// Store uploads result.json and the answer recordings and returns the s3:// location.
func (s *S3) Store(ctx context.Context, result interview.Result) (string, error) {
	objs, err := objects(s.prefix, result)
	if err != nil {
		return "", err
	}
	for _, obj := range objs {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(obj.key),
			Body:        bytes.NewReader(obj.body),
			ContentType: aws.String(obj.contentType),
		})
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", obj.key, err)
		}
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, path.Join(strings.Trim(s.prefix, "/"), result.ID)), nil
}
