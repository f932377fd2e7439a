package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string

	// PublicURL is an optional CDN or custom domain serving the bucket.
	PublicURL string
	// PublicRead uploads objects with the public-read canned ACL.
	PublicRead bool
	// MaxAttempts caps SDK retries. Zero keeps the SDK default.
	MaxAttempts int
}

// S3 stores objects in an S3-compatible bucket using path-style addressing.
type S3 struct {
	client     *s3.Client
	bucket     string
	endpoint   string
	publicURL  string
	publicRead bool
}

// NewS3 creates an S3 bucket client. Endpoint and credentials are required.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("s3: endpoint and credentials are required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
		// Many S3-compatible stores reject the SDK's default trailing checksums.
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
		RetryMaxAttempts:           cfg.MaxAttempts,
	})

	return &S3{
		client:     client,
		bucket:     cfg.Bucket,
		endpoint:   endpoint,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
		publicRead: cfg.PublicRead,
	}, nil
}

// Upload puts a new object with If-None-Match: *, so the store refuses to
// replace an existing key.
func (c *S3) Upload(ctx context.Context, name, contentType string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		IfNoneMatch:   aws.String("*"),
	}
	if c.publicRead {
		input.ACL = s3types.ObjectCannedACLPublicRead
	}

	_, err := c.client.PutObject(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, name, ErrObjectExists)
			}
		}
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, name, err)
	}
	return nil
}

// PublicURL uses the configured public URL if set, otherwise a path-style
// endpoint URL.
func (c *S3) PublicURL(name string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + name
	}
	return c.endpoint + "/" + c.bucket + "/" + name
}
