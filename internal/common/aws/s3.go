// internal/common/aws/s3.go
package aws

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used for document archiving.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Client struct {
	api    S3API
	bucket string
	prefix string
}

func NewS3Client(ctx context.Context, region, bucket, prefix string) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewS3ClientWithAPI(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func NewS3ClientWithAPI(api S3API, bucket, prefix string) *S3Client {
	return &S3Client{api: api, bucket: bucket, prefix: prefix}
}

func (c *S3Client) Bucket() string {
	return c.bucket
}

// DocumentKey returns <prefix>/<applicationID>/document-<unix>.pdf.
func (c *S3Client) DocumentKey(applicationID string, at time.Time) string {
	return path.Join(c.prefix, applicationID, fmt.Sprintf("document-%d.pdf", at.Unix()))
}

// Upload stores body under key and returns the object's ETag.
func (c *S3Client) Upload(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) (string, error) {
	out, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        awssdk.String(c.bucket),
		Key:           awssdk.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   awssdk.String(contentType),
		ContentLength: awssdk.Int64(int64(len(body))),
		Metadata:      metadata,
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", c.bucket, key, err)
	}
	return awssdk.ToString(out.ETag), nil
}
