// Package storage issues presigned upload URLs for card images in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config addresses the image bucket. Empty credentials fall back to the
// default AWS credentials chain.
type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the S3 endpoint (e.g. MinIO); path-style addressing
	// is used when set.
	Endpoint string
	// Expiry bounds the validity of a presigned URL. Defaults to 15 minutes.
	Expiry time.Duration
}

// S3Images presigns PUTs into a single bucket.
type S3Images struct {
	presign *s3.PresignClient
	region  string
	bucket  string
	expiry  time.Duration
}

// NewS3Images builds the presign client for cfg.
func NewS3Images(ctx context.Context, cfg Config) (*S3Images, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "ap-southeast-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Images{
		presign: s3.NewPresignClient(client),
		region:  region,
		bucket:  cfg.Bucket,
		expiry:  expiry,
	}, nil
}

// PresignPut returns a URL that accepts one PUT of key with contentType.
func (s *S3Images) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	out, err := s.presign.PresignPutObject(ctx, in, func(po *s3.PresignOptions) { po.Expires = s.expiry })
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return out.URL, nil
}

// PublicURL is the regional virtual URL of key.
func (s *S3Images) PublicURL(key string) string {
	return "https://s3." + s.region + ".amazonaws.com/" + s.bucket + "/" + key
}
