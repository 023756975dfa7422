package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// ObjectReader opens objects by bucket and key.
type ObjectReader interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// S3Config holds the connection settings for S3 or an S3-compatible endpoint.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// S3Reader reads objects from S3.
type S3Reader struct {
	Client *s3.Client
}

// NewS3Reader builds a client from the default AWS chain, overridden by static keys when set.
func NewS3Reader(ctx context.Context, cfg S3Config) (*S3Reader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Str("endpoint", cfg.Endpoint).Msg("initialising S3 client")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Reader{Client: client}, nil
}

func (r *S3Reader) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	resp, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	return resp.Body, nil
}

// DirReader serves objects from a local directory laid out as <root>/<bucket>/<key>.
type DirReader struct {
	Root string
}

func (r DirReader) Open(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(r.Root, bucket, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s/%s: %w", bucket, key, err)
	}
	return f, nil
}
