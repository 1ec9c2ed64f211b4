package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"

	appconfig "github.com/HadesClient/hades-web/internal/pkg/config"
)

// Client wraps an S3 client authenticated with the service credentials.
type Client struct {
	s3Client      *s3.Client
	endpointURL   string
	region        string
	publicBaseURL string
}

// NewClient creates an S3 client from the application config
func NewClient(ctx context.Context, cfg *appconfig.Config) (*Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.S3EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.S3EndpointURL)
			o.UsePathStyle = true
		}
	})

	log.Infof("[ObjectStore] Initialized S3 client (region=%s endpoint=%q)", cfg.S3Region, cfg.S3EndpointURL)
	return &Client{
		s3Client:      s3Client,
		endpointURL:   strings.TrimRight(cfg.S3EndpointURL, "/"),
		region:        cfg.S3Region,
		publicBaseURL: strings.TrimRight(cfg.S3PublicBaseURL, "/"),
	}, nil
}

// Bucket returns a handle on the named bucket.
func (c *Client) Bucket(name string) Bucket {
	return &s3Bucket{client: c, name: name}
}

type s3Bucket struct {
	client *Client
	name   string
}

func (b *s3Bucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := b.client.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.name),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", b.name, key, err)
	}
	return nil
}

func (b *s3Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", b.name, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", b.name, key, err)
	}
	return data, nil
}

func (b *s3Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.client.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete s3://%s/%s: %w", b.name, key, err)
	}
	return nil
}

// PublicURL builds the browser-facing URL of an object in a public bucket.
func (b *s3Bucket) PublicURL(key string) string {
	switch {
	case b.client.publicBaseURL != "":
		return fmt.Sprintf("%s/%s/%s", b.client.publicBaseURL, b.name, key)
	case b.client.endpointURL != "":
		return fmt.Sprintf("%s/%s/%s", b.client.endpointURL, b.name, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.name, b.client.region, key)
	}
}
