package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Scheme marks a remote blocklist URL served from object storage.
const Scheme = "s3"

type Storage struct {
	client   *s3.Client
	maxBytes int64
}

type Config struct {
	Endpoint     string // Empty uses the AWS default resolver
	AccessKey    string
	SecretKey    string
	Region       string
	MaxReadBytes int64
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Region == "" {
		cfg.Region = "eu-central-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Storage{client: client, maxBytes: cfg.MaxReadBytes}, nil
}

// ParseURL splits s3://bucket/key into its parts.
func ParseURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse object url: %w", err)
	}
	if u.Scheme != Scheme {
		return "", "", fmt.Errorf("unsupported object url scheme %q", u.Scheme)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("object url %q needs a bucket and a key", raw)
	}
	return u.Host, key, nil
}

// ReadObject returns the body of the object named by an s3:// URL.
func (s *Storage) ReadObject(ctx context.Context, rawURL string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("storage not initialized")
	}
	bucket, key, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	var body io.Reader = out.Body
	if s.maxBytes > 0 {
		if out.ContentLength != nil && *out.ContentLength > s.maxBytes {
			return nil, fmt.Errorf("object too large: %d > %d", *out.ContentLength, s.maxBytes)
		}
		body = io.LimitReader(out.Body, s.maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}
