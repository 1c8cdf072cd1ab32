// Package avatars caches federated profile photos in S3-compatible object
// storage so the service never hot-links the provider's CDN.
package avatars

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/config"
)

// Cache copies provider photo URLs into the configured bucket. Refresh is
// best-effort for callers: federated login succeeds whether or not the
// photo could be cached.
type Cache struct {
	config *sc.Config
	client *http.Client
}

func NewCache(cfg *sc.Config) *Cache {
	return &Cache{
		config: cfg,
		client: &http.Client{Timeout: cfg.FederatedVerifyTimeout},
	}
}

func (c *Cache) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(c.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.config.S3RootUser,
			c.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.config.S3BaseEndpoint)
	}), nil
}

// Refresh downloads photoURL and stores it under avatars/<accountID>,
// returning the object key. The key is stable per account so a re-login
// overwrites the previous photo.
func (c *Cache) Refresh(ctx context.Context, accountID, photoURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download photo: status %d", resp.StatusCode)
	}

	client, err := c.getS3Client(ctx)
	if err != nil {
		return "", err
	}

	bucket := c.config.S3Bucket
	key := fmt.Sprintf("avatars/%s", accountID)

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          resp.Body,
		ContentType:   aws.String(resp.Header.Get("Content-Type")),
		ContentLength: aws.Int64(resp.ContentLength),
	})
	if err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}

	return key, nil
}
