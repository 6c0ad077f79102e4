// Package media issues upload URLs for product images stored in S3.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/config"
	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/pkg/errors"
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Upload describes a presigned PUT the client performs directly against S3
type Upload struct {
	URL       string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Key       string            `json:"key"`
	PublicURL string            `json:"publicUrl"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

type Presigner struct {
	client *s3.PresignClient
	bucket string
	region string
	ttl    time.Duration
	logger *zap.Logger
}

// New loads the default AWS credential chain for cfg.Region
func New(ctx context.Context, cfg config.MediaConfig, logger *zap.Logger, opts ...func(*awsconfig.LoadOptions) error) (*Presigner, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("media bucket is not configured")
	}

	options := append([]func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}, opts...)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithConfig(awsCfg, cfg, logger), nil
}

// NewWithConfig builds a presigner over an already loaded AWS config
func NewWithConfig(awsCfg aws.Config, cfg config.MediaConfig, logger *zap.Logger) *Presigner {
	return &Presigner{
		client: s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
		bucket: cfg.Bucket,
		region: awsCfg.Region,
		ttl:    cfg.UploadTTL,
		logger: logger,
	}
}

// ProductImageUpload presigns a PUT for a new image of product id
func (p *Presigner) ProductImageUpload(ctx context.Context, id domain.ProductID, contentType string) (*Upload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, &errors.ErrValidation{Field: "contentType", Message: "only JPEG, PNG and WebP images can be uploaded"}
	}

	key := path.Join("products", id.String(), uuid.NewString()+ext)
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		p.logger.Error("Failed to presign upload", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	headers := map[string]string{"Content-Type": contentType}
	return &Upload{
		URL:       req.URL,
		Method:    req.Method,
		Headers:   headers,
		Key:       key,
		PublicURL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key),
		ExpiresAt: time.Now().Add(p.ttl),
	}, nil
}
