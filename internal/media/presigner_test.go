package media

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/config"
	"github.com/candlecraft/storefront/pkg/errors"
)

func newTestPresigner() *Presigner {
	awsCfg := aws.Config{
		Region:      "ap-south-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}
	cfg := config.MediaConfig{Bucket: "candle-media", UploadTTL: 15 * time.Minute}
	return NewWithConfig(awsCfg, cfg, zap.NewNop())
}

func TestProductImageUpload(t *testing.T) {
	p := newTestPresigner()

	up, err := p.ProductImageUpload(context.Background(), "lavender-jar", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "PUT", up.Method)
	assert.True(t, strings.HasPrefix(up.Key, "products/lavender-jar/"))
	assert.True(t, strings.HasSuffix(up.Key, ".png"))
	assert.Equal(t, "https://candle-media.s3.ap-south-1.amazonaws.com/"+up.Key, up.PublicURL)
	assert.Equal(t, "image/png", up.Headers["Content-Type"])

	u, err := url.Parse(up.URL)
	require.NoError(t, err)
	assert.Contains(t, u.Host, "candle-media")
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestProductImageUpload_RejectsType(t *testing.T) {
	_, err := newTestPresigner().ProductImageUpload(context.Background(), "1", "application/pdf")
	assert.True(t, errors.IsValidation(err))
}
