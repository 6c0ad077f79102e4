package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlecraft/storefront/internal/domain"
)

const sample = `
products:
  - id: 1
    name: Lavender Dream
    price: 499
    original_price: 599
    description: Hand-poured soy candle
    images: [lavender-1.jpg, lavender-2.jpg]
    features: [40 hour burn]
    specifications:
      weight: 200g
    category: floral
  - id: gift-box
    name: Gift Box
    price: 250
    in_stock: false
`

func TestDecode(t *testing.T) {
	products, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, products, 2)

	lavender := products[0]
	assert.Equal(t, domain.ProductID("1"), lavender.ID)
	assert.Equal(t, 599.0, lavender.OriginalPrice)
	assert.Equal(t, "lavender-1.jpg", lavender.PrimaryImage())
	assert.Equal(t, "200g", lavender.Specifications["weight"])
	assert.True(t, lavender.InStock)

	box := products[1]
	assert.Equal(t, domain.ProductID("gift-box"), box.ID)
	assert.Equal(t, 250.0, box.OriginalPrice)
	assert.False(t, box.InStock)
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode(strings.NewReader("products:\n  - name: Cedar\n    price: 10\n    colour: red\n"))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("products:\n  - price: 10\n"))
	assert.ErrorContains(t, err, "product 1")

	products, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	products, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
