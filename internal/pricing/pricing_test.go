package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/candlecraft/storefront/internal/domain"
)

func lavender() domain.Product {
	return domain.Product{ID: "1", Name: "Lavender Dream", Price: 790, OriginalPrice: 990}
}

func TestSummarize_GiftLine(t *testing.T) {
	items := []domain.CartItem{{ID: "1-1", Product: lavender(), Quantity: 2, IsGift: true}}

	got := Summarize(items, DefaultRates())

	assert.Equal(t, 1580.0, got.Subtotal)
	assert.Equal(t, 400.0, got.TotalDiscount)
	assert.Equal(t, 60.0, got.GiftCharges)
	assert.Equal(t, 7.0, got.PlatformFee)
	assert.Equal(t, 1647.0, got.Total)
	assert.Equal(t, 2, got.TotalItems)
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil, DefaultRates())

	assert.Equal(t, domain.CartSummary{PlatformFee: 7, Total: 7}, got)
}

func TestSummarize_TotalIdentity(t *testing.T) {
	rates := Rates{GiftCharge: 45, PlatformFee: 12}
	items := []domain.CartItem{
		{ID: "a", Product: lavender(), Quantity: 1},
		{ID: "b", Product: domain.Product{ID: "2", Price: 500, OriginalPrice: 500}, Quantity: 3, IsGift: true},
		{ID: "c", Product: lavender(), Quantity: 4, IsGift: true},
	}

	got := Summarize(items, rates)

	assert.Equal(t, got.Subtotal+got.GiftCharges+rates.PlatformFee, got.Total)
	assert.Equal(t, 8, got.TotalItems)
	assert.Equal(t, 45.0*7, got.GiftCharges)
}

func TestSummarize_DoesNotMutate(t *testing.T) {
	items := []domain.CartItem{{ID: "1-1", Product: lavender(), Quantity: 2}}
	first := Summarize(items, DefaultRates())
	second := Summarize(items, DefaultRates())

	assert.Equal(t, first, second)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestPercentOff(t *testing.T) {
	assert.Equal(t, 20, PercentOff(lavender()))
	assert.Equal(t, 0, PercentOff(domain.Product{Price: 100, OriginalPrice: 100}))
	assert.Equal(t, 0, PercentOff(domain.Product{Price: 0, OriginalPrice: 0}))
	assert.Equal(t, 33, PercentOff(domain.Product{Price: 200, OriginalPrice: 300}))
}
