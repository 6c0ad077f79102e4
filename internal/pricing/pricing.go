// Package pricing holds every price computation of the storefront: cart
// summaries, order totals and percent-off figures shown on product views.
package pricing

import (
	"math"

	"github.com/candlecraft/storefront/internal/domain"
)

const (
	// DefaultGiftCharge is the per-unit surcharge on gift-flagged lines
	DefaultGiftCharge = 30.0
	// DefaultPlatformFee is charged once per cart regardless of contents
	DefaultPlatformFee = 7.0
)

// Rates are the fixed charges applied on top of product prices
type Rates struct {
	GiftCharge  float64
	PlatformFee float64
}

// DefaultRates returns the storefront's standard charges
func DefaultRates() Rates {
	return Rates{
		GiftCharge:  DefaultGiftCharge,
		PlatformFee: DefaultPlatformFee,
	}
}

// Summarize computes the cart summary. It does not modify items.
func Summarize(items []domain.CartItem, rates Rates) domain.CartSummary {
	summary := domain.CartSummary{PlatformFee: rates.PlatformFee}

	for _, item := range items {
		qty := float64(item.Quantity)
		summary.Subtotal += LineTotal(item.Product.Price, item.Quantity)
		summary.TotalDiscount += UnitDiscount(item.Product) * qty
		if item.IsGift {
			summary.GiftCharges += rates.GiftCharge * qty
		}
		summary.TotalItems += item.Quantity
	}

	// Discount is already embedded in price
	summary.Total = summary.Subtotal + summary.GiftCharges + summary.PlatformFee
	return summary
}

// LineTotal is unit price times quantity
func LineTotal(price float64, quantity int) float64 {
	return price * float64(quantity)
}

// UnitDiscount is the difference between original and current price
func UnitDiscount(p domain.Product) float64 {
	if p.OriginalPrice <= p.Price {
		return 0
	}
	return p.OriginalPrice - p.Price
}

// PercentOff is the rounded discount percentage shown on product views
func PercentOff(p domain.Product) int {
	if p.OriginalPrice <= 0 || p.OriginalPrice <= p.Price {
		return 0
	}
	return int(math.Round(UnitDiscount(p) / p.OriginalPrice * 100))
}
