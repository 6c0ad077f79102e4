package domain

import (
	"strings"

	"github.com/candlecraft/storefront/pkg/errors"
)

// Validate checks the catalog invariants of a product
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &errors.ErrValidation{Field: "name", Message: "product name is required"}
	}
	if p.Price < 0 {
		return &errors.ErrValidation{Field: "price", Message: "price must not be negative"}
	}
	if p.OriginalPrice == 0 {
		p.OriginalPrice = p.Price
	}
	if p.Price > p.OriginalPrice {
		return &errors.ErrValidation{Field: "price", Message: "price must not exceed original price"}
	}
	return nil
}

// PrimaryImage returns the first image reference or an empty string
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
