package service

import (
	"time"

	"github.com/candlecraft/storefront/internal/domain"
)

// UpdateStatusRequest represents an admin order status change
type UpdateStatusRequest struct {
	Status                domain.OrderStatus `json:"status" binding:"required"`
	EstimatedDeliveryDate *time.Time         `json:"estimatedDeliveryDate,omitempty"`
}

// ProductInput carries the editable fields of a product. On update, nil
// fields keep their current value.
type ProductInput struct {
	ID             domain.ProductID  `json:"id,omitempty"`
	Name           *string           `json:"name"`
	Price          *float64          `json:"price"`
	OriginalPrice  *float64          `json:"originalPrice"`
	Description    *string           `json:"description"`
	Images         []string          `json:"images"`
	Features       []string          `json:"features"`
	Specifications map[string]string `json:"specifications"`
	Category       *string           `json:"category"`
	InStock        *bool             `json:"inStock"`
}

// apply copies the set fields of in onto p
func (in ProductInput) apply(p *domain.Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.Features != nil {
		p.Features = in.Features
	}
	if in.Specifications != nil {
		p.Specifications = in.Specifications
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
}
