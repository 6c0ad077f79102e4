package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/pricing"
	"github.com/candlecraft/storefront/internal/realtime"
)

// ProductView is a product with its derived discount figures
type ProductView struct {
	*domain.Product
	Discount   float64 `json:"discount"`
	PercentOff int     `json:"percentOff"`
}

func newProductView(p *domain.Product) ProductView {
	return ProductView{
		Product:    p,
		Discount:   pricing.UnitDiscount(*p),
		PercentOff: pricing.PercentOff(*p),
	}
}

func productViews(products []*domain.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	return views
}

// HandleListProducts handles GET /v1/products
func HandleListProducts(products ProductService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := products.List(c.Request.Context())
		if err != nil {
			respondError(c, logger, err, "list products")
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": productViews(list)})
	}
}

// HandleGetProduct handles GET /v1/products/:id
func HandleGetProduct(products ProductService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := products.Get(c.Request.Context(), domain.ProductID(c.Param("id")))
		if err != nil {
			respondError(c, logger, err, "get product")
			return
		}
		c.JSON(http.StatusOK, newProductView(p))
	}
}

// HandleProductStream handles GET /v1/products/stream
func HandleProductStream(products ProductService, streams Streamer) gin.HandlerFunc {
	return func(c *gin.Context) {
		streams.Serve(c.Writer, c.Request, realtime.TopicProducts, func(ctx context.Context) (any, error) {
			return products.List(ctx)
		})
	}
}
