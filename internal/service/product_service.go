package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/realtime"
	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/pkg/errors"
)

type productService struct {
	repos     *repository.Repositories
	publisher Publisher
	logger    *zap.Logger
}

// NewProductService creates a new product service. publisher may be nil.
func NewProductService(repos *repository.Repositories, publisher Publisher, logger *zap.Logger) *productService {
	return &productService{
		repos:     repos,
		publisher: publisher,
		logger:    logger,
	}
}

// Get returns one product
func (s *productService) Get(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	return s.repos.Product.GetByID(ctx, id)
}

// List returns the catalog, newest first
func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	return s.repos.Product.List(ctx)
}

// Create adds a product to the catalog
func (s *productService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if in.Name == nil || in.Price == nil {
		return nil, &errors.ErrValidation{Message: "name and price are required"}
	}

	product := &domain.Product{
		ID:             in.ID,
		Images:         []string{},
		Features:       []string{},
		Specifications: map[string]string{},
		InStock:        true,
	}
	in.apply(product)
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.repos.Product.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	s.publishProducts(ctx)
	return product, nil
}

// Update changes the set fields of a product
func (s *productService) Update(ctx context.Context, id domain.ProductID, in ProductInput) (*domain.Product, error) {
	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in.apply(product)
	if err := product.Validate(); err != nil {
		return nil, err
	}
	if err := s.repos.Product.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", zap.String("product_id", id.String()))
	s.publishProducts(ctx)
	return product, nil
}

// Delete removes a product. Carts and orders keep their snapshots.
func (s *productService) Delete(ctx context.Context, id domain.ProductID) error {
	if err := s.repos.Product.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	s.publishProducts(ctx)
	return nil
}

// Import upserts a catalog by product id
func (s *productService) Import(ctx context.Context, products []*domain.Product) (created, updated int, err error) {
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return created, updated, err
		}

		if p.ID != "" {
			existing, err := s.repos.Product.GetByID(ctx, p.ID)
			if err == nil {
				p.CreatedAt = existing.CreatedAt
				if err := s.repos.Product.Update(ctx, p); err != nil {
					return created, updated, err
				}
				updated++
				continue
			}
			if !errors.IsNotFound(err) {
				return created, updated, err
			}
		}

		if err := s.repos.Product.Create(ctx, p); err != nil {
			return created, updated, err
		}
		created++
	}

	s.logger.Info("Catalog imported", zap.Int("created", created), zap.Int("updated", updated))
	s.publishProducts(ctx)
	return created, updated, nil
}

func (s *productService) publishProducts(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	products, err := s.repos.Product.List(ctx)
	if err != nil {
		s.logger.Warn("Failed to load products for broadcast", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(realtime.TopicProducts, products); err != nil {
		s.logger.Warn("Failed to broadcast products", zap.Error(err))
	}
}
