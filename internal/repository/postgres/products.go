package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/pkg/errors"
)

const productColumns = `id, name, price, original_price, description, images, features,
	specifications, category, in_stock, created_at, updated_at`

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var id string
	var specs []byte

	err := row.Scan(
		&id,
		&p.Name,
		&p.Price,
		&p.OriginalPrice,
		&p.Description,
		pq.Array(&p.Images),
		pq.Array(&p.Features),
		&specs,
		&p.Category,
		&p.InStock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ID = domain.ProductID(id)
	if err := json.Unmarshal(specs, &p.Specifications); err != nil {
		return nil, fmt.Errorf("failed to decode specifications: %w", err)
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	now := time.Now()
	if product.ID == "" {
		product.ID = domain.ProductID(uuid.New().String())
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	specs, err := json.Marshal(specificationsOrEmpty(product.Specifications))
	if err != nil {
		return fmt.Errorf("failed to encode specifications: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		product.ID.String(),
		product.Name,
		product.Price,
		product.OriginalPrice,
		product.Description,
		pq.Array(stringsOrEmpty(product.Images)),
		pq.Array(stringsOrEmpty(product.Features)),
		specs,
		product.Category,
		product.InStock,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create product", zap.Error(err))
		return conflictFrom(err, "product")
	}

	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get product", zap.Error(err))
		return nil, err
	}
	return product, nil
}

func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, price = $3, original_price = $4, description = $5, images = $6, features = $7,
			specifications = $8, category = $9, in_stock = $10, updated_at = $11
		WHERE id = $1
	`

	product.UpdatedAt = time.Now()
	specs, err := json.Marshal(specificationsOrEmpty(product.Specifications))
	if err != nil {
		return fmt.Errorf("failed to encode specifications: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query,
		product.ID.String(),
		product.Name,
		product.Price,
		product.OriginalPrice,
		product.Description,
		pq.Array(stringsOrEmpty(product.Images)),
		pq.Array(stringsOrEmpty(product.Features)),
		specs,
		product.Category,
		product.InStock,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update product", zap.Error(err))
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: product.ID.String()}
	}

	return nil
}

func (r *productRepository) Delete(ctx context.Context, id domain.ProductID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id.String())
	if err != nil {
		r.logger.Error("Failed to delete product", zap.Error(err))
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	return nil
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func specificationsOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
