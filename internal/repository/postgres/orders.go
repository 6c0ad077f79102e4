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
	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/pkg/errors"
)

const orderColumns = `id, user_id, delivery_address, order_total, status, payment_status,
	estimated_delivery_date, created_at, updated_at`

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt

	address, err := json.Marshal(order.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("failed to encode address: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		order.ID,
		order.UserID,
		address,
		order.OrderTotal,
		order.Status,
		order.PaymentStatus,
		order.EstimatedDeliveryDate,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", zap.Error(err))
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items (id, order_id, position, product_id, product_name, product_image,
			quantity, price, total, is_gift)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, item := range order.Items {
		_, err := stmt.ExecContext(ctx,
			uuid.New(),
			order.ID,
			i,
			item.ProductID.String(),
			item.ProductName,
			item.ProductImage,
			item.Quantity,
			item.Price,
			item.Total,
			item.IsGift,
		)
		if err != nil {
			r.logger.Error("Failed to create order item", zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var address []byte
	var eta sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&address,
		&order.OrderTotal,
		&order.Status,
		&order.PaymentStatus,
		&eta,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(address, &order.DeliveryAddress); err != nil {
		return nil, fmt.Errorf("failed to decode address: %w", err)
	}
	if eta.Valid {
		order.EstimatedDeliveryDate = &eta.Time
	}
	order.Items = []domain.OrderItem{}

	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
		ids = append(ids, order.ID.String())
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, product_name, product_image, quantity, price, total, is_gift
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, pq.Array(ids))
	if err != nil {
		r.logger.Error("Failed to get order items", zap.Error(err))
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var productID string
		var item domain.OrderItem
		if err := rows.Scan(
			&orderID,
			&productID,
			&item.ProductName,
			&item.ProductImage,
			&item.Quantity,
			&item.Price,
			&item.Total,
			&item.IsGift,
		); err != nil {
			return err
		}
		item.ProductID = domain.ProductID(productID)
		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	return rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, update repository.OrderStatusUpdate) error {
	query := `
		UPDATE orders
		SET status = $2,
			payment_status = COALESCE($3, payment_status),
			estimated_delivery_date = COALESCE($4, estimated_delivery_date),
			updated_at = $5
		WHERE id = $1
	`

	var payment sql.NullString
	if update.PaymentStatus != nil {
		payment = sql.NullString{String: string(*update.PaymentStatus), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, id, update.Status, payment, update.EstimatedDeliveryDate, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err))
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return nil
}
