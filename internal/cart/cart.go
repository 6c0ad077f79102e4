// Package cart is the in-session shopping cart: an ordered list of line items,
// its price summary and checkout into an order. Every mutation rewrites the
// whole cart to the local blob store.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/pricing"
	"github.com/candlecraft/storefront/internal/storage"
	"github.com/candlecraft/storefront/pkg/errors"
)

// StorageKey prefixes every persisted cart
const StorageKey = "candle-craft-cart"

// Session resolves the signed-in user. It returns nil, nil when nobody is signed in.
type Session interface {
	CurrentUser(ctx context.Context) (*domain.UserProfile, error)
}

// OrderPlacer persists a new order and fills in its ID
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order *domain.Order) error
}

// Cart holds the line items of one session
type Cart struct {
	mu      sync.Mutex
	items   []domain.CartItem
	key     string
	store   storage.Store
	rates   pricing.Rates
	session Session
	orders  OrderPlacer
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Cart
type Option func(*Cart)

// WithSession makes AddToCart and Checkout require a signed-in user
func WithSession(s Session) Option {
	return func(c *Cart) { c.session = s }
}

// WithOrders enables Checkout
func WithOrders(o OrderPlacer) Option {
	return func(c *Cart) { c.orders = o }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cart) { c.now = now }
}

// Open rehydrates the cart stored under key. Unreadable or corrupt data is
// logged and yields an empty cart.
func Open(store storage.Store, key string, rates pricing.Rates, logger *zap.Logger, opts ...Option) *Cart {
	c := &Cart{
		key:    key,
		store:  store,
		rates:  rates,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.load()
	return c
}

// KeyFor returns the storage key of a user's cart
func KeyFor(userID string) string {
	return StorageKey + ":" + userID
}

func (c *Cart) load() {
	raw, ok, err := c.store.Get(c.key)
	if err != nil {
		c.logger.Error("Error loading cart from storage", zap.String("key", c.key), zap.Error(err))
		return
	}
	if !ok || raw == "" {
		return
	}

	items, err := Decode(raw)
	if err != nil {
		c.logger.Error("Error parsing stored cart", zap.String("key", c.key), zap.Error(err))
		return
	}
	c.items = items
}

// save must be called with c.mu held
func (c *Cart) save() {
	raw, err := Encode(c.items)
	if err != nil {
		c.logger.Error("Error encoding cart", zap.String("key", c.key), zap.Error(err))
		return
	}
	if err := c.store.Set(c.key, raw); err != nil {
		c.logger.Error("Error saving cart to storage", zap.String("key", c.key), zap.Error(err))
	}
}

func (c *Cart) requireUser(ctx context.Context, operation string) (*domain.UserProfile, error) {
	if c.session == nil {
		return nil, nil
	}
	user, err := c.session.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &errors.ErrAuthenticationRequired{Operation: operation}
	}
	return user, nil
}

// AddToCart appends a new line. Identical products are never merged.
func (c *Cart) AddToCart(ctx context.Context, product domain.Product, isGift bool, quantity int) (domain.CartItem, error) {
	if _, err := c.requireUser(ctx, "add-to-cart"); err != nil {
		return domain.CartItem{}, err
	}
	if quantity < 1 {
		return domain.CartItem{}, &errors.ErrValidation{Field: "quantity", Message: "quantity must be at least 1"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	addedAt := c.now()
	item := domain.CartItem{
		ID:       c.newItemID(product.ID, addedAt),
		Product:  cloneProduct(product),
		Quantity: quantity,
		IsGift:   isGift,
		AddedAt:  addedAt,
	}
	c.items = append(c.items, item)
	c.save()

	return item, nil
}

// newItemID derives an id from product id and timestamp, stepping the
// timestamp forward until it is unused in this cart
func (c *Cart) newItemID(productID domain.ProductID, at time.Time) string {
	ts := at.UnixMilli()
	for {
		id := fmt.Sprintf("%s-%d", productID, ts)
		if c.indexOf(id) < 0 {
			return id
		}
		ts++
	}
}

func (c *Cart) indexOf(itemID string) int {
	for i := range c.items {
		if c.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// RemoveFromCart deletes the line with itemID. Unknown ids are ignored.
func (c *Cart) RemoveFromCart(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(itemID)
}

func (c *Cart) remove(itemID string) {
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	c.items = kept
	c.save()
}

// UpdateQuantity sets a line's quantity in place; quantity <= 0 removes the line
func (c *Cart) UpdateQuantity(itemID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		c.remove(itemID)
		return
	}
	if i := c.indexOf(itemID); i >= 0 {
		c.items[i].Quantity = quantity
	}
	c.save()
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.save()
}

// Items returns a copy of the lines in insertion order
func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Summary prices the current lines
func (c *Cart) Summary() domain.CartSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.Summarize(c.items, c.rates)
}

// IsInCart reports whether any line wraps the product
func (c *Cart) IsInCart(productID domain.ProductID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.Product.ID == productID {
			return true
		}
	}
	return false
}

// Checkout turns the cart into a pending order delivered to one of the user's
// saved addresses, then clears the cart. It returns the new order's id.
func (c *Cart) Checkout(ctx context.Context, addressID string) (string, error) {
	if c.session == nil || c.orders == nil {
		return "", fmt.Errorf("checkout is not available for this cart")
	}
	user, err := c.requireUser(ctx, "checkout")
	if err != nil {
		return "", err
	}

	address, ok := user.FindAddress(addressID)
	if !ok {
		return "", &errors.ErrNotFound{Resource: "address", ID: addressID}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 {
		return "", &errors.ErrValidation{Field: "items", Message: "cart is empty"}
	}

	items := make([]domain.OrderItem, 0, len(c.items))
	for _, line := range c.items {
		items = append(items, domain.OrderItem{
			ProductID:    line.Product.ID,
			ProductName:  line.Product.Name,
			ProductImage: line.Product.PrimaryImage(),
			Quantity:     line.Quantity,
			Price:        line.Product.Price,
			Total:        pricing.LineTotal(line.Product.Price, line.Quantity),
			IsGift:       line.IsGift,
		})
	}

	summary := pricing.Summarize(c.items, c.rates)
	order := &domain.Order{
		UserID:          user.ID,
		Items:           items,
		DeliveryAddress: address,
		OrderTotal:      summary.Total,
		Status:          domain.OrderStatusPendingPayment,
		PaymentStatus:   domain.PaymentStatusPending,
	}

	if err := c.orders.PlaceOrder(ctx, order); err != nil {
		return "", fmt.Errorf("failed to place order: %w", err)
	}

	c.items = nil
	c.save()

	return order.ID.String(), nil
}

// Encode serializes cart lines for the blob store
func Encode(items []domain.CartItem) (string, error) {
	if items == nil {
		items = []domain.CartItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode parses a stored cart, reviving timestamps
func Decode(raw string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func cloneProduct(p domain.Product) domain.Product {
	out := p
	out.Images = append([]string(nil), p.Images...)
	out.Features = append([]string(nil), p.Features...)
	if p.Specifications != nil {
		out.Specifications = make(map[string]string, len(p.Specifications))
		for k, v := range p.Specifications {
			out.Specifications[k] = v
		}
	}
	return out
}
