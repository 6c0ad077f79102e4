// Package memory implements the repositories in process memory. It backs the
// service and handler tests and the server's -memory development mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/pkg/errors"
)

// NewRepositories returns a fresh, empty set of in-memory repositories
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		User:              &Users{byID: map[uuid.UUID]*domain.UserProfile{}},
		Product:           &Products{byID: map[domain.ProductID]*domain.Product{}},
		Order:             &Orders{byID: map[uuid.UUID]*domain.Order{}},
		OrderEvent:        &OrderEvents{},
		IdempotencyKey:    &IdempotencyKeys{byKey: map[string]*domain.IdempotencyKey{}},
		PhoneVerification: &PhoneVerifications{byID: map[uuid.UUID]*domain.PhoneVerification{}},
	}
}

type Users struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*domain.UserProfile
}

func copyUser(u *domain.UserProfile) *domain.UserProfile {
	out := *u
	out.Addresses = append([]domain.Address{}, u.Addresses...)
	return &out
}

func (r *Users) Create(_ context.Context, user *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(user); err != nil {
		return err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Addresses == nil {
		user.Addresses = []domain.Address{}
	}
	r.byID[user.ID] = copyUser(user)
	return nil
}

func (r *Users) checkUnique(user *domain.UserProfile) error {
	for id, existing := range r.byID {
		if id == user.ID {
			continue
		}
		switch {
		case user.Email != "" && strings.EqualFold(existing.Email, user.Email):
			return &errors.ErrConflict{Resource: "user", Field: "email"}
		case existing.Username == user.Username:
			return &errors.ErrConflict{Resource: "user", Field: "username"}
		case existing.PhoneNumber == user.PhoneNumber:
			return &errors.ErrConflict{Resource: "user", Field: "phone_number"}
		}
	}
	return nil
}

func (r *Users) find(match func(*domain.UserProfile) bool, key string) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "user", ID: key}
}

func (r *Users) GetByID(_ context.Context, id uuid.UUID) (*domain.UserProfile, error) {
	return r.find(func(u *domain.UserProfile) bool { return u.ID == id }, id.String())
}

func (r *Users) GetByEmail(_ context.Context, email string) (*domain.UserProfile, error) {
	return r.find(func(u *domain.UserProfile) bool { return u.Email != "" && u.Email == email }, email)
}

func (r *Users) GetByPhone(_ context.Context, phone string) (*domain.UserProfile, error) {
	return r.find(func(u *domain.UserProfile) bool { return u.PhoneNumber == phone }, phone)
}

func (r *Users) GetByUsername(_ context.Context, username string) (*domain.UserProfile, error) {
	return r.find(func(u *domain.UserProfile) bool { return u.Username == username }, username)
}

func (r *Users) Update(_ context.Context, user *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[user.ID]; !ok {
		return &errors.ErrNotFound{Resource: "user", ID: user.ID.String()}
	}
	if err := r.checkUnique(user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now()
	r.byID[user.ID] = copyUser(user)
	return nil
}

type Products struct {
	mu   sync.RWMutex
	byID map[domain.ProductID]*domain.Product
	seq  int
}

func (r *Products) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = domain.ProductID(uuid.New().String())
	}
	if _, ok := r.byID[product.ID]; ok {
		return &errors.ErrConflict{Resource: "product", Field: "id"}
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		// keep insertion order stable when the clock does not advance
		r.seq++
		product.CreatedAt = now.Add(time.Duration(r.seq))
	}
	product.UpdatedAt = now
	p := *product
	r.byID[product.ID] = &p
	return nil
}

func (r *Products) GetByID(_ context.Context, id domain.ProductID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	out := *p
	return &out, nil
}

func (r *Products) List(_ context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Product, 0, len(r.byID))
	for _, p := range r.byID {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Products) Update(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[product.ID]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: product.ID.String()}
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	p := *product
	r.byID[product.ID] = &p
	return nil
}

func (r *Products) Delete(_ context.Context, id domain.ProductID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	delete(r.byID, id)
	return nil
}

type Orders struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*domain.Order
	seq  int
}

func copyOrder(o *domain.Order) *domain.Order {
	out := *o
	out.Items = append([]domain.OrderItem{}, o.Items...)
	return &out
}

func (r *Orders) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		r.seq++
		order.CreatedAt = time.Now().Add(time.Duration(r.seq))
	}
	order.UpdatedAt = order.CreatedAt
	r.byID[order.ID] = copyOrder(order)
	return nil
}

func (r *Orders) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return copyOrder(o), nil
}

func (r *Orders) ListByUserID(_ context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return r.list(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (r *Orders) List(_ context.Context) ([]*domain.Order, error) {
	return r.list(func(*domain.Order) bool { return true }), nil
}

func (r *Orders) list(match func(*domain.Order) bool) []*domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Order{}
	for _, o := range r.byID {
		if match(o) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *Orders) UpdateStatus(_ context.Context, id uuid.UUID, update repository.OrderStatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	o.Status = update.Status
	if update.PaymentStatus != nil {
		o.PaymentStatus = *update.PaymentStatus
	}
	if update.EstimatedDeliveryDate != nil {
		eta := *update.EstimatedDeliveryDate
		o.EstimatedDeliveryDate = &eta
	}
	o.UpdatedAt = time.Now()
	return nil
}

type OrderEvents struct {
	mu     sync.RWMutex
	events []*domain.OrderEvent
}

func (r *OrderEvents) Create(_ context.Context, event *domain.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	e := *event
	r.events = append(r.events, &e)
	return nil
}

func (r *OrderEvents) ListByOrderID(_ context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.OrderEvent{}
	for _, e := range r.events {
		if e.OrderID == orderID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type IdempotencyKeys struct {
	mu    sync.RWMutex
	byKey map[string]*domain.IdempotencyKey
}

func idempotencyKey(key string, userID uuid.UUID) string {
	return userID.String() + "/" + key
}

func (r *IdempotencyKeys) Get(_ context.Context, key string, userID uuid.UUID) (*domain.IdempotencyKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.byKey[idempotencyKey(key, userID)]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "idempotency_key", ID: key}
	}
	cp := *k
	return &cp, nil
}

func (r *IdempotencyKeys) Create(_ context.Context, k *domain.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := idempotencyKey(k.Key, k.UserID)
	if _, ok := r.byKey[id]; ok {
		return nil
	}
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now()
	}
	cp := *k
	r.byKey[id] = &cp
	return nil
}

type PhoneVerifications struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*domain.PhoneVerification
}

func (r *PhoneVerifications) Create(_ context.Context, v *domain.PhoneVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	cp := *v
	r.byID[v.ID] = &cp
	return nil
}

func (r *PhoneVerifications) GetByID(_ context.Context, id uuid.UUID) (*domain.PhoneVerification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.byID[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "phone_verification", ID: id.String()}
	}
	cp := *v
	return &cp, nil
}

func (r *PhoneVerifications) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.byID[id]; ok {
		v.Attempts++
	}
	return nil
}

func (r *PhoneVerifications) DeleteByPhone(_ context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.byID {
		if v.PhoneNumber == phone {
			delete(r.byID, id)
		}
	}
	return nil
}
