package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/pricing"
	"github.com/candlecraft/storefront/internal/storage"
)

// Manager opens per-user carts over a shared blob store. Work on the same
// user's cart is serialized so that load/mutate/save cycles never interleave.
type Manager struct {
	store  storage.Store
	rates  pricing.Rates
	orders OrderPlacer
	logger *zap.Logger

	locks sync.Map // key -> *sync.Mutex
}

// NewManager creates a cart manager
func NewManager(store storage.Store, rates pricing.Rates, orders OrderPlacer, logger *zap.Logger) *Manager {
	return &Manager{
		store:  store,
		rates:  rates,
		orders: orders,
		logger: logger,
	}
}

// Rates returns the charges applied to every cart
func (m *Manager) Rates() pricing.Rates {
	return m.rates
}

// With opens the cart of user and runs fn against it. A nil user gets an
// unsaved empty cart whose mutations fail with AUTHENTICATION_REQUIRED.
func (m *Manager) With(ctx context.Context, user *domain.UserProfile, fn func(*Cart) error) error {
	session := fixedSession{user: user}
	if user == nil {
		return fn(Open(storage.NewMemory(), StorageKey, m.rates, m.logger,
			WithSession(session),
			WithOrders(m.orders),
		))
	}

	key := KeyFor(user.ID.String())
	lock := m.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	c := Open(m.store, key, m.rates, m.logger,
		WithSession(session),
		WithOrders(m.orders),
	)
	return fn(c)
}

func (m *Manager) lockFor(key string) *sync.Mutex {
	lock, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

type fixedSession struct {
	user *domain.UserProfile
}

func (s fixedSession) CurrentUser(context.Context) (*domain.UserProfile, error) {
	return s.user, nil
}
