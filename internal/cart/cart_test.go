package cart

import (
	"context"
	stderrors "errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/pricing"
	"github.com/candlecraft/storefront/internal/storage"
	"github.com/candlecraft/storefront/pkg/errors"
)

var testTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func frozenClock() func() time.Time {
	return func() time.Time { return testTime }
}

func lavender() domain.Product {
	return domain.Product{
		ID:             "1",
		Name:           "Lavender Dream",
		Price:          790,
		OriginalPrice:  990,
		Description:    "Soy wax, 40h burn",
		Images:         []string{"lavender-1.jpg", "lavender-2.jpg"},
		Features:       []string{"Hand poured"},
		Specifications: map[string]string{"Weight": "200g"},
	}
}

func newCart(t *testing.T, store storage.Store, opts ...Option) *Cart {
	t.Helper()
	opts = append([]Option{WithClock(frozenClock())}, opts...)
	return Open(store, KeyFor("u1"), pricing.DefaultRates(), zap.NewNop(), opts...)
}

type stubSession struct {
	user *domain.UserProfile
	err  error
}

func (s *stubSession) CurrentUser(context.Context) (*domain.UserProfile, error) {
	return s.user, s.err
}

type stubOrders struct {
	placed []*domain.Order
	err    error
}

func (s *stubOrders) PlaceOrder(_ context.Context, order *domain.Order) error {
	if s.err != nil {
		return s.err
	}
	order.ID = uuid.New()
	s.placed = append(s.placed, order)
	return nil
}

func TestAddToCart_NeverMerges(t *testing.T) {
	c := newCart(t, storage.NewMemory())
	ctx := context.Background()

	first, err := c.AddToCart(ctx, lavender(), false, 1)
	require.NoError(t, err)
	second, err := c.AddToCart(ctx, lavender(), false, 1)
	require.NoError(t, err)

	items := c.Items()
	require.Len(t, items, 2)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "1-"+itoa(testTime.UnixMilli()), first.ID)
	assert.Equal(t, "1-"+itoa(testTime.UnixMilli()+1), second.ID)
}

func TestAddToCart_SnapshotsProduct(t *testing.T) {
	c := newCart(t, storage.NewMemory())
	p := lavender()

	_, err := c.AddToCart(context.Background(), p, true, 2)
	require.NoError(t, err)

	p.Images[0] = "changed.jpg"
	p.Specifications["Weight"] = "1kg"

	item := c.Items()[0]
	assert.Equal(t, "lavender-1.jpg", item.Product.Images[0])
	assert.Equal(t, "200g", item.Product.Specifications["Weight"])
	assert.True(t, item.IsGift)
	assert.Equal(t, 2, item.Quantity)
}

func TestAddToCart_RejectsZeroQuantity(t *testing.T) {
	c := newCart(t, storage.NewMemory())

	_, err := c.AddToCart(context.Background(), lavender(), false, 0)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, c.Items())
}

func TestAddToCart_RequiresSignIn(t *testing.T) {
	store := storage.NewMemory()
	c := newCart(t, store, WithSession(&stubSession{}))

	_, err := c.AddToCart(context.Background(), lavender(), false, 1)
	require.Error(t, err)
	assert.True(t, errors.IsAuthenticationRequired(err))
	assert.Equal(t, errors.AuthenticationRequired, err.Error())
	assert.Empty(t, c.Items())

	_, ok, _ := store.Get(KeyFor("u1"))
	assert.False(t, ok, "no mutation may be persisted")
}

func TestAddToCart_SessionError(t *testing.T) {
	boom := stderrors.New("token store down")
	c := newCart(t, storage.NewMemory(), WithSession(&stubSession{err: boom}))

	_, err := c.AddToCart(context.Background(), lavender(), false, 1)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.IsAuthenticationRequired(err))
}

func TestRemoveFromCart(t *testing.T) {
	c := newCart(t, storage.NewMemory())
	ctx := context.Background()
	a, _ := c.AddToCart(ctx, lavender(), false, 1)
	b, _ := c.AddToCart(ctx, domain.Product{ID: "2", Price: 10, OriginalPrice: 10}, false, 1)

	c.RemoveFromCart("does-not-exist")
	assert.Len(t, c.Items(), 2)

	c.RemoveFromCart(a.ID)
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, b.ID, items[0].ID)
}

func TestUpdateQuantity_NonPositiveRemoves(t *testing.T) {
	for _, qty := range []int{0, -5} {
		removed := newCart(t, storage.NewMemory())
		updated := newCart(t, storage.NewMemory())
		ctx := context.Background()

		for _, c := range []*Cart{removed, updated} {
			_, _ = c.AddToCart(ctx, lavender(), false, 1)
			_, _ = c.AddToCart(ctx, domain.Product{ID: "2", Price: 10, OriginalPrice: 10}, true, 3)
		}
		target := removed.Items()[0].ID

		removed.RemoveFromCart(target)
		updated.UpdateQuantity(target, qty)

		assert.Empty(t, cmp.Diff(removed.Items(), updated.Items()), "quantity %d", qty)
	}
}

func TestUpdateQuantity_KeepsPosition(t *testing.T) {
	c := newCart(t, storage.NewMemory())
	ctx := context.Background()
	a, _ := c.AddToCart(ctx, lavender(), false, 1)
	b, _ := c.AddToCart(ctx, lavender(), false, 1)

	c.UpdateQuantity(a.ID, 4)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, b.ID, items[1].ID)
}

func TestUniqueIDs_AcrossMutations(t *testing.T) {
	c := newCart(t, storage.NewMemory())
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		item, err := c.AddToCart(ctx, lavender(), i%2 == 0, 1)
		require.NoError(t, err)
		if i%3 == 0 {
			c.RemoveFromCart(item.ID)
		}
		if i%5 == 0 {
			c.UpdateQuantity(item.ID, i)
		}
	}

	seen := map[string]bool{}
	for _, item := range c.Items() {
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
}

func TestSummaryAndIsInCart(t *testing.T) {
	c := newCart(t, storage.NewMemory())

	assert.Equal(t, 7.0, c.Summary().Total)
	assert.False(t, c.IsInCart("1"))

	_, err := c.AddToCart(context.Background(), lavender(), true, 2)
	require.NoError(t, err)

	summary := c.Summary()
	assert.Equal(t, 1647.0, summary.Total)
	assert.Equal(t, summary, c.Summary())
	assert.True(t, c.IsInCart("1"))
	assert.False(t, c.IsInCart(domain.ProductID("1-"+itoa(testTime.UnixMilli()))))
}

func TestClear(t *testing.T) {
	store := storage.NewMemory()
	c := newCart(t, store)
	_, _ = c.AddToCart(context.Background(), lavender(), false, 1)

	c.Clear()

	assert.Empty(t, c.Items())
	raw, ok, _ := store.Get(KeyFor("u1"))
	assert.True(t, ok)
	assert.Equal(t, "[]", raw)
}

func TestPersistence_RoundTrip(t *testing.T) {
	store := storage.NewMemory()
	c := newCart(t, store)
	ctx := context.Background()
	_, _ = c.AddToCart(ctx, lavender(), true, 2)
	_, _ = c.AddToCart(ctx, domain.Product{ID: "gift-box", Name: "Gift Box", Price: 1500, OriginalPrice: 1800}, false, 1)

	reopened := newCart(t, store)

	assert.Empty(t, cmp.Diff(c.Items(), reopened.Items()))
}

type brokenStore struct{}

func (brokenStore) Get(string) (string, bool, error) { return "", false, stderrors.New("disk gone") }
func (brokenStore) Set(string, string) error         { return stderrors.New("disk gone") }

func TestPersistence_FailuresAreSwallowed(t *testing.T) {
	c := newCart(t, brokenStore{})

	_, err := c.AddToCart(context.Background(), lavender(), false, 1)
	require.NoError(t, err)
	assert.Len(t, c.Items(), 1)
}

func TestPersistence_CorruptDataIsEmptyCart(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(KeyFor("u1"), "{not json"))

	c := newCart(t, store)

	assert.Empty(t, c.Items())
}

func TestCheckout(t *testing.T) {
	user := &domain.UserProfile{
		ID:        uuid.New(),
		Addresses: []domain.Address{{ID: "home", City: "Pune", IsDefault: true}},
	}
	orders := &stubOrders{}
	store := storage.NewMemory()
	c := newCart(t, store, WithSession(&stubSession{user: user}), WithOrders(orders))
	ctx := context.Background()
	_, _ = c.AddToCart(ctx, lavender(), true, 2)

	orderID, err := c.Checkout(ctx, "home")
	require.NoError(t, err)

	require.Len(t, orders.placed, 1)
	order := orders.placed[0]
	assert.Equal(t, order.ID.String(), orderID)
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, "Pune", order.DeliveryAddress.City)
	assert.Equal(t, 1647.0, order.OrderTotal)
	assert.Equal(t, domain.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, []domain.OrderItem{{
		ProductID:    "1",
		ProductName:  "Lavender Dream",
		ProductImage: "lavender-1.jpg",
		Quantity:     2,
		Price:        790,
		Total:        1580,
		IsGift:       true,
	}}, order.Items)
	assert.Empty(t, c.Items())
}

func TestCheckout_Failures(t *testing.T) {
	ctx := context.Background()
	user := &domain.UserProfile{ID: uuid.New(), Addresses: []domain.Address{{ID: "home"}}}

	t.Run("signed out", func(t *testing.T) {
		c := newCart(t, storage.NewMemory(), WithSession(&stubSession{}), WithOrders(&stubOrders{}))
		_, err := c.Checkout(ctx, "home")
		assert.True(t, errors.IsAuthenticationRequired(err))
	})

	t.Run("unknown address", func(t *testing.T) {
		c := newCart(t, storage.NewMemory(), WithSession(&stubSession{user: user}), WithOrders(&stubOrders{}))
		_, _ = c.AddToCart(ctx, lavender(), false, 1)
		_, err := c.Checkout(ctx, "office")
		assert.True(t, errors.IsNotFound(err))
		assert.Len(t, c.Items(), 1)
	})

	t.Run("empty cart", func(t *testing.T) {
		c := newCart(t, storage.NewMemory(), WithSession(&stubSession{user: user}), WithOrders(&stubOrders{}))
		_, err := c.Checkout(ctx, "home")
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("store failure keeps cart", func(t *testing.T) {
		c := newCart(t, storage.NewMemory(), WithSession(&stubSession{user: user}), WithOrders(&stubOrders{err: stderrors.New("db down")}))
		_, _ = c.AddToCart(ctx, lavender(), false, 1)
		_, err := c.Checkout(ctx, "home")
		assert.Error(t, err)
		assert.Len(t, c.Items(), 1)
	})
}

func TestManager_AnonymousCannotMutate(t *testing.T) {
	m := NewManager(storage.NewMemory(), pricing.DefaultRates(), &stubOrders{}, zap.NewNop())

	err := m.With(context.Background(), nil, func(c *Cart) error {
		_, err := c.AddToCart(context.Background(), lavender(), false, 1)
		return err
	})
	assert.True(t, errors.IsAuthenticationRequired(err))
}

func TestManager_PersistsPerUser(t *testing.T) {
	store := storage.NewMemory()
	m := NewManager(store, pricing.DefaultRates(), &stubOrders{}, zap.NewNop())
	alice := &domain.UserProfile{ID: uuid.New()}
	bob := &domain.UserProfile{ID: uuid.New()}
	ctx := context.Background()

	require.NoError(t, m.With(ctx, alice, func(c *Cart) error {
		_, err := c.AddToCart(ctx, lavender(), false, 1)
		return err
	}))

	require.NoError(t, m.With(ctx, alice, func(c *Cart) error {
		assert.Len(t, c.Items(), 1)
		return nil
	}))
	require.NoError(t, m.With(ctx, bob, func(c *Cart) error {
		assert.Empty(t, c.Items())
		return nil
	}))
}
