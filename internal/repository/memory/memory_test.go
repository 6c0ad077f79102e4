package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/pkg/errors"
)

func TestUsers_Uniqueness(t *testing.T) {
	ctx := context.Background()
	users := NewRepositories().User

	first := &domain.UserProfile{Email: "a@example.com", Username: "asha", PhoneNumber: "+919876543210"}
	require.NoError(t, users.Create(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)

	// phone-only accounts do not collide on the empty email
	require.NoError(t, users.Create(ctx, &domain.UserProfile{Username: "ravi", PhoneNumber: "+919123456780"}))
	require.NoError(t, users.Create(ctx, &domain.UserProfile{Username: "kiran", PhoneNumber: "+919000000001"}))

	tests := []struct {
		name  string
		user  domain.UserProfile
		field string
	}{
		{"email ignores case", domain.UserProfile{Email: "A@Example.com", Username: "x", PhoneNumber: "+911"}, "email"},
		{"username", domain.UserProfile{Username: "asha", PhoneNumber: "+912"}, "username"},
		{"phone", domain.UserProfile{Username: "y", PhoneNumber: "+919876543210"}, "phone_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			conflict, ok := errors.AsConflict(users.Create(ctx, &u))
			require.True(t, ok)
			assert.Equal(t, tt.field, conflict.Field)
		})
	}

	// updating a user never conflicts with itself
	first.FullName = "Asha Rao"
	require.NoError(t, users.Update(ctx, first))

	got, err := users.GetByUsername(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.FullName)

	_, err = users.GetByEmail(ctx, "")
	assert.True(t, errors.IsNotFound(err))
}

func TestUsers_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	users := NewRepositories().User

	u := &domain.UserProfile{Username: "asha", PhoneNumber: "+919876543210"}
	require.NoError(t, users.Create(ctx, u))

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.Addresses = append(got.Addresses, domain.Address{ID: "home"})

	again, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Addresses)
}

func TestOrders_NewestFirst(t *testing.T) {
	ctx := context.Background()
	orders := NewRepositories().Order
	userID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		o := &domain.Order{UserID: userID, Status: domain.OrderStatusPendingPayment}
		require.NoError(t, orders.Create(ctx, o))
		ids = append(ids, o.ID)
	}
	require.NoError(t, orders.Create(ctx, &domain.Order{UserID: uuid.New()}))

	mine, err := orders.ListByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{mine[0].ID, mine[1].ID, mine[2].ID})

	all, err := orders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	completed := domain.PaymentStatusCompleted
	require.NoError(t, orders.UpdateStatus(ctx, ids[0], repository.OrderStatusUpdate{
		Status:        domain.OrderStatusDelivered,
		PaymentStatus: &completed,
	}))
	got, err := orders.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, got.Status)
	assert.Equal(t, domain.PaymentStatusCompleted, got.PaymentStatus)

	err = orders.UpdateStatus(ctx, uuid.New(), repository.OrderStatusUpdate{Status: domain.OrderStatusShipped})
	assert.True(t, errors.IsNotFound(err))
}
