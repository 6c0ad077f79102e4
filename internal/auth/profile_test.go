package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/pkg/errors"
)

func address(label string) domain.Address {
	return domain.Address{
		Label:        label,
		FullName:     "Asha Rao",
		PhoneNumber:  "9876543210",
		AddressLine1: "12 Wax Lane",
		City:         "Pune",
		State:        "MH",
		Pincode:      "411001",
	}
}

func TestAddresses(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user, err := svc.Signup(ctx, signupData())
	require.NoError(t, err)

	home, err := svc.AddAddress(ctx, user.ID, address("Home"))
	require.NoError(t, err)
	assert.True(t, home.IsDefault)
	assert.NotEmpty(t, home.ID)

	work, err := svc.AddAddress(ctx, user.ID, address("Work"))
	require.NoError(t, err)
	assert.False(t, work.IsDefault)

	_, err = svc.AddAddress(ctx, user.ID, domain.Address{Label: "Empty"})
	assert.True(t, errors.IsValidation(err))

	require.NoError(t, svc.RemoveAddress(ctx, user.ID, home.ID))
	stored, err := svc.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored.Addresses, 1)
	assert.Equal(t, work.ID, stored.Addresses[0].ID)
	assert.True(t, stored.Addresses[0].IsDefault)

	err = svc.RemoveAddress(ctx, user.ID, home.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestAddAddress_ExplicitDefault(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user, err := svc.Signup(ctx, signupData())
	require.NoError(t, err)

	_, err = svc.AddAddress(ctx, user.ID, address("Home"))
	require.NoError(t, err)
	second := address("Studio")
	second.IsDefault = true
	_, err = svc.AddAddress(ctx, user.ID, second)
	require.NoError(t, err)

	stored, err := svc.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	defaults := 0
	for _, a := range stored.Addresses {
		if a.IsDefault {
			defaults++
			assert.Equal(t, "Studio", a.Label)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user, err := svc.Signup(ctx, signupData())
	require.NoError(t, err)

	name := "Asha R."
	phone := "8123456789"
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{FullName: &name, PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Asha R.", updated.FullName)
	assert.Equal(t, "+918123456789", updated.PhoneNumber)
	assert.False(t, updated.PhoneVerified)
	assert.Equal(t, "asha", updated.Username)

	bad := "123"
	_, err = svc.UpdateProfile(ctx, user.ID, ProfileUpdate{PhoneNumber: &bad})
	assert.True(t, errors.IsValidation(err))

	other := signupData()
	other.Email = "b@example.com"
	other.Username = "bee"
	other.PhoneNumber = "+917000000000"
	_, err = svc.Signup(ctx, other)
	require.NoError(t, err)

	taken := "bee"
	_, err = svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Username: &taken})
	conflict, ok := errors.AsConflict(err)
	require.True(t, ok)
	assert.Equal(t, "username", conflict.Field)
}
