package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/otp"
	"github.com/candlecraft/storefront/pkg/errors"
)

// ProfileUpdate holds the profile fields a user may change. Nil fields are kept.
type ProfileUpdate struct {
	FullName    *string `json:"fullName"`
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
}

// UpdateProfile applies update to the profile of userID
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*domain.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return nil, &errors.ErrValidation{Field: "fullName", Message: "Full name cannot be empty"}
		}
		user.FullName = name
	}
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username == "" {
			return nil, &errors.ErrValidation{Field: "username", Message: "Username cannot be empty"}
		}
		user.Username = username
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email != "" && !isValidEmail(email) {
			return nil, &errors.ErrValidation{Field: "email", Message: SignupMessage(CodeInvalidEmail)}
		}
		if email != user.Email {
			user.EmailVerified = false
		}
		user.Email = email
	}
	if update.PhoneNumber != nil {
		if !otp.IsValidPhoneNumber(*update.PhoneNumber) {
			return nil, &errors.ErrValidation{Field: "phoneNumber", Message: "Please enter a valid 10-digit mobile number"}
		}
		phone := otp.FormatPhoneNumber(*update.PhoneNumber)
		if phone != user.PhoneNumber {
			user.PhoneVerified = false
		}
		user.PhoneNumber = phone
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddAddress saves a delivery address. The first address becomes the default.
func (s *Service) AddAddress(ctx context.Context, userID uuid.UUID, addr domain.Address) (*domain.Address, error) {
	if addr.FullName == "" || addr.PhoneNumber == "" || addr.AddressLine1 == "" ||
		addr.City == "" || addr.State == "" || addr.Pincode == "" {
		return nil, &errors.ErrValidation{Message: "Please fill in all required address fields"}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	addr.ID = uuid.NewString()
	addr.IsDefault = addr.IsDefault || len(user.Addresses) == 0
	if addr.IsDefault {
		for i := range user.Addresses {
			user.Addresses[i].IsDefault = false
		}
	}
	user.Addresses = append(user.Addresses, addr)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return &addr, nil
}

// RemoveAddress deletes a saved address. Removing the default promotes the
// first remaining address.
func (s *Service) RemoveAddress(ctx context.Context, userID uuid.UUID, addressID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	idx := -1
	for i, addr := range user.Addresses {
		if addr.ID == addressID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &errors.ErrNotFound{Resource: "address", ID: addressID}
	}

	wasDefault := user.Addresses[idx].IsDefault
	user.Addresses = append(user.Addresses[:idx], user.Addresses[idx+1:]...)
	if wasDefault && len(user.Addresses) > 0 {
		user.Addresses[0].IsDefault = true
	}

	return s.users.Update(ctx, user)
}
