package auth

import (
	"fmt"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/pkg/errors"
)

// Account error codes
const (
	CodeEmailInUse       = "auth/email-already-in-use"
	CodeUsernameInUse    = "auth/username-already-in-use"
	CodePhoneInUse       = "auth/phone-number-already-in-use"
	CodeWeakPassword     = "auth/weak-password"
	CodeInvalidEmail     = "auth/invalid-email"
	CodeUserNotFound     = "auth/user-not-found"
	CodeWrongPassword    = "auth/wrong-password"
	CodeUserDisabled     = "auth/user-disabled"
	CodeTooManyRequests  = "auth/too-many-requests"
	CodeSignupFailed     = "auth/signup-failed"
	CodeInvalidLoginType = "auth/invalid-login-type"
)

var signupMessages = map[string]string{
	CodeEmailInUse:    "An account with this email already exists.",
	CodeUsernameInUse: "This username is already taken.",
	CodePhoneInUse:    "An account with this mobile number already exists.",
	CodeWeakPassword:  "Password is too weak. Please choose a stronger password.",
	CodeInvalidEmail:  "Invalid email address.",
}

var loginMessages = map[string]string{
	CodeUserNotFound:    "No account found with these credentials.",
	CodeWrongPassword:   "Incorrect password.",
	CodeInvalidEmail:    "Invalid email address.",
	CodeUserDisabled:    "This account has been disabled.",
	CodeTooManyRequests: "Too many failed attempts. Please try again later.",
}

// SignupMessage maps a signup error code to user-facing text
func SignupMessage(code string) string {
	if msg, ok := signupMessages[code]; ok {
		return msg
	}
	return "Failed to create account. Please try again."
}

// LoginMessage maps a login error code to user-facing text
func LoginMessage(code string) string {
	if msg, ok := loginMessages[code]; ok {
		return msg
	}
	return "Login failed. Please check your credentials."
}

func signupError(code string) *errors.ErrCapability {
	return &errors.ErrCapability{Code: code, Message: SignupMessage(code)}
}

func loginError(code string) *errors.ErrCapability {
	return &errors.ErrCapability{Code: code, Message: LoginMessage(code)}
}

// notFoundFor names the identifier kind for phone and username logins
func notFoundFor(loginType domain.LoginType) *errors.ErrCapability {
	if loginType == domain.LoginTypeEmail {
		return loginError(CodeUserNotFound)
	}
	return &errors.ErrCapability{
		Code:    CodeUserNotFound,
		Message: fmt.Sprintf("No account found with this %s", loginType),
	}
}
