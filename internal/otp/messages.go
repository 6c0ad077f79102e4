package otp

import (
	"fmt"

	"github.com/candlecraft/storefront/pkg/errors"
)

// Provider error codes
const (
	CodeInvalidPhoneNumber      = "auth/invalid-phone-number"
	CodeTooManyRequests         = "auth/too-many-requests"
	CodeInvalidVerificationCode = "auth/invalid-verification-code"
	CodeCodeExpired             = "auth/code-expired"
	CodeMissingPhoneNumber      = "auth/missing-phone-number"
	CodeQuotaExceeded           = "auth/quota-exceeded"
	CodeCaptchaCheckFailed      = "auth/captcha-check-failed"
	CodeInvalidAppCredential    = "auth/invalid-app-credential"
	CodeAppNotAuthorized        = "auth/app-not-authorized"
	CodeOperationNotAllowed     = "auth/operation-not-allowed"
	CodeSessionExpired          = "auth/session-expired"
	CodeResendCooldown          = "otp/resend-cooldown"
)

var messages = map[string]string{
	CodeInvalidPhoneNumber:      "Invalid phone number format. Please enter a valid Indian mobile number.",
	CodeTooManyRequests:         "Too many OTP requests. Please try again after some time.",
	CodeInvalidVerificationCode: "Invalid verification code. Please check and try again.",
	CodeCodeExpired:             "Verification code has expired. Please request a new code.",
	CodeMissingPhoneNumber:      "Phone number is required.",
	CodeQuotaExceeded:           "Daily SMS quota exceeded. Please try again tomorrow.",
	CodeCaptchaCheckFailed:      "Security verification failed. Please refresh and try again.",
	CodeInvalidAppCredential:    "App configuration error. Please contact support.",
	CodeAppNotAuthorized:        "This app is not authorized to use phone authentication.",
	CodeOperationNotAllowed:     "Phone authentication is not enabled. Please contact support.",
	CodeSessionExpired:          "Verification session has expired. Please request a new code.",
}

// Message maps a provider code to the text shown to the user
func Message(code string) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Phone verification failed (%s). Please check your internet connection and try again.", code)
}

// NewError builds a capability error for code
func NewError(code string) *errors.ErrCapability {
	return &errors.ErrCapability{Code: code, Message: Message(code)}
}

// CooldownError reports how long the caller has to wait before resending
func CooldownError(seconds int) *errors.ErrCapability {
	return &errors.ErrCapability{
		Code:    CodeResendCooldown,
		Message: fmt.Sprintf("Please wait %d seconds before requesting another OTP.", seconds),
	}
}
