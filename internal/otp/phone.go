package otp

import (
	"regexp"
	"strings"
)

var (
	nonDigits    = regexp.MustCompile(`\D`)
	mobileNumber = regexp.MustCompile(`^[6-9]\d{9}$`)
)

// IsValidPhoneNumber accepts 10-digit Indian mobile numbers starting with 6-9
func IsValidPhoneNumber(phone string) bool {
	return mobileNumber.MatchString(nonDigits.ReplaceAllString(phone, ""))
}

// FormatPhoneNumber converts a local or 91-prefixed number to +91XXXXXXXXXX.
// Unrecognised input is returned unchanged.
func FormatPhoneNumber(phone string) string {
	cleaned := nonDigits.ReplaceAllString(phone, "")

	switch {
	case len(cleaned) == 10:
		return "+91" + cleaned
	case len(cleaned) == 12 && strings.HasPrefix(cleaned, "91"):
		return "+" + cleaned
	}
	return phone
}

// Digits strips everything but digits, used to synthesize login emails
func Digits(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

func isFormattedMobile(phone string) bool {
	return strings.HasPrefix(phone, "+91") && mobileNumber.MatchString(phone[3:])
}
