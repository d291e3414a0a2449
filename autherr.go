package biocard

import (
	"errors"
	"strings"
)

var (
	ErrInvalidEmail = errors.New("email is invalid")
	// Returned after a reset was requested; the message doubles as user feedback.
	ErrResetPasswordSent = errors.New("check your email to reset password")
)

var friendlyAuthMessages = []struct {
	substring string
	message   string
}{
	{"invalid login credentials", "Incorrect email or password."},
	{"user already registered", "This email is already registered."},
	{"password should be at least", "Password must be at least 8 characters and include lowercase, uppercase, digit, and symbol."},
	{"email is invalid", "Please enter a valid email address."},
	{"reset password", "Check your email for a password reset link."},
}

// FriendlyAuthMessage rewrites known auth error messages for display.
// Unrecognized messages are returned unchanged.
func FriendlyAuthMessage(msg string) string {
	lower := strings.ToLower(msg)
	for _, f := range friendlyAuthMessages {
		if strings.Contains(lower, f.substring) {
			return f.message
		}
	}
	return msg
}
