package biocard

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLen = 8

var ErrWeakPassword = fmt.Errorf("password should be at least %d characters "+
	"and include lowercase, uppercase, digit, and symbol", MinPasswordLen)

var (
	passwordLower  = regexp.MustCompile(`[a-z]`)
	passwordUpper  = regexp.MustCompile(`[A-Z]`)
	passwordDigit  = regexp.MustCompile(`[0-9]`)
	passwordSymbol = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// PasswordRequirements lists which parts of the password policy are met.
type PasswordRequirements struct {
	Length    bool `json:"length"`
	Lowercase bool `json:"lowercase"`
	Uppercase bool `json:"uppercase"`
	Digit     bool `json:"digit"`
	Symbol    bool `json:"symbol"`
}

func CheckPasswordRequirements(password string) PasswordRequirements {
	return PasswordRequirements{
		Length:    len(password) >= MinPasswordLen,
		Lowercase: passwordLower.MatchString(password),
		Uppercase: passwordUpper.MatchString(password),
		Digit:     passwordDigit.MatchString(password),
		Symbol:    passwordSymbol.MatchString(password),
	}
}

func (r PasswordRequirements) Met() bool {
	return r.Length && r.Lowercase && r.Uppercase && r.Digit && r.Symbol
}

// ValidatePassword applies the policy used by sign-up and password reset.
// Social logins never reach it.
func ValidatePassword(password string) error {
	if !CheckPasswordRequirements(password).Met() {
		return ErrWeakPassword
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt generate: %w", err)
	}
	return string(hash), nil
}

// ComparePassword returns ErrInvalidCredentials when password does not match hash.
func ComparePassword(hash string, password string) error {
	if hash == "" {
		return ErrInvalidCredentials
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("bcrypt compare: %w", err)
	}
	return nil
}
