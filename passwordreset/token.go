// Package passwordreset issues and redeems password reset links.
package passwordreset

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/whoameye/biocard"
)

const DefaultTokenTTL = time.Hour

const tokenPurpose = "password_reset"

var ErrInvalidToken = errors.New("reset link is invalid or expired")

type claims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
	// Changes whenever the password does, so a used link cannot be redeemed twice.
	Fingerprint string `json:"fp"`
}

type Tokens struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

func fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

func (t *Tokens) Issue(user biocard.User) (string, error) {
	now := t.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(user.Id),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
		},
		Purpose:     tokenPurpose,
		Fingerprint: fingerprint(user.PasswordHash),
	})
	signed, err := token.SignedString(t.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the id of the user the token was issued for along with
// the password fingerprint it was bound to.
func (t *Tokens) Verify(token string) (biocard.UserId, string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return t.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Purpose != tokenPurpose || c.Subject == "" {
		return "", "", ErrInvalidToken
	}
	return biocard.UserId(c.Subject), c.Fingerprint, nil
}
