// Package token issues and verifies single-purpose account tokens used in
// email confirmation and password reset links.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTTL is the default lifetime for account tokens.
	DefaultTTL = 10 * time.Minute
	// DefaultLeeway is clock skew tolerance for token validation.
	DefaultLeeway = 15 * time.Second

	// PurposeConfirmEmail marks a token that confirms an account's email.
	PurposeConfirmEmail = "confirm_email"
	// PurposeResetPassword marks a token that authorizes a password reset.
	PurposeResetPassword = "reset_password"
)

// ErrInvalid is returned for tokens that are expired, malformed, tampered
// with, or presented for the wrong purpose.
var ErrInvalid = errors.New("invalid token")

type claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 account tokens. A token issued for one
// purpose never verifies for another.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer. The secret must be non-empty; a non-positive
// ttl falls back to DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token for the given account and purpose.
func (i *Issuer) Issue(accountID int64, purpose string) (string, error) {
	if purpose != PurposeConfirmEmail && purpose != PurposeResetPassword {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}
	now := time.Now().UTC()
	c := claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

// Verify validates the token and returns the account ID it was issued for.
// Purpose mismatch is reported the same way as any other invalid token so
// callers leak nothing about why verification failed.
func (i *Issuer) Verify(token, purpose string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrInvalid
	}
	c := claims{}
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(DefaultLeeway),
	)
	if err != nil || !parsed.Valid {
		return 0, ErrInvalid
	}
	if c.Purpose != purpose {
		return 0, ErrInvalid
	}
	accountID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return 0, ErrInvalid
	}
	return accountID, nil
}
