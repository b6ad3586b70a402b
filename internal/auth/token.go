// Package auth issues and verifies the bearer tokens that identify callers.
// A token's subject is the caller's address.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oumaoumag/eventvex/internal/clock"
	"github.com/oumaoumag/eventvex/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingKey   = errors.New("signing key is empty")
)

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

func NewIssuer(key []byte, issuer string, ttl time.Duration, clk clock.Clock) (*Issuer, error) {
	if len(key) == 0 {
		return nil, ErrMissingKey
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Issuer{key: key, issuer: issuer, ttl: ttl, clock: clk}, nil
}

// Issue returns a signed token for addr. A zero ttl issues a token without
// expiry.
func (i *Issuer) Issue(addr domain.Address) (string, error) {
	now := i.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:  addr.String(),
		Issuer:   i.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the subject.
func (i *Issuer) Verify(token string) (domain.Address, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.clock.Now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	}, opts...)
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	addr, err := domain.ParseAddress(claims.Subject)
	if err != nil || addr.IsZero() {
		return domain.ZeroAddress, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return addr, nil
}
