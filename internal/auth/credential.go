package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicbook/clinicbook-api/internal/identity"
)

// DefaultTTL is the lifetime of an issued credential.
const DefaultTTL = 24 * time.Hour

// Claims binds a credential to an email.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserLookup resolves users by email. identity.Repository satisfies it.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*identity.User, error)
}

// Verifier turns a raw credential into the email it was issued for.
type Verifier interface {
	Verify(token string) (string, error)
}

// Issuer signs and verifies HS256 credentials. Credentials are stateless:
// there is no revocation list, logout is a client-side discard.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	users  UserLookup
	now    func() time.Time
}

// NewIssuer creates an issuer. A zero ttl falls back to DefaultTTL.
func NewIssuer(secret string, ttl time.Duration, users UserLookup) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		users:  users,
		now:    time.Now,
	}
}

// Issue returns a signed credential for a known user. Unknown emails get
// ErrUnauthenticated so the client can prompt for sign up.
func (i *Issuer) Issue(ctx context.Context, email string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrSigningDisabled
	}
	email = identity.NormalizeEmail(email)
	if email == "" {
		return "", ErrUnauthenticated
	}

	if _, err := i.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return "", ErrUnauthenticated
		}
		return "", fmt.Errorf("auth: lookup user: %w", err)
	}

	now := i.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign credential: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the bound email.
func (i *Issuer) Verify(token string) (string, error) {
	if len(i.secret) == 0 || token == "" {
		return "", ErrInvalidCredential
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	var claims Claims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Email == "" {
		return "", ErrInvalidCredential
	}
	return claims.Email, nil
}
