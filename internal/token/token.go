// Package token issues and verifies the signed session tokens presented on
// each request. Tokens are stateless: there is no server-side revocation list,
// and rotating the signing secret invalidates everything outstanding.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/orusagri/agrimon/internal/errs"
)

// DefaultTTL matches the original deployment's seven-day sessions.
const DefaultTTL = 7 * 24 * time.Hour

// Issuer mints and verifies HS256 JWTs carrying the account id as subject.
// The secret is read-only after construction, so an Issuer is safe for
// concurrent use.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer constructs an Issuer. A zero ttl falls back to DefaultTTL.
func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: empty signing secret")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl}, nil
}

// Issue signs a token asserting the given account id until the configured TTL.
func (i *Issuer) Issue(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded account id.
// Expired tokens map to errs.ErrTokenExpired; anything else that fails to
// parse or verify maps to errs.ErrTokenMalformed.
func (i *Issuer) Verify(tokenString string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, errs.ErrTokenExpired
		}
		return uuid.Nil, errs.ErrTokenMalformed
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errs.ErrTokenMalformed
	}
	return id, nil
}
