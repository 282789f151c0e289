// Package gatepass issues and verifies the signed payloads embedded in the QR
// codes participants present at the gate. Rendering the QR image itself is an
// external concern; only the token matters here.
package gatepass

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "paddock"

// ErrInvalidPass indicates the pass failed validation.
var ErrInvalidPass = errors.New("gatepass: invalid pass")

// Claims carried by a gate pass token.
type Claims struct {
	EventID string `json:"evt"`
	Number  string `json:"num,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies gate passes with a shared HS256 secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption configures Issuer behavior.
type IssuerOption func(*Issuer)

// WithTTL overrides the default pass lifetime.
func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer constructs an Issuer. Passes default to a 30-day lifetime so a
// pass issued on approval is still valid on show day.
func NewIssuer(secret string, opts ...IssuerOption) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("gatepass secret is required")
	}
	i := &Issuer{
		secret: []byte(secret),
		ttl:    30 * 24 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a pass for an approved registration.
func (i *Issuer) Issue(registrationID, eventID, number string) (string, time.Time, error) {
	registrationID = strings.TrimSpace(registrationID)
	eventID = strings.TrimSpace(eventID)
	if registrationID == "" || eventID == "" {
		return "", time.Time{}, errors.New("registration and event ids are required")
	}
	now := i.now().UTC()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		EventID: eventID,
		Number:  number,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   registrationID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and required claims of a scanned pass.
func (i *Issuer) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidPass
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidPass
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, ErrInvalidPass
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidPass
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.EventID) == "" {
		return nil, ErrInvalidPass
	}
	return claims, nil
}
