// Package feedtoken signs the tokens that let calendar clients poll a
// person's expiry feed without a session cookie.
package feedtoken

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope is the only scope a feed token carries.
const Scope = "calendar"

// ErrInvalidToken is returned for tokens that are malformed, expired, signed
// with another key or scoped to something other than the calendar feed.
var ErrInvalidToken = errors.New("invalid feed token")

// Signer issues and verifies HS256 feed tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a signer. A non-positive ttl issues tokens without an
// expiry claim.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for personID. The zero time is returned as expiry when
// the token does not expire.
func (s *Signer) Issue(personID uint) (string, time.Time, error) {
	if personID == 0 {
		return "", time.Time{}, fmt.Errorf("person id is required")
	}

	now := s.now().UTC()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(personID), 10),
		"scope": Scope,
		"iat":   now.Unix(),
	}
	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl)
		claims["exp"] = expiresAt.Unix()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies token and returns the person id it was issued for.
func (s *Signer) Parse(token string) (uint, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	if scope, _ := claims["scope"].(string); scope != Scope {
		return 0, ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return 0, ErrInvalidToken
	}
	personID, err := strconv.ParseUint(subject, 10, 64)
	if err != nil || personID == 0 {
		return 0, ErrInvalidToken
	}
	return uint(personID), nil
}
