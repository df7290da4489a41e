// Package auth verifies the bearer credentials accepted by the HTTP API.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for a missing or rejected credential.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks a bearer credential.
type Verifier interface {
	Verify(credential string) error
}

// Token accepts exactly one shared secret.
type Token string

// Verify compares in constant time.
func (t Token) Verify(credential string) error {
	if credential == "" || subtle.ConstantTimeCompare([]byte(credential), []byte(t)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// JWT accepts HS256 tokens signed with Secret and issued by Issuer.
type JWT struct {
	Secret []byte
	Issuer string
	now    func() time.Time
}

var (
	_ Verifier = Token("")
	_ Verifier = (*JWT)(nil)
)

// NewJWT returns a verifier and issuer for HS256 tokens.
func NewJWT(secret, issuer string) *JWT {
	return &JWT{Secret: []byte(secret), Issuer: issuer, now: time.Now}
}

// Issue signs a token for subject that expires after ttl.
func (j *JWT) Issue(subject string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    j.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return token, nil
}

// Verify parses credential and checks its signature, issuer, and lifetime.
func (j *JWT) Verify(credential string) error {
	if credential == "" {
		return ErrUnauthorized
	}
	_, err := jwt.ParseWithClaims(credential, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.Secret, nil
	},
		jwt.WithIssuer(j.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}
