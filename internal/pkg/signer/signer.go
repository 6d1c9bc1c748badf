// Package signer issues and verifies the signed access tokens handed out at
// login. It is stateless: the outcome of every call is a pure function of the
// configured secret, the token bytes and the clock.
package signer

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMalformed means the token could not be parsed into claims.
	ErrMalformed = errors.New("token malformed")
	// ErrInvalidSignature means the signature does not match the secret.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrExpired means the token's signed lifetime has elapsed.
	ErrExpired = errors.New("token expired")
)

// Config is the immutable signing configuration, built once at startup and
// passed in explicitly. There is no package-level secret.
type Config struct {
	Secret    string
	Algorithm string // HS256, HS384 or HS512
	// Leeway is the clock skew tolerance applied to the expiry check.
	// Zero means exact expiry.
	Leeway time.Duration
}

// Signer creates and verifies signed token payloads.
type Signer struct {
	secret []byte
	method jwtlib.SigningMethod
	leeway time.Duration
}

// New validates cfg and returns a Signer.
func New(cfg Config) (*Signer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("signing secret is required")
	}
	if cfg.Leeway < 0 {
		return nil, errors.New("negative leeway")
	}
	method := jwtlib.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwtlib.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	return &Signer{
		secret: []byte(cfg.Secret),
		method: method,
		leeway: cfg.Leeway,
	}, nil
}

// Issue creates a signed token for the given identity, valid for lifetime.
func (s *Signer) Issue(identity string, lifetime time.Duration) (string, error) {
	now := time.Now()
	// The jti makes every issued token unique even when two logins for the
	// same identity land within the same second (iat has second precision),
	// so a reissued token never compares equal to the one it supersedes.
	claims := jwtlib.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   identity,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(lifetime)),
	}
	token := jwtlib.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature integrity and expiry and returns the subject
// identity. Failures map onto ErrMalformed, ErrInvalidSignature or ErrExpired.
func (s *Signer) Verify(tokenStr string) (string, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &jwtlib.RegisteredClaims{},
		func(t *jwtlib.Token) (interface{}, error) {
			if t.Method.Alg() != s.method.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwtlib.WithLeeway(s.leeway),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwtlib.ErrTokenMalformed):
			return "", ErrMalformed
		case errors.Is(err, jwtlib.ErrTokenExpired):
			return "", ErrExpired
		case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
			return "", ErrInvalidSignature
		default:
			return "", ErrInvalidSignature
		}
	}

	claims, ok := token.Claims.(*jwtlib.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrMalformed
	}
	return claims.Subject, nil
}
