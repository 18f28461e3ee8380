// Package capsule implements the credential capsule: a signed, time-bounded
// token wrapping store connection parameters. Possession of a valid,
// unexpired capsule is the sole authorization mechanism. The server keeps
// no session table, so every request carries everything needed to reach the
// store.
package capsule

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common capsule errors.
var (
	// ErrExpired marks a structurally valid capsule past its expiry. Callers
	// may treat it as "reconnect silently" rather than a hard failure.
	ErrExpired = errors.New("capsule expired")
	// ErrInvalid covers malformed or tampered capsules.
	ErrInvalid = errors.New("invalid capsule")

	ErrMissingToken      = errors.New("missing capsule token")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
)

// Descriptor holds the store connection parameters a capsule wraps.
// It is produced by user input, embedded verbatim inside the capsule and
// never persisted server-side.
type Descriptor struct {
	Host     string `json:"host"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Complete reports whether every connection field is present.
func (d Descriptor) Complete() bool {
	return d.Host != "" && d.Database != "" && d.Username != "" && d.Password != ""
}

// Claims is the capsule's JWT payload: the connection descriptor plus the
// standard time bounds.
type Claims struct {
	jwt.RegisteredClaims
	Host     string `json:"host"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Descriptor reconstructs the connection descriptor from the claims.
func (c *Claims) Descriptor() Descriptor {
	return Descriptor{
		Host:     c.Host,
		Database: c.Database,
		Username: c.Username,
		Password: c.Password,
	}
}

// Service mints and opens credential capsules.
type Service interface {
	// Mint signs a descriptor plus an absolute expiry (now + the configured
	// TTL) and returns the token with its expiry.
	Mint(desc Descriptor) (token string, expiresAt time.Time, err error)

	// Open verifies signature and expiry and returns the embedded descriptor
	// together with the capsule's expiry. Returns ErrExpired or ErrInvalid.
	Open(token string) (Descriptor, time.Time, error)

	// TTL returns the validity window applied by Mint.
	TTL() time.Duration
}

type service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a capsule service signing with the given secret.
// The secret's availability is validated at startup by config loading;
// an empty secret here is a programming error.
func NewService(secret string, ttl time.Duration) Service {
	return &service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *service) Mint(desc Descriptor) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Host:     desc.Host,
		Database: desc.Database,
		Username: desc.Username,
		Password: desc.Password,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign capsule: %w", err)
	}
	return token, expiresAt, nil
}

func (s *service) Open(token string) (Descriptor, time.Time, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Descriptor{}, time.Time{}, ErrExpired
		}
		return Descriptor{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid || claims.ExpiresAt == nil {
		return Descriptor{}, time.Time{}, ErrInvalid
	}
	return claims.Descriptor(), claims.ExpiresAt.Time, nil
}

func (s *service) TTL() time.Duration {
	return s.ttl
}

// TokenFromRequest extracts the capsule token from the Authorization header
// with the Bearer scheme. The token is not verified here; callers open it
// with Service.Open under their own expiry policy.
func TokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}
	// Fields instead of Split so stray whitespace between scheme and token
	// does not reject an otherwise well-formed header.
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidAuthFormat
	}
	return parts[1], nil
}
