// Package auth issues and checks dashboard sessions.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by Sessions
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
	ErrDisabled           = errors.New("admin access is not configured")
)

const (
	subject = "admin"
	issuer  = "tekkistudio-site"
)

// Sessions checks the admin password and signs HS256 session tokens
type Sessions struct {
	hash   []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a session issuer. passwordHash is a bcrypt hash; when it
// is empty and password is set, password is hashed here.
func NewSessions(password, passwordHash, secret string, ttl time.Duration) (*Sessions, error) {
	s := &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}

	switch {
	case passwordHash != "":
		s.hash = []byte(passwordHash)
	case password != "":
		hash, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		s.hash = []byte(hash)
	default:
		return s, nil
	}

	if len(s.secret) == 0 {
		return nil, errors.New("auth: session secret is required")
	}
	return s, nil
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Enabled reports whether a password is configured
func (s *Sessions) Enabled() bool {
	return len(s.hash) > 0
}

// TTL is how long an issued session stays valid
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Login checks password and returns a signed session token
func (s *Sessions) Login(password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expires, nil
}

// Validate checks a token issued by Login
func (s *Sessions) Validate(token string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	if token == "" {
		return ErrInvalidSession
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(subject),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return nil
}
