package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every validation failure: bad signature, wrong
// algorithm, expired, missing subject. Callers must not learn which.
var ErrInvalidToken = errors.New("invalid token")

// Service issues and validates signed bearer tokens. It holds no mutable
// state beyond the secret and TTL loaded once at startup, so a single value
// is shared by every request.
type Service struct {
	Secret []byte
	TTL    time.Duration
	Method jwt.SigningMethod

	// Now is the clock used for issuance and expiry checks. Tests override
	// it; nil means time.Now.
	Now func() time.Time
}

func NewService(secret []byte, algorithm string, ttl time.Duration) (*Service, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("algorithm %q is not symmetric", algorithm)
	}
	return &Service{Secret: secret, TTL: ttl, Method: method}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue signs a token carrying the subject, valid for the configured TTL.
func (s *Service) Issue(subject string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
	}
	return jwt.NewWithClaims(s.Method, claims).SignedString(s.Secret)
}

// Validate verifies the signature and expiry and returns the subject claim.
// The token stays valid through the exact expiry instant and not past it.
func (s *Service) Validate(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != s.Method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !t.Valid {
		return "", ErrInvalidToken
	}
	if claims.ExpiresAt == nil || s.now().After(claims.ExpiresAt.Time) {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
