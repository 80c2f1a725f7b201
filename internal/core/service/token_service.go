package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/usermgmt/user-service/internal/core/domain"
)

const (
	bearerPrefix    = "Bearer "
	defaultTokenTTL = time.Hour
	minKeyBytes     = 32 // HS256 needs at least 256 bits of key material
)

// TokenConfig is injected into TokenService at construction.
type TokenConfig struct {
	// Secret is base64-encoded key material.
	Secret string
	TTL    time.Duration
}

type tokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("token secret is required")
	}
	key, err := base64.StdEncoding.DecodeString(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("decode token secret: %w", err)
	}
	if len(key) < minKeyBytes {
		return nil, fmt.Errorf("token secret must decode to at least %d bytes, got %d", minKeyBytes, len(key))
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for username carrying roles in order.
func (s *TokenService) Issue(username string, roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	now := s.now()
	claims := tokenClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.key)
}

// Verify reports whether token parses, carries a valid signature and has not
// expired. Failure causes are not distinguished.
func (s *TokenService) Verify(token string) bool {
	_, err := s.parse(token)
	return err == nil
}

// ExtractUsername returns the subject of a valid token, or domain.ErrInvalidToken wrapping the jwt cause.
func (s *TokenService) ExtractUsername(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractRoles returns the roles claim of a valid token, or domain.ErrInvalidToken wrapping the jwt cause
// when the token fails to verify or carries no roles.
func (s *TokenService) ExtractRoles(token string) ([]string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Roles == nil {
		return nil, fmt.Errorf("%w: roles claim missing", domain.ErrInvalidToken)
	}
	return claims.Roles, nil
}

// ResolveBearer strips the literal "Bearer " prefix from an Authorization
// header value.
func (s *TokenService) ResolveBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return header[len(bearerPrefix):], true
}

func (s *TokenService) parse(raw string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
