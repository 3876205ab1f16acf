// Package auth validates and issues the bearer tokens that carry the owner.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "helmetledger/internal/core/context"
	"helmetledger/internal/core/id"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
	// Leeway tolerates clock skew between issuer and API.
	Leeway time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:   secret,
		Issuer:   "helmetledger",
		TokenTTL: 24 * time.Hour,
		Leeway:   30 * time.Second,
	}
}

// Claims represents JWT claims. Subject is the user; OwnerID scopes every
// ledger operation and falls back to the subject for single-user shops.
type Claims struct {
	jwt.RegisteredClaims
	OwnerID string   `json:"oid,omitempty"`
	Email   string   `json:"email,omitempty"`
	Roles   []string `json:"roles,omitempty"`
}

// ErrInvalidToken is returned for every token that does not validate.
var ErrInvalidToken = errors.New("invalid token")

// JWTService handles JWT operations.
type JWTService struct {
	config JWTConfig
	parser *jwt.Parser
	now    func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return newJWTService(config, time.Now)
}

func newJWTService(config JWTConfig, now func() time.Time) *JWTService {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(config.Leeway),
		jwt.WithTimeFunc(now),
		jwt.WithExpirationRequired(),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	return &JWTService{config: config, parser: jwt.NewParser(opts...), now: now}
}

// IssueInput describes the token to issue.
type IssueInput struct {
	UserID  string
	OwnerID string
	Email   string
	Roles   []string
	TTL     time.Duration
}

// Issue signs a token. It backs the dev token tool; production tokens come
// from the identity provider sharing the secret.
func (s *JWTService) Issue(in IssueInput) (string, time.Time, error) {
	if in.UserID == "" {
		return "", time.Time{}, errors.New("user id is required")
	}
	ttl := in.TTL
	if ttl <= 0 {
		ttl = s.config.TokenTTL
	}
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.New().String(),
			Issuer:    s.config.Issuer,
			Subject:   in.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		OwnerID: in.OwnerID,
		Email:   in.Email,
		Roles:   in.Roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a bearer token and returns the caller.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	var claims Claims
	token, err := s.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	ownerID := claims.OwnerID
	if ownerID == "" {
		ownerID = claims.Subject
	}
	return &appctx.UserContext{
		UserID:    claims.Subject,
		OwnerID:   ownerID,
		Email:     claims.Email,
		Roles:     claims.Roles,
		SessionID: claims.ID,
	}, nil
}
