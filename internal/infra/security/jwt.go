package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

var (
	// ErrTokenInvalid indicates the token is malformed or its signature failed validation.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates the token is well-formed but past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// AccessTokenClaims carries the identity context embedded in access tokens.
type AccessTokenClaims struct {
	AccountID string `json:"uid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshTokenClaims carries the reduced identity context embedded in refresh tokens.
type RefreshTokenClaims struct {
	AccountID string `json:"uid"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuerConfig defines secrets and lifetimes for both token kinds.
// Access and refresh tokens are signed with distinct secrets so that one
// kind can never be replayed as the other.
type TokenIssuerConfig struct {
	Issuer          string
	AccessSecret    []byte
	RefreshSecret   []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TokenIssuer creates and verifies signed, time-limited JWTs.
type TokenIssuer struct {
	cfg TokenIssuerConfig
	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer after validating the configuration.
func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, fmt.Errorf("access token secret is required")
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("refresh token secret is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}

	return &TokenIssuer{cfg: cfg, now: time.Now}, nil
}

// WithClock overrides the issuer clock (primarily for tests).
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	if now != nil {
		t.now = now
	}
	return t
}

// AccessTokenTTL exposes the configured access token lifetime.
func (t *TokenIssuer) AccessTokenTTL() time.Duration {
	return t.cfg.AccessTokenTTL
}

// RefreshTokenTTL exposes the configured refresh token lifetime.
func (t *TokenIssuer) RefreshTokenTTL() time.Duration {
	return t.cfg.RefreshTokenTTL
}

// IssueAccessToken signs a short-lived access token carrying id, username, and email claims.
func (t *TokenIssuer) IssueAccessToken(accountID, username, email string) (string, error) {
	if accountID == "" {
		return "", fmt.Errorf("account id is required")
	}

	now := t.now().UTC()
	claims := AccessTokenClaims{
		AccountID: accountID,
		Username:  username,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    t.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.AccessTokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.AccessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// IssueRefreshToken signs a long-lived refresh token carrying id and username claims.
func (t *TokenIssuer) IssueRefreshToken(accountID, username string) (string, time.Time, error) {
	if accountID == "" {
		return "", time.Time{}, fmt.Errorf("account id is required")
	}

	now := t.now().UTC()
	expiresAt := now.Add(t.cfg.RefreshTokenTTL)
	claims := RefreshTokenClaims{
		AccountID: accountID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    t.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.RefreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, expiresAt, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (t *TokenIssuer) ParseAccessToken(token string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if err := t.parse(token, claims, t.cfg.AccessSecret); err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.AccountID) == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseRefreshToken validates a refresh token and returns its claims.
func (t *TokenIssuer) ParseRefreshToken(token string) (*RefreshTokenClaims, error) {
	claims := &RefreshTokenClaims{}
	if err := t.parse(token, claims, t.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.AccountID) == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (t *TokenIssuer) parse(token string, claims jwt.Claims, secret []byte) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenInvalid
	}

	opts := []jwt.ParserOption{jwt.WithTimeFunc(t.now)}
	if t.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.cfg.Issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return ErrTokenInvalid
	}

	return nil
}
