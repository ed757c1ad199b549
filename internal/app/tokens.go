package app

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"healthmate/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Claims is the payload of access and refresh tokens.
type Claims struct {
	UserID int64       `json:"id"`
	Role   domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig holds the signing secrets and lifetimes of issued tokens.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer signs and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	cfg TokenConfig
}

// NewTokenIssuer creates a TokenIssuer. Both secrets are required.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token secrets must be set")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &TokenIssuer{cfg: cfg}, nil
}

// RefreshTTL is how long a refresh token stays valid.
func (t *TokenIssuer) RefreshTTL() time.Duration { return t.cfg.RefreshTTL }

// Access issues an access token carrying the user's id and role.
func (t *TokenIssuer) Access(u *domain.User) (string, error) {
	return t.sign(u.ID, u.Role, t.cfg.AccessTTL, t.cfg.AccessSecret)
}

// Refresh issues a refresh token carrying the user's id.
func (t *TokenIssuer) Refresh(u *domain.User) (string, error) {
	return t.sign(u.ID, "", t.cfg.RefreshTTL, t.cfg.RefreshSecret)
}

// ParseAccess verifies an access token.
func (t *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return parse(token, t.cfg.AccessSecret)
}

// ParseRefresh verifies a refresh token.
func (t *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return parse(token, t.cfg.RefreshSecret)
}

func (t *TokenIssuer) sign(userID int64, role domain.Role, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func parse(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
