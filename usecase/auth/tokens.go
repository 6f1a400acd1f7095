package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var errTokenType = errors.New("unexpected token type")

// Claims is the JWT payload for both access and refresh tokens. For refresh
// tokens the ID (jti) names the backing session.
type Claims struct {
	UserID string `json:"user_id"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenConfig controls token signing and lifetimes.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// Issue signs a token of the given type; it returns the token and its expiry.
func (i *TokenIssuer) Issue(userID, tokenType, id string) (string, time.Time, error) {
	ttl := i.cfg.AccessTTL
	if tokenType == TokenTypeRefresh {
		ttl = i.cfg.RefreshTTL
	}
	issuedAt := i.now().UTC()
	expiresAt := issuedAt.Add(ttl)

	claims := Claims{
		UserID: userID,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    i.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, expiry and type.
func (i *TokenIssuer) Parse(tokenString, expectedType string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(i.cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.Type != expectedType {
		return nil, errTokenType
	}
	return &claims, nil
}

func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.cfg.RefreshTTL
}
