package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TabTokenDuration = 24 * time.Hour
	tabTokenType     = "tab"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("token secret is not configured")
)

// Claims identify the browser tab a message comes from.
type Claims struct {
	TabID     string `json:"tabId"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

func GenerateTabToken(secret string, tabID string) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	return generateToken(secret, tabID, tabTokenType, TabTokenDuration)
}

func ValidateToken(secret string, tokenStr string) (*Claims, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tabTokenType || claims.TabID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateToken(secret string, tabID string, tokenType string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		TabID:     tabID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
