package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when claims are requested without a stored token.
var ErrNoToken = errors.New("no access token stored")

// Claims is the readable part of an access token.
type Claims struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token expiry is before now. Tokens without an
// exp claim never expire from the client's point of view.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims decodes the stored access token without verifying its signature.
// The result is informational only: the backend remains the authority on
// whether the token is accepted.
func (s *Session) Claims(ctx context.Context) (Claims, error) {
	token, err := s.AccessToken(ctx)
	if err != nil {
		return Claims{}, err
	}
	if token == "" {
		return Claims{}, ErrNoToken
	}
	return ParseClaims(token)
}

// ParseClaims extracts user_id, email and exp from a JWT.
func ParseClaims(token string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("parse access token: %w", err)
	}

	var claims Claims
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time.UTC()
	}
	switch v := mapClaims["user_id"].(type) {
	case float64:
		claims.UserID = int64(v)
	case string:
		if _, err := fmt.Sscan(v, &claims.UserID); err != nil {
			return Claims{}, fmt.Errorf("parse user_id claim: %w", err)
		}
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	return claims, nil
}
