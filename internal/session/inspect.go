package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/newsboard/internal/model"
)

// TokenInfo is what the client can read from its own access token.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time // zero if the token carries no exp
}

// Inspect decodes the access token claims without verifying the signature.
// The result is for display only; authorization is always decided by the backend.
func Inspect(s model.Session) (TokenInfo, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, &claims); err != nil {
		return TokenInfo{}, err
	}
	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
