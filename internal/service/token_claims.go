package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired lee el exp de un bearer JWT sin verificar la firma; la firma es cosa del backend.
// Tokens opacos (no JWT) o sin exp nunca se consideran vencidos.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
