package session

import (
	"fmt"
	"strings"
	"time"

	"consultly/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// The backend signs tokens with its own key; the bot only needs the
// claims, so tokens are decoded without signature verification. The
// backend remains the authority on every authenticated call.

// Claim names as issued by the booking backend. The long URIs are the
// legacy identity claim types some backends still emit.
const (
	claimNameID     = "nameid"
	claimUniqueName = "unique_name"
	claimLegacyID   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	claimLegacyRole = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
)

// ParseToken decodes an access token into a user and its expiry.
func ParseToken(token string) (*models.User, time.Time, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}

	user := &models.User{
		ID:       firstString(claims, "sub", claimNameID, claimLegacyID),
		Email:    firstString(claims, "email"),
		FullName: firstString(claims, "name", claimUniqueName),
		Role:     normalizeRole(firstString(claims, "role", claimLegacyRole)),
	}
	if user.ID == "" {
		return nil, time.Time{}, fmt.Errorf("token has no subject claim")
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return user, expiresAt, nil
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if val, ok := claims[key].(string); ok && val != "" {
			return val
		}
	}
	return ""
}

func normalizeRole(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "consultant", "doctor", "specialist":
		return models.RoleConsultant
	case "admin", "administrator", "staff":
		return models.RoleAdmin
	default:
		return models.RoleClient
	}
}
