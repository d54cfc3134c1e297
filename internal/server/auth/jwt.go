// Package auth mints and validates the signed session tokens handed out
// after a successful one-time login redemption.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/loginlink/loginlink/internal/common"
)

// Claims carries the session identity: the authenticated user plus the
// account-management capability flag used by the issuance policy.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string `json:"user_id"`
	ManageUsers bool   `json:"manage_users,omitempty"`
}

func GenerateToken(userID string, manageUsers bool, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:      userID,
		ManageUsers: manageUsers,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetClaimsFromToken parses and validates a session token. Any parse or
// validation failure, including expiry, comes back as ErrInvalidToken: a
// stale session is simply not a session.
func GetClaimsFromToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
