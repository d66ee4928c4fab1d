// Package auth issues and verifies the signed session tokens carried in the
// session cookie, and hashes account passwords.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard registered claims plus the account id and the
// login the token was issued for. LoginAt is in Unix microseconds because
// IssuedAt only has second precision.
type Claims struct {
	jwt.RegisteredClaims
	UserID  int64 `json:"user_id"`
	LoginAt int64 `json:"login_at,omitempty"`
}

// LoginTime is the login the token belongs to; zero for tokens without one.
func (c *Claims) LoginTime() time.Time {
	if c.LoginAt == 0 {
		return time.Time{}
	}
	return time.UnixMicro(c.LoginAt).UTC()
}

// GenerateToken signs a session token for userID created by the login at
// loginAt and valid for validityDuration from then.
func GenerateToken(userID int64, loginAt time.Time, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(loginAt),
			ExpiresAt: jwt.NewNumericDate(loginAt.Add(validityDuration)),
		},
		UserID:  userID,
		LoginAt: loginAt.UnixMicro(),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and returns its claims.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, err
	}

	if !token.Valid || claims.UserID == 0 {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

func GetUserIDFromToken(tokenString string, secretKey []byte) (int64, error) {
	claims, err := ParseToken(tokenString, secretKey)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
