// Package auth turns bearer tokens into member ids. Tokens are HS256 JWTs
// issued elsewhere; GenerateToken exists for development tooling and tests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the member id.
type Claims struct {
	jwt.RegisteredClaims
	MemberID string `json:"member_id"`
}

func GenerateToken(memberID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		MemberID: memberID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetMemberIDFromToken validates tokenString and returns its member id.
// An expired token yields common.ErrTokenExpired, anything else that fails
// validation common.ErrInvalidToken.
func GetMemberIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.MemberID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.MemberID, nil
}
