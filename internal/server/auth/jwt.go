// Package auth verifies the HS256 admin tokens that guard administrative
// endpoints. The token subject names the actor recorded in audit rows.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSecret = errors.New("admin token secret not configured")

// Claims are the registered claims of an admin token. Subject is the actor.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs an admin token for subject valid for validityDuration.
func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ActorFromToken verifies tokenString with secretKey and returns its
// subject. Only HS256 tokens with an expiry and a subject are accepted.
func ActorFromToken(tokenString string, secretKey []byte) (string, error) {
	if len(secretKey) == 0 {
		return "", ErrNoSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrorInvalidToken
	}

	return claims.Subject, nil
}
