package jwt

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Create signs claims with the shared secret (HS256).
func Create(claims Claims, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is empty")
	}
	if claims.IssuedAt == nil {
		claims.IssuedAt = gojwt.NewNumericDate(time.Now())
	}
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Validate checks the signature, algorithm and expiry of the token and
// returns its claims.
func Validate(token string, secret string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("no token provided")
	}
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}

	var claims Claims
	parsed, err := gojwt.ParseWithClaims(token, &claims, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.UserID() == "" {
		return nil, fmt.Errorf("token has no user claim")
	}

	// all checks passed
	return &claims, nil
}
