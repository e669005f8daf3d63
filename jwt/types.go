package jwt

import (
	gojwt "github.com/golang-jwt/jwt/v5"
)

// User is the identity block issued by the account service: {"user":{"id":...}}.
type User struct {
	ID string `json:"id"`
}

type Claims struct {
	gojwt.RegisteredClaims
	User User `json:"user"`
}

// UserID falls back to the subject for tokens that carry no user block.
func (c Claims) UserID() string {
	if c.User.ID != "" {
		return c.User.ID
	}
	return c.Subject
}
