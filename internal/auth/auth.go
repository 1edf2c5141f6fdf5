package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Resolver extracts user identities from bearer tokens. An unverifiable token
// resolves to the guest identity rather than an error, since debates are open
// to guests.
type Resolver struct {
	secret []byte
}

// NewResolver creates a resolver over an HMAC signing secret.
func NewResolver(secret string) *Resolver {
	return &Resolver{secret: []byte(secret)}
}

// UserID returns the subject of a valid token, or "" for anything else:
// missing token, wrong algorithm, bad signature, expired, no subject.
func (r *Resolver) UserID(tokenString string) string {
	if tokenString == "" || len(r.secret) == 0 {
		return ""
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
