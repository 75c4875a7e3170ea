package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/devblog/devblog-api/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier validates HS256 identity tokens signed with a shared secret.
// Used in development when no identity provider is configured; tokens are
// minted with tokens.GenerateIdentityToken.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return &mapToken{claims: claims}, nil
}
