package oidc

import (
	"context"
	"fmt"

	"github.com/devblog/devblog-api/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// InsecureVerifier implements a verifier that does NOT validate signatures.
// Only intended for local/integration runs under explicit opt-in
// (ALLOW_INSECURE_TOKEN), e.g. against the Firebase auth emulator.
type InsecureVerifier struct {
	parser *jwt.Parser
}

func NewInsecureVerifier() *InsecureVerifier {
	return &InsecureVerifier{parser: jwt.NewParser()}
}

func (v *InsecureVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("invalid token format: %w", err)
	}
	return &mapToken{claims: claims}, nil
}
