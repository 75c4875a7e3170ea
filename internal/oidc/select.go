package oidc

import (
	"context"
	"errors"

	"github.com/devblog/devblog-api/internal/config"
	"github.com/devblog/devblog-api/pkg/logger"
	"github.com/devblog/devblog-api/pkg/middleware"
)

// ErrNoVerifier is returned when no identity verification is configured.
var ErrNoVerifier = errors.New("no identity verifier configured")

// NewFromConfig picks the verifier for the configured identity provider:
// OIDC issuer first, then the HS256 development secret, then the insecure
// claim parser when explicitly allowed.
func NewFromConfig(ctx context.Context, cfg config.IdentityConfig) (middleware.Verifier, error) {
	if issuer := cfg.OIDCIssuer(); issuer != "" {
		ver, err := NewVerifier(ctx, issuer, cfg.Audience())
		if err == nil {
			logger.Infof("verifying identity tokens against %s", issuer)
			return ver, nil
		}
		if !cfg.AllowInsecureToken && cfg.JWTSecret == "" {
			return nil, err
		}
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
	}
	if cfg.JWTSecret != "" {
		logger.Warn("verifying identity tokens with the shared HS256 secret (development mode)")
		return NewHMACVerifier(cfg.JWTSecret), nil
	}
	if cfg.AllowInsecureToken {
		logger.Warn("enabling insecure token verifier (integration mode)")
		return NewInsecureVerifier(), nil
	}
	return nil, ErrNoVerifier
}
