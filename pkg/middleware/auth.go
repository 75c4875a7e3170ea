package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/devblog/devblog-api/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	claimsKey   = "claims"
	identityKey = "identity"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Identity is the caller resolved from a verified token.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IdentityFromClaims maps token claims to an Identity. The subject is the
// identity id (Firebase also mirrors it in user_id); the display name falls
// back to the email address.
func IdentityFromClaims(claims map[string]interface{}) Identity {
	var id Identity
	if sub, _ := claims["sub"].(string); sub != "" {
		id.ID = sub
	} else if uid, _ := claims["user_id"].(string); uid != "" {
		id.ID = uid
	}
	if name, _ := claims["name"].(string); name != "" {
		id.Name = name
	} else if email, _ := claims["email"].(string); email != "" {
		id.Name = email
	}
	return id
}

// authenticate verifies the bearer token on c. msg is the client-facing
// failure message when ok is false.
func authenticate(c *gin.Context, ver Verifier) (claims map[string]interface{}, ident Identity, msg string, ok bool) {
	token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return nil, Identity{}, "Missing token", false
	}

	idToken, err := ver.Verify(c.Request.Context(), token)
	if err != nil {
		logger.Warnf("token verification failed: %v", err)
		return nil, Identity{}, "Invalid token", false
	}
	if err := idToken.Claims(&claims); err != nil {
		logger.Warnf("token claims could not be decoded: %v", err)
		return nil, Identity{}, "Invalid token", false
	}
	ident = IdentityFromClaims(claims)
	if ident.ID == "" {
		return nil, Identity{}, "Invalid token", false
	}
	return claims, ident, "", true
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
// and attaches the caller identity to the context. An identity already attached
// by Identify is reused.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFrom(c); ok {
			c.Next()
			return
		}
		claims, ident, msg, ok := authenticate(c, ver)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
			return
		}
		c.Set(claimsKey, claims)
		c.Set(identityKey, ident)
		c.Next()
	}
}

// Identify attaches the caller identity when the request carries a valid
// bearer token and otherwise lets the request through untouched. It runs
// ahead of the rate limiter so authenticated callers get their own bucket;
// routes that require a caller still mount AuthMiddleware.
func Identify(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if claims, ident, _, ok := authenticate(c, ver); ok {
				c.Set(claimsKey, claims)
				c.Set(identityKey, ident)
			}
		}
		c.Next()
	}
}

// IdentityFrom returns the identity attached by AuthMiddleware.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}

// subjectKey picks the limiter key: authenticated subject when present.
func subjectKey(c *gin.Context) string {
	if ident, ok := IdentityFrom(c); ok && ident.ID != "" {
		return "sub:" + ident.ID
	}
	if v, ok := c.Get(claimsKey); ok {
		if cm, ok2 := v.(map[string]interface{}); ok2 {
			if sub, ok3 := cm["sub"].(string); ok3 && sub != "" {
				return "sub:" + sub
			}
		}
	}
	return ""
}

// ClaimString returns a string claim from the verified token, or "".
func ClaimString(c *gin.Context, name string) string {
	v, ok := c.Get(claimsKey)
	if !ok {
		return ""
	}
	cm, _ := v.(map[string]interface{})
	s, _ := cm[name].(string)
	return s
}
