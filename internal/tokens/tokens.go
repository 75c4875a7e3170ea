package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateIdentityToken creates a signed HS256 identity token carrying the
// same claims a provider ID token would (sub, name, email). Accepted by
// oidc.HMACVerifier in development and tests.
func GenerateIdentityToken(secret, sub, name, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   sub,
		"name":  name,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}
