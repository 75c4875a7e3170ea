package oidc

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// mapToken exposes already-parsed JWT claims through middleware.Token.
type mapToken struct {
	claims jwt.MapClaims
}

func (t *mapToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
