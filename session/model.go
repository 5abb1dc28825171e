package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xxxsen/davgate/idp"
)

// Session is the cached authentication state of one user.
type Session struct {
	Username   string
	Token      *idp.Token
	Expiry     time.Time
	LastAccess time.Time
	digest     []byte
}

// ExpiryOf computes the absolute expiry of tk, the jwt exp claim is used when expires_in is missing.
func ExpiryOf(tk *idp.Token, now time.Time) time.Time {
	if tk.ExpiresIn > 0 {
		return now.Add(time.Duration(tk.ExpiresIn) * time.Second)
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tk.AccessToken, claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return now
}

type Identity struct {
	Username string
	Token    *idp.Token
}

type identityKeyType struct{}

var identityKey = identityKeyType{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func GetIdentity(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}
