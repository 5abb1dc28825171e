package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
	"github.com/xxxsen/davgate/auth"
	"github.com/xxxsen/davgate/session"
)

const (
	KeyUsername = "davgate.username"
)

// MustAuthMiddleware resolves the basic credential into a session token, requests failing it never reach a handler.
func MustAuthMiddleware(store *session.Store, realm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cred, err := auth.ParseBasic(c)
		if err != nil {
			auth.Challenge(c, realm)
			proxyutil.FailStatus(c, http.StatusUnauthorized, err)
			return
		}
		tk, err := store.Resolve(ctx, cred.Username, cred.Password)
		if err != nil {
			if errors.Is(err, auth.ErrAuthenticationFailed) {
				auth.Challenge(c, realm)
				proxyutil.FailStatus(c, http.StatusUnauthorized, fmt.Errorf("auth user failed, user:%s, err:%w", cred.Username, err))
				return
			}
			proxyutil.FailStatus(c, http.StatusInternalServerError, fmt.Errorf("resolve session failed, user:%s, err:%w", cred.Username, err))
			return
		}
		c.Set(KeyUsername, cred.Username)
		ctx = session.WithIdentity(ctx, &session.Identity{
			Username: cred.Username,
			Token:    tk,
		})
		c.Request = c.Request.WithContext(ctx)
	}
}
