package auth

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultRealm = "davgate"
)

type Credential struct {
	Username string
	Password string
}

func IsBasicAuth(ctx *gin.Context) bool {
	auth := ctx.GetHeader("Authorization")
	return strings.HasPrefix(auth, "Basic ")
}

// ParseBasic extracts the basic credential of the request.
func ParseBasic(ctx *gin.Context) (*Credential, error) {
	if !IsBasicAuth(ctx) {
		return nil, fmt.Errorf("%w: no basic auth found", ErrAuthenticationFailed)
	}
	uak, usk, ok := ctx.Request.BasicAuth()
	if !ok {
		return nil, fmt.Errorf("%w: malformed basic auth", ErrAuthenticationFailed)
	}
	if len(uak) == 0 || len(usk) == 0 {
		return nil, fmt.Errorf("%w: empty username or password", ErrAuthenticationFailed)
	}
	return &Credential{Username: uak, Password: usk}, nil
}

// Challenge asks the client for basic credentials.
func Challenge(ctx *gin.Context, realm string) {
	if len(realm) == 0 {
		realm = defaultRealm
	}
	ctx.Header("WWW-Authenticate", fmt.Sprintf(`Basic realm="%s"`, realm))
}
