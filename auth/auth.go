package auth

import (
	"context"
	"errors"

	"github.com/xxxsen/davgate/idp"
)

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// IVerifier turns a username/password pair into a fresh token.
type IVerifier interface {
	Verify(ctx context.Context, username string, password string) (*idp.Token, error)
}
