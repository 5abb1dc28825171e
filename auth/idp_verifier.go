package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/xxxsen/davgate/idp"
	"github.com/xxxsen/davgate/metrics"
)

type idpVerifier struct {
	cli idp.IClient
}

// NewIdPVerifier validates credentials with a password grant.
func NewIdPVerifier(cli idp.IClient) IVerifier {
	return &idpVerifier{cli: cli}
}

func (v *idpVerifier) Verify(ctx context.Context, username string, password string) (*idp.Token, error) {
	if len(username) == 0 || len(password) == 0 {
		return nil, fmt.Errorf("%w: empty username or password", ErrAuthenticationFailed)
	}
	tk, err := v.cli.PasswordGrant(ctx, username, password)
	if err != nil {
		if errors.Is(err, idp.ErrInvalidGrant) {
			metrics.RecordTokenExchange(idp.GrantTypePassword, metrics.ResultRejected)
			return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
		metrics.RecordTokenExchange(idp.GrantTypePassword, metrics.ResultError)
		return nil, fmt.Errorf("password grant failed, err:%w", err)
	}
	metrics.RecordTokenExchange(idp.GrantTypePassword, metrics.ResultSuccess)
	return tk, nil
}
