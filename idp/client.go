package idp

import "context"

// IClient exchanges credentials against the identity service token endpoint.
type IClient interface {
	PasswordGrant(ctx context.Context, username string, password string) (*Token, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*Token, error)
}
