package user

import (
	"context"

	"syncchat/tools/errs"
	toolsec "syncchat/tools/security"
)

// Authenticator verifies session tokens for the websocket gateway.
// Stateless: the token alone carries the identity, no store round-trip
// on the connect path.
type Authenticator struct {
	opts toolsec.Options
}

func NewAuthenticator(opts toolsec.Options) *Authenticator {
	return &Authenticator{opts: opts}
}

func (a *Authenticator) Verify(_ context.Context, token string) (string, error) {
	claims, err := toolsec.Verify(a.opts, token)
	if err != nil {
		return "", errs.ErrUnauthenticated.WithDetail(err.Error())
	}
	return claims.UserID, nil
}
