package ports

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid api token")

// TokenAuthenticator resolves a bearer token to the account it belongs
// to. Authentication itself is an external concern; the engine only needs
// the payer identity behind the token.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (accountID string, err error)
}
