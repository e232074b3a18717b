// Package auth defines the identity collaborators the referral services
// depend on. Sessions are issued elsewhere; this package only resolves a
// bearer credential to a Principal and answers role questions about it.
package auth

import (
	"context"
	"errors"
)

const RoleAdmin = "admin"

var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is an already-resolved caller identity, passed explicitly to
// every service operation.
type Principal struct {
	UserID string
}

type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*Principal, error)
}

type RoleChecker interface {
	HasRole(ctx context.Context, userID string, role string) (bool, error)
}
