package auth

import (
	"context"
	"fmt"

	jwtpkg "quizcoach/referralhub/pkg/jwt"
)

type jwtAuthenticator struct {
	manager *jwtpkg.Manager
}

func NewJWTAuthenticator(manager *jwtpkg.Manager) Authenticator {
	return &jwtAuthenticator{manager: manager}
}

func (a *jwtAuthenticator) Authenticate(_ context.Context, credential string) (*Principal, error) {
	if credential == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := a.manager.Validate(credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return &Principal{UserID: claims.Subject}, nil
}
