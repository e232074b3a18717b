package service

import (
	"context"
	"fmt"

	"quizcoach/referralhub/internal/auth"
)

func requireRole(ctx context.Context, roles auth.RoleChecker, p *auth.Principal, role string) error {
	if p == nil || p.UserID == "" {
		return ErrUnauthenticated
	}
	ok, err := roles.HasRole(ctx, p.UserID, role)
	if err != nil {
		return fmt.Errorf("%w: role lookup: %w", ErrStorage, err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
