package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	jwtpkg "quizcoach/referralhub/pkg/jwt"
)

func TestJWTAuthenticator(t *testing.T) {
	ctx := context.Background()
	manager := jwtpkg.NewManager("secret", "referralhub", time.Minute)
	authn := NewJWTAuthenticator(manager)

	token, err := manager.GenerateAccessToken("user-7")
	require.NoError(t, err)

	p, err := authn.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "user-7", p.UserID)

	_, err = authn.Authenticate(ctx, "")
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = authn.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestStaticRoleChecker(t *testing.T) {
	ctx := context.Background()
	rc := NewStaticRoleChecker(map[string][]string{RoleAdmin: {"admin-1"}})

	ok, err := rc.HasRole(ctx, "admin-1", RoleAdmin)
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = rc.HasRole(ctx, "user-1", RoleAdmin)
	require.False(t, ok)
	ok, _ = rc.HasRole(ctx, "admin-1", "billing")
	require.False(t, ok)
}
