package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"quizcoach/referralhub/internal/model"
	"quizcoach/referralhub/internal/testutil"
)

func newLink(code string) *model.ReferralLink {
	return &model.ReferralLink{
		Code:        code,
		Description: "link " + code,
		CreatedBy:   "admin-1",
		IsActive:    true,
	}
}

func TestReferralLinkCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewPGReferralLinkRepository(testutil.NewDB(t))

	link := newLink("spring-promo")
	link.MaxUses = testutil.IntPtr(5)
	link.Metadata = map[string]any{"campaign": "spring"}
	require.NoError(t, repo.Create(ctx, link))
	require.NotEqual(t, uuid.Nil, link.ID)

	byCode, err := repo.GetByCode(ctx, "spring-promo")
	require.NoError(t, err)
	require.Equal(t, link.ID, byCode.ID)
	require.True(t, byCode.IsActive)
	require.Equal(t, 0, byCode.CurrentUses)
	require.Equal(t, 5, *byCode.MaxUses)
	require.Equal(t, "spring", byCode.Metadata["campaign"])

	byID, err := repo.GetByID(ctx, link.ID)
	require.NoError(t, err)
	require.Equal(t, "spring-promo", byID.Code)

	_, err = repo.GetByCode(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReferralLinkCreateDuplicateCode(t *testing.T) {
	ctx := context.Background()
	repo := NewPGReferralLinkRepository(testutil.NewDB(t))

	require.NoError(t, repo.Create(ctx, newLink("launch-50")))
	err := repo.Create(ctx, newLink("launch-50"))
	require.ErrorIs(t, err, ErrDuplicate)

	links, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
}

func TestReferralLinkUpdateWritesZeroValuesAndNulls(t *testing.T) {
	ctx := context.Background()
	repo := NewPGReferralLinkRepository(testutil.NewDB(t))

	link := newLink("creator-kit")
	link.MaxUses = testutil.IntPtr(10)
	require.NoError(t, repo.Create(ctx, link))

	require.NoError(t, repo.Update(ctx, link.ID, map[string]any{
		"is_active": false,
		"max_uses":  nil,
	}))

	got, err := repo.GetByID(ctx, link.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Nil(t, got.MaxUses)
	require.Equal(t, "creator-kit", got.Code)

	err = repo.Update(ctx, uuid.New(), map[string]any{"is_active": true})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReferralLinkIncrementUsesConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewPGReferralLinkRepository(testutil.NewDB(t))

	link := newLink("busy")
	require.NoError(t, repo.Create(ctx, link))

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.IncrementUses(ctx, link.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.GetByID(ctx, link.ID)
	require.NoError(t, err)
	require.Equal(t, n, got.CurrentUses)

	require.ErrorIs(t, repo.IncrementUses(ctx, uuid.New()), ErrNotFound)
}

func TestReferralLinkIncrementUsesBelowMax(t *testing.T) {
	ctx := context.Background()
	repo := NewPGReferralLinkRepository(testutil.NewDB(t))

	link := newLink("capped")
	link.MaxUses = testutil.IntPtr(2)
	require.NoError(t, repo.Create(ctx, link))

	require.NoError(t, repo.IncrementUsesBelowMax(ctx, link.ID))
	require.NoError(t, repo.IncrementUsesBelowMax(ctx, link.ID))
	require.ErrorIs(t, repo.IncrementUsesBelowMax(ctx, link.ID), ErrNoRowsAffected)

	got, err := repo.GetByID(ctx, link.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.CurrentUses)

	unlimited := newLink("open")
	require.NoError(t, repo.Create(ctx, unlimited))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementUsesBelowMax(ctx, unlimited.ID))
	}
}

func TestReferralLinkTopByUses(t *testing.T) {
	ctx := context.Background()
	repo := NewPGReferralLinkRepository(testutil.NewDB(t))

	for _, c := range []struct {
		code string
		uses int
	}{{"low", 1}, {"high", 7}, {"mid", 3}} {
		link := newLink(c.code)
		require.NoError(t, repo.Create(ctx, link))
		for i := 0; i < c.uses; i++ {
			require.NoError(t, repo.IncrementUses(ctx, link.ID))
		}
	}

	top, err := repo.TopByUses(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "high", top[0].Code)
	require.Equal(t, "mid", top[1].Code)
}
