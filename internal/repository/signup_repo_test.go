package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"quizcoach/referralhub/internal/model"
	"quizcoach/referralhub/internal/testutil"
)

func TestSignupUniquePerLinkAndUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	links := NewPGReferralLinkRepository(db)
	signups := NewPGSignupRepository(db)

	a, b := newLink("link-a"), newLink("link-b")
	require.NoError(t, links.Create(ctx, a))
	require.NoError(t, links.Create(ctx, b))

	require.NoError(t, signups.Create(ctx, &model.Signup{ReferralLinkID: a.ID, UserID: "user-1"}))
	err := signups.Create(ctx, &model.Signup{ReferralLinkID: a.ID, UserID: "user-1"})
	require.ErrorIs(t, err, ErrDuplicate)

	// The same user may still be attributed to a different link.
	require.NoError(t, signups.Create(ctx, &model.Signup{ReferralLinkID: b.ID, UserID: "user-1"}))

	n, err := signups.Count(ctx, SignupFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	n, err = signups.Count(ctx, SignupFilter{ReferralLinkID: &a.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestSignupMarkConvertedAndCounts(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	links := NewPGReferralLinkRepository(db)
	signups := NewPGSignupRepository(db)

	a, b := newLink("link-a"), newLink("link-b")
	require.NoError(t, links.Create(ctx, a))
	require.NoError(t, links.Create(ctx, b))
	require.NoError(t, signups.Create(ctx, &model.Signup{ReferralLinkID: a.ID, UserID: "payer"}))
	require.NoError(t, signups.Create(ctx, &model.Signup{ReferralLinkID: b.ID, UserID: "payer"}))
	require.NoError(t, signups.Create(ctx, &model.Signup{ReferralLinkID: a.ID, UserID: "free"}))

	changed, err := signups.MarkConverted(ctx, "payer")
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, changed)

	changed, err = signups.MarkConverted(ctx, "payer")
	require.NoError(t, err)
	require.Empty(t, changed)

	n, err := signups.Count(ctx, SignupFilter{ConvertedOnly: true})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	n, err = signups.Count(ctx, SignupFilter{ReferralLinkID: &a.ID, ConvertedOnly: true})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestSignupRollup(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	links := NewPGReferralLinkRepository(db)
	signups := NewPGSignupRepository(db)

	a, b := newLink("dated"), newLink("other")
	require.NoError(t, links.Create(ctx, a))
	require.NoError(t, links.Create(ctx, b))

	plus9 := time.FixedZone("JST", 9*60*60)
	day1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)
	// 2026-03-02 08:15 in +09:00 is still 2026-03-01 in UTC.
	lateDay1 := time.Date(2026, 3, 2, 8, 15, 0, 0, plus9)
	require.NoError(t, signups.Create(ctx, &model.Signup{ReferralLinkID: a.ID, UserID: "u2", SignupDate: day2}))
	require.NoError(t, signups.Create(ctx, &model.Signup{ReferralLinkID: a.ID, UserID: "u1", SignupDate: day1}))
	require.NoError(t, signups.Create(ctx, &model.Signup{ReferralLinkID: a.ID, UserID: "u3", SignupDate: lateDay1}))
	require.NoError(t, signups.Create(ctx, &model.Signup{ReferralLinkID: b.ID, UserID: "u1", SignupDate: day2}))
	_, err := signups.MarkConverted(ctx, "u3")
	require.NoError(t, err)

	rollup, err := signups.Rollup(ctx, SignupFilter{ReferralLinkID: &a.ID, ConvertedOnly: true})
	require.NoError(t, err)
	require.EqualValues(t, 3, rollup.Total)
	require.EqualValues(t, 1, rollup.Converted)
	require.Equal(t, []DailyCount{{Day: "2026-03-01", Count: 2}, {Day: "2026-03-02", Count: 1}}, rollup.Daily)

	all, err := signups.Rollup(ctx, SignupFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 4, all.Total)
	require.Equal(t, []DailyCount{{Day: "2026-03-01", Count: 2}, {Day: "2026-03-02", Count: 2}}, all.Daily)

	missing := uuid.New()
	empty, err := signups.Rollup(ctx, SignupFilter{ReferralLinkID: &missing})
	require.NoError(t, err)
	require.Zero(t, empty.Total)
	require.NotNil(t, empty.Daily)
	require.Empty(t, empty.Daily)
}

func TestSignupExists(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	links := NewPGReferralLinkRepository(db)
	signups := NewPGSignupRepository(db)

	a, b := newLink("link-a"), newLink("link-b")
	require.NoError(t, links.Create(ctx, a))
	require.NoError(t, links.Create(ctx, b))
	require.NoError(t, signups.Create(ctx, &model.Signup{ReferralLinkID: a.ID, UserID: "user-1"}))

	ok, err := signups.Exists(ctx, a.ID, "user-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = signups.Exists(ctx, b.ID, "user-1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = signups.Exists(ctx, a.ID, "user-2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSignupStoresUnboundedProvenance(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	links := NewPGReferralLinkRepository(db)
	signups := NewPGSignupRepository(db)

	link := newLink("long")
	require.NoError(t, links.Create(ctx, link))

	ip := strings.Repeat("f", 200)
	userID := strings.Repeat("u", 300)
	require.NoError(t, signups.Create(ctx, &model.Signup{ReferralLinkID: link.ID, UserID: userID, IPAddress: &ip}))

	var got model.Signup
	require.NoError(t, db.First(&got, "user_id = ?", userID).Error)
	require.Equal(t, ip, *got.IPAddress)

	// Client-supplied columns carry no length limit in the schema.
	for _, tc := range []struct {
		table  any
		column string
	}{
		{&model.Signup{}, "ip_address"},
		{&model.Signup{}, "user_id"},
		{&model.Signup{}, "user_agent"},
		{&model.ReferralLink{}, "created_by"},
	} {
		columns, err := db.Migrator().ColumnTypes(tc.table)
		require.NoError(t, err)
		found := false
		for _, c := range columns {
			if c.Name() == tc.column {
				found = true
				require.True(t, strings.EqualFold("text", c.DatabaseTypeName()), "%s is %s", tc.column, c.DatabaseTypeName())
			}
		}
		require.True(t, found, tc.column)
	}
}

func TestTransactorRollsBack(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	links := NewPGReferralLinkRepository(db)
	signups := NewPGSignupRepository(db)
	tx := NewPGTransactor(db)

	link := newLink("tx")
	require.NoError(t, links.Create(ctx, link))

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(l ReferralLinkRepository, s SignupRepository) error {
		if err := s.Create(ctx, &model.Signup{ReferralLinkID: link.ID, UserID: "u"}); err != nil {
			return err
		}
		if err := l.IncrementUses(ctx, link.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := signups.Count(ctx, SignupFilter{})
	require.NoError(t, err)
	require.Zero(t, n)
	got, err := links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	require.Zero(t, got.CurrentUses)
}
