package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"quizcoach/referralhub/internal/auth"
	"quizcoach/referralhub/internal/model"
	"quizcoach/referralhub/internal/repository"
	"quizcoach/referralhub/internal/testutil"
)

var (
	adminPrincipal = &auth.Principal{UserID: "admin-1"}
	userPrincipal  = &auth.Principal{UserID: "user-1"}
	fixedNow       = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	db      *gorm.DB
	links   repository.ReferralLinkRepository
	signups repository.SignupRepository
	tx      repository.Transactor
	roles   auth.RoleChecker
	logger  *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	return &fixture{
		db:      db,
		links:   repository.NewPGReferralLinkRepository(db),
		signups: repository.NewPGSignupRepository(db),
		tx:      repository.NewPGTransactor(db),
		roles:   auth.NewStaticRoleChecker(map[string][]string{auth.RoleAdmin: {adminPrincipal.UserID}}),
		logger:  zaptest.NewLogger(t),
	}
}

// seedLink stores a link directly, bypassing the admin service.
func (f *fixture) seedLink(t *testing.T, code string, mutate func(*model.ReferralLink)) *model.ReferralLink {
	t.Helper()
	link := &model.ReferralLink{
		Code:        code,
		Description: "seeded " + code,
		CreatedBy:   adminPrincipal.UserID,
		IsActive:    true,
	}
	if mutate != nil {
		mutate(link)
	}
	active := link.IsActive
	require.NoError(t, f.links.Create(context.Background(), link))
	// is_active has a column default, so a false value is only kept via an explicit update.
	if !active {
		require.NoError(t, f.links.Update(context.Background(), link.ID, map[string]any{"is_active": false}))
		link.IsActive = false
	}
	return link
}

func (f *fixture) reload(t *testing.T, link *model.ReferralLink) *model.ReferralLink {
	t.Helper()
	got, err := f.links.GetByID(context.Background(), link.ID)
	require.NoError(t, err)
	return got
}

func (f *fixture) countLinks(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.ReferralLink{}).Count(&n).Error)
	return n
}

func (f *fixture) countSignups(t *testing.T, link *model.ReferralLink) int64 {
	t.Helper()
	filter := repository.SignupFilter{}
	if link != nil {
		filter.ReferralLinkID = &link.ID
	}
	n, err := f.signups.Count(context.Background(), filter)
	require.NoError(t, err)
	return n
}

func (f *fixture) attribution(t *testing.T, opts AttributionOptions) AttributionService {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	svc, err := NewAttributionService(f.links, f.signups, f.tx, nil, f.logger, opts)
	require.NoError(t, err)
	return svc
}
