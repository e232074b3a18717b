package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizcoach/referralhub/internal/model"
	"quizcoach/referralhub/internal/repository"
)

type Outcome string

const (
	OutcomeTracked        Outcome = "tracked"
	OutcomeAlreadyTracked Outcome = "already_tracked"
)

type AttributeInput struct {
	Code      string
	UserID    string
	IPAddress *string
	UserAgent *string
}

type AttributionResult struct {
	Outcome        Outcome
	ReferralLinkID uuid.UUID
	// SignupID is only set for OutcomeTracked.
	SignupID uuid.UUID
}

type AttributionOptions struct {
	// Transactional runs the ledger insert and the counter increment in one
	// transaction, closing the crash window between the two writes.
	Transactional bool
	// StrictMaxUses refuses the increment once current_uses reaches max_uses,
	// rolling the signup back. Requires Transactional.
	StrictMaxUses bool
	Now           func() time.Time
}

type AttributionService interface {
	Attribute(ctx context.Context, in AttributeInput) (*AttributionResult, error)
}

type attributionService struct {
	linkRepo   repository.ReferralLinkRepository
	signupRepo repository.SignupRepository
	tx         repository.Transactor
	cache      *StatsCache
	logger     *zap.Logger
	opts       AttributionOptions
}

func NewAttributionService(
	linkRepo repository.ReferralLinkRepository,
	signupRepo repository.SignupRepository,
	tx repository.Transactor,
	cache *StatsCache,
	logger *zap.Logger,
	opts AttributionOptions,
) (AttributionService, error) {
	if opts.StrictMaxUses && !opts.Transactional {
		return nil, errors.New("strict max uses requires transactional attribution")
	}
	if opts.Transactional && tx == nil {
		return nil, errors.New("transactional attribution requires a transactor")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &attributionService{
		linkRepo:   linkRepo,
		signupRepo: signupRepo,
		tx:         tx,
		cache:      cache,
		logger:     logger,
		opts:       opts,
	}, nil
}

// Attribute records that in.UserID signed up through in.Code. Repeating the
// call for the same user and code is harmless: the ledger's unique index
// rejects the second insert and the call reports OutcomeAlreadyTracked
// without touching the counter.
func (s *attributionService) Attribute(ctx context.Context, in AttributeInput) (*AttributionResult, error) {
	if in.Code == "" {
		return nil, fmt.Errorf("%w: referral code is required", ErrInvalidInput)
	}
	if in.UserID == "" {
		return nil, ErrUnauthenticated
	}

	link, err := s.linkRepo.GetByCode(ctx, in.Code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("%w: load referral link: %w", ErrStorage, err)
	}

	now := s.opts.Now()
	if err := checkRedeemable(link, now); err != nil {
		// A user attributed before the link closed is reported as such, so
		// retries after a committed signup stay idempotent.
		tracked, lookupErr := s.signupRepo.Exists(ctx, link.ID, in.UserID)
		if lookupErr != nil {
			return nil, fmt.Errorf("%w: look up signup: %w", ErrStorage, lookupErr)
		}
		if tracked {
			return &AttributionResult{Outcome: OutcomeAlreadyTracked, ReferralLinkID: link.ID}, nil
		}
		return nil, err
	}

	signup := &model.Signup{
		ReferralLinkID: link.ID,
		UserID:         in.UserID,
		IPAddress:      in.IPAddress,
		UserAgent:      in.UserAgent,
		SignupDate:     now.UTC(),
	}
	if s.opts.Transactional {
		err = s.recordInTx(ctx, link, signup)
	} else {
		err = s.record(ctx, link, signup)
	}

	switch {
	case errors.Is(err, repository.ErrDuplicate):
		s.logger.Debug("referral signup already tracked",
			zap.String("code", link.Code), zap.String("user_id", in.UserID))
		return &AttributionResult{Outcome: OutcomeAlreadyTracked, ReferralLinkID: link.ID}, nil
	case errors.Is(err, ErrLinkExhausted):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: record signup: %w", ErrStorage, err)
	}

	s.cache.Invalidate(ctx, link.ID)
	s.logger.Info("referral signup tracked",
		zap.String("code", link.Code),
		zap.String("user_id", in.UserID),
		zap.String("signup_id", signup.ID.String()))
	return &AttributionResult{
		Outcome:        OutcomeTracked,
		ReferralLinkID: link.ID,
		SignupID:       signup.ID,
	}, nil
}

// checkRedeemable applies the business rules to the link as read. The usage
// check sees a possibly stale counter, so max_uses is a soft ceiling unless
// strict mode re-checks it at write time.
func checkRedeemable(link *model.ReferralLink, now time.Time) error {
	if link.IsExpired(now) {
		return ErrLinkExpired
	}
	if !link.IsActive {
		return ErrLinkInactive
	}
	if link.IsExhausted() {
		return ErrLinkExhausted
	}
	return nil
}

// record inserts the ledger row and then bumps the counter as two separate
// statements. The ledger is the source of truth: if the increment fails
// the attribution still stands and the counter under-counts by one.
func (s *attributionService) record(ctx context.Context, link *model.ReferralLink, signup *model.Signup) error {
	if err := s.signupRepo.Create(ctx, signup); err != nil {
		return err
	}
	if err := s.linkRepo.IncrementUses(ctx, link.ID); err != nil {
		s.logger.Error("signup recorded but use counter not incremented",
			zap.String("referral_link_id", link.ID.String()),
			zap.String("signup_id", signup.ID.String()),
			zap.Error(err))
	}
	return nil
}

func (s *attributionService) recordInTx(ctx context.Context, link *model.ReferralLink, signup *model.Signup) error {
	return s.tx.WithinTransaction(ctx, func(links repository.ReferralLinkRepository, signups repository.SignupRepository) error {
		if err := signups.Create(ctx, signup); err != nil {
			return err
		}
		if !s.opts.StrictMaxUses {
			return links.IncrementUses(ctx, link.ID)
		}
		err := links.IncrementUsesBelowMax(ctx, link.ID)
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return ErrLinkExhausted
		}
		return err
	})
}

var _ AttributionService = (*attributionService)(nil)
