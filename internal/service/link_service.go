package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"quizcoach/referralhub/internal/auth"
	"quizcoach/referralhub/internal/model"
	"quizcoach/referralhub/internal/repository"
)

type CreateLinkInput struct {
	Code        string
	Description string
	ExpiresAt   *time.Time
	MaxUses     *int
	Metadata    map[string]any
}

// UpdateLinkInput holds a partial update; nil fields are left untouched.
// The Clear flags reset an optional limit to "none".
type UpdateLinkInput struct {
	Description    *string
	IsActive       *bool
	ExpiresAt      *time.Time
	ClearExpiresAt bool
	MaxUses        *int
	ClearMaxUses   bool
	Metadata       map[string]any
}

type LinkService interface {
	CreateLink(ctx context.Context, p *auth.Principal, in CreateLinkInput) (*model.ReferralLink, error)
	UpdateLink(ctx context.Context, p *auth.Principal, id uuid.UUID, in UpdateLinkInput) (*model.ReferralLink, error)
	GetLink(ctx context.Context, p *auth.Principal, id uuid.UUID) (*model.ReferralLink, error)
	ListLinks(ctx context.Context, p *auth.Principal) ([]model.ReferralLink, error)
	// FullURL returns the redemption address shared with end users.
	FullURL(code string) string
}

type linkService struct {
	linkRepo repository.ReferralLinkRepository
	roles    auth.RoleChecker
	origin   string
}

func NewLinkService(linkRepo repository.ReferralLinkRepository, roles auth.RoleChecker, origin string) LinkService {
	return &linkService{
		linkRepo: linkRepo,
		roles:    roles,
		origin:   origin,
	}
}

func (s *linkService) CreateLink(ctx context.Context, p *auth.Principal, in CreateLinkInput) (*model.ReferralLink, error) {
	if err := requireRole(ctx, s.roles, p, auth.RoleAdmin); err != nil {
		return nil, err
	}

	if in.Code == "" || strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: code and description are required", ErrInvalidInput)
	}
	if err := ValidateCode(in.Code); err != nil {
		return nil, err
	}
	if in.MaxUses != nil && *in.MaxUses <= 0 {
		return nil, fmt.Errorf("%w: max_uses must be positive", ErrInvalidInput)
	}

	link := &model.ReferralLink{
		Code:        in.Code,
		Description: in.Description,
		CreatedBy:   p.UserID,
		IsActive:    true,
		ExpiresAt:   in.ExpiresAt,
		MaxUses:     in.MaxUses,
		CurrentUses: 0,
		Metadata:    in.Metadata,
	}
	// No existence pre-check: two admins racing on one code are settled by
	// the unique index.
	if err := s.linkRepo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("%w: create referral link: %w", ErrStorage, err)
	}
	return link, nil
}

func (s *linkService) UpdateLink(ctx context.Context, p *auth.Principal, id uuid.UUID, in UpdateLinkInput) (*model.ReferralLink, error) {
	if err := requireRole(ctx, s.roles, p, auth.RoleAdmin); err != nil {
		return nil, err
	}

	link, err := s.getLink(ctx, id)
	if err != nil {
		return nil, err
	}

	fields, err := updateFields(link, in)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return link, nil
	}

	if err := s.linkRepo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("%w: update referral link: %w", ErrStorage, err)
	}
	return s.getLink(ctx, id)
}

// updateFields validates in against the stored link and builds the column map.
func updateFields(link *model.ReferralLink, in UpdateLinkInput) (map[string]any, error) {
	fields := make(map[string]any)

	if in.Description != nil {
		if strings.TrimSpace(*in.Description) == "" {
			return nil, fmt.Errorf("%w: description must not be empty", ErrInvalidInput)
		}
		fields["description"] = *in.Description
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}

	switch {
	case in.ClearExpiresAt && in.ExpiresAt != nil:
		return nil, fmt.Errorf("%w: expires_at cannot be both set and cleared", ErrInvalidInput)
	case in.ClearExpiresAt:
		fields["expires_at"] = nil
	case in.ExpiresAt != nil:
		fields["expires_at"] = *in.ExpiresAt
	}

	switch {
	case in.ClearMaxUses && in.MaxUses != nil:
		return nil, fmt.Errorf("%w: max_uses cannot be both set and cleared", ErrInvalidInput)
	case in.ClearMaxUses:
		fields["max_uses"] = nil
	case in.MaxUses != nil:
		if *in.MaxUses <= 0 {
			return nil, fmt.Errorf("%w: max_uses must be positive", ErrInvalidInput)
		}
		if *in.MaxUses < link.CurrentUses {
			return nil, fmt.Errorf("%w: max_uses is below the %d uses already recorded", ErrInvalidInput, link.CurrentUses)
		}
		fields["max_uses"] = *in.MaxUses
	}

	if in.Metadata != nil {
		fields["metadata"] = datatypes.JSONMap(in.Metadata)
	}
	return fields, nil
}

func (s *linkService) GetLink(ctx context.Context, p *auth.Principal, id uuid.UUID) (*model.ReferralLink, error) {
	if err := requireRole(ctx, s.roles, p, auth.RoleAdmin); err != nil {
		return nil, err
	}
	return s.getLink(ctx, id)
}

func (s *linkService) ListLinks(ctx context.Context, p *auth.Principal) ([]model.ReferralLink, error) {
	if err := requireRole(ctx, s.roles, p, auth.RoleAdmin); err != nil {
		return nil, err
	}
	links, err := s.linkRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list referral links: %w", ErrStorage, err)
	}
	return links, nil
}

func (s *linkService) FullURL(code string) string {
	return s.origin + "?ref=" + code
}

func (s *linkService) getLink(ctx context.Context, id uuid.UUID) (*model.ReferralLink, error) {
	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("%w: load referral link: %w", ErrStorage, err)
	}
	return link, nil
}

var _ LinkService = (*linkService)(nil)
