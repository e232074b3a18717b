package service

import (
	"errors"

	"quizcoach/referralhub/internal/auth"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = auth.ErrUnauthenticated
	ErrUnauthorized    = errors.New("admin role required")
	ErrLinkNotFound    = errors.New("referral link not found")
	ErrLinkInactive    = errors.New("referral link is inactive")
	ErrLinkExpired     = errors.New("referral link has expired")
	ErrLinkExhausted   = errors.New("referral link has reached its usage limit")
	ErrDuplicateCode   = errors.New("referral code already exists")
	// ErrStorage marks transient store failures. Attribution is idempotent,
	// so callers may retry any operation that fails with it.
	ErrStorage = errors.New("storage unavailable")
)
