package handler

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizcoach/referralhub/internal/model"
	"quizcoach/referralhub/internal/service"
	"quizcoach/referralhub/pkg/response"
)

// AdminHandler serves the operator endpoints: link management, stats and
// conversion flagging.
type AdminHandler struct {
	links       service.LinkService
	stats       service.StatsService
	conversions service.ConversionService
	logger      *zap.Logger
}

func NewAdminHandler(links service.LinkService, stats service.StatsService, conversions service.ConversionService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		links:       links,
		stats:       stats,
		conversions: conversions,
		logger:      logger,
	}
}

type CreateReferralLinkRequest struct {
	Code        string         `json:"code"`
	Description string         `json:"description"`
	ExpiresAt   *time.Time     `json:"expires_at"`
	MaxUses     *int           `json:"max_uses"`
	Metadata    map[string]any `json:"metadata"`
}

type CreateReferralLinkResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	FullURL     string    `json:"full_url"`
	Description string    `json:"description"`
}

// UpdateReferralLinkRequest distinguishes an absent field from an explicit
// null: null on expires_at or max_uses removes the limit.
type UpdateReferralLinkRequest struct {
	Code        *string         `json:"code"`
	Description *string         `json:"description"`
	IsActive    *bool           `json:"is_active"`
	ExpiresAt   json.RawMessage `json:"expires_at"`
	MaxUses     json.RawMessage `json:"max_uses"`
	Metadata    map[string]any  `json:"metadata"`
}

type ReferralLinkView struct {
	*model.ReferralLink
	FullURL string `json:"full_url"`
}

type SuggestCodeRequest struct {
	Text string `json:"text"`
}

type ConvertSignupRequest struct {
	UserID string `json:"user_id"`
}

// CreateLink handles POST /api/v1/admin/referral-links.
func (h *AdminHandler) CreateLink(c *gin.Context) {
	var req CreateReferralLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	link, err := h.links.CreateLink(c.Request.Context(), principal(c), service.CreateLinkInput{
		Code:        req.Code,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
		MaxUses:     req.MaxUses,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	response.Created(c, CreateReferralLinkResponse{
		ID:          link.ID,
		Code:        link.Code,
		FullURL:     h.links.FullURL(link.Code),
		Description: link.Description,
	})
}

// UpdateLink handles PATCH /api/v1/admin/referral-links/:id.
func (h *AdminHandler) UpdateLink(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateReferralLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}
	if req.Code != nil {
		response.BadRequest(c, "code cannot be changed after creation")
		return
	}

	in := service.UpdateLinkInput{
		Description: req.Description,
		IsActive:    req.IsActive,
		Metadata:    req.Metadata,
	}
	var err error
	if in.ExpiresAt, in.ClearExpiresAt, err = decodeNullable[time.Time](req.ExpiresAt); err != nil {
		response.BadRequest(c, "expires_at must be an RFC 3339 timestamp or null")
		return
	}
	if in.MaxUses, in.ClearMaxUses, err = decodeNullable[int](req.MaxUses); err != nil {
		response.BadRequest(c, "max_uses must be an integer or null")
		return
	}

	link, err := h.links.UpdateLink(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Success(c, h.view(link))
}

// GetLink handles GET /api/v1/admin/referral-links/:id.
func (h *AdminHandler) GetLink(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	link, err := h.links.GetLink(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Success(c, h.view(link))
}

// ListLinks handles GET /api/v1/admin/referral-links.
func (h *AdminHandler) ListLinks(c *gin.Context) {
	links, err := h.links.ListLinks(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	views := make([]ReferralLinkView, 0, len(links))
	for i := range links {
		views = append(views, h.view(&links[i]))
	}
	response.Success(c, views)
}

// SuggestCode handles POST /api/v1/admin/referral-links/suggest-code.
func (h *AdminHandler) SuggestCode(c *gin.Context) {
	var req SuggestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}
	code := service.SuggestCode(req.Text)
	if code == "" {
		response.BadRequest(c, "text yields no usable code")
		return
	}
	response.Success(c, gin.H{"code": code})
}

// GetStats handles GET /api/v1/admin/referral-stats.
func (h *AdminHandler) GetStats(c *gin.Context) {
	var linkID *uuid.UUID
	if raw := c.Query("referral_link_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "referral_link_id must be a UUID")
			return
		}
		linkID = &id
	}

	stats, err := h.stats.GetStats(c.Request.Context(), principal(c), linkID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Success(c, stats)
}

// MarkConverted handles POST /api/v1/admin/referral-signups/convert.
func (h *AdminHandler) MarkConverted(c *gin.Context) {
	var req ConvertSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}
	n, err := h.conversions.MarkConverted(c.Request.Context(), principal(c), req.UserID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Success(c, gin.H{"converted": n})
}

func (h *AdminHandler) view(link *model.ReferralLink) ReferralLinkView {
	return ReferralLinkView{ReferralLink: link, FullURL: h.links.FullURL(link.Code)}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid referral link id")
		return uuid.Nil, false
	}
	return id, true
}

// decodeNullable reads an optional JSON field. Absent yields (nil, false),
// null yields (nil, true), anything else is decoded into T.
func decodeNullable[T any](raw json.RawMessage) (*T, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, err
	}
	return &v, false, nil
}
