package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quizcoach/referralhub/internal/service"
	"quizcoach/referralhub/pkg/response"
)

type ReferralHandler struct {
	attribution service.AttributionService
	logger      *zap.Logger
}

func NewReferralHandler(attribution service.AttributionService, logger *zap.Logger) *ReferralHandler {
	return &ReferralHandler{attribution: attribution, logger: logger}
}

type TrackReferralRequest struct {
	ReferralCode string  `json:"referral_code"`
	IPAddress    *string `json:"ip_address"`
	UserAgent    *string `json:"user_agent"`
}

type TrackReferralResponse struct {
	Success  bool   `json:"success"`
	SignupID string `json:"signup_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Track handles POST /api/v1/referrals/track.
// The signed-up user is the authenticated caller, never a body field.
func (h *ReferralHandler) Track(c *gin.Context) {
	var req TrackReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	p := principal(c)
	if p == nil {
		response.Unauthorized(c, "authentication required")
		return
	}

	in := service.AttributeInput{
		Code:      req.ReferralCode,
		UserID:    p.UserID,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	}
	if in.IPAddress == nil {
		if ip := c.ClientIP(); ip != "" {
			in.IPAddress = &ip
		}
	}
	if in.UserAgent == nil {
		if ua := c.Request.UserAgent(); ua != "" {
			in.UserAgent = &ua
		}
	}

	result, err := h.attribution.Attribute(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if result.Outcome == service.OutcomeAlreadyTracked {
		response.Success(c, TrackReferralResponse{Success: true, Message: "already tracked"})
		return
	}
	response.Success(c, TrackReferralResponse{Success: true, SignupID: result.SignupID.String()})
}
