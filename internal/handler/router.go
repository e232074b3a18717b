package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quizcoach/referralhub/internal/auth"
	"quizcoach/referralhub/internal/config"
	"quizcoach/referralhub/internal/handler/middleware"
	"quizcoach/referralhub/pkg/response"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	authn auth.Authenticator,
	roles auth.RoleChecker,
	referralHandler *ReferralHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	r.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Authenticate(authn))

	referrals := v1.Group("/referrals")
	{
		referrals.POST("/track", referralHandler.Track)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.RequireRole(roles, auth.RoleAdmin, logger))
	{
		links := admin.Group("/referral-links")
		links.POST("", adminHandler.CreateLink)
		links.GET("", adminHandler.ListLinks)
		links.POST("/suggest-code", adminHandler.SuggestCode)
		links.GET("/:id", adminHandler.GetLink)
		links.PATCH("/:id", adminHandler.UpdateLink)

		admin.GET("/referral-stats", adminHandler.GetStats)
		admin.POST("/referral-signups/convert", adminHandler.MarkConverted)
	}

	return r
}
