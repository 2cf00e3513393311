package app

import (
	"time"

	"github.com/oneglance/backend/internal/config"
	"github.com/oneglance/backend/internal/db"
	"github.com/oneglance/backend/internal/handlers"
	"github.com/oneglance/backend/internal/identity"
	"github.com/oneglance/backend/internal/metrics"
	"github.com/oneglance/backend/internal/middleware"
	"github.com/oneglance/backend/internal/profiles"
	"github.com/oneglance/backend/internal/repositories"
	"github.com/oneglance/backend/internal/responses"
	"github.com/oneglance/backend/internal/tokens"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, cfg config.Config, assets handlers.AssetStorage) handlers.Dependencies {
	profileRepo := repositories.NewPostgresProfileRepository(pool)
	videoRepo := repositories.NewPostgresVideoRepository(pool)
	tokenRepo := repositories.NewPostgresVideoTokenRepository(pool)
	responseRepo := repositories.NewPostgresResponseRepository(pool)
	activityRepo := repositories.NewPostgresActivityRepository(pool)
	notificationRepo := repositories.NewPostgresNotificationRepository(pool)
	metricsRepo := repositories.NewPostgresMetricsRepository(pool)

	dispatcher := responses.NewDispatcher(notificationRepo)

	return handlers.Dependencies{
		Issuer:        tokens.NewIssuer(tokenRepo, videoRepo, cfg.TokenDaysValidDefault, cfg.TokenDaysValidMax),
		Redeemer:      tokens.NewRedeemer(tokenRepo),
		Tokens:        tokenRepo,
		Videos:        videoRepo,
		Profiles:      profiles.NewService(profileRepo, videoRepo, activityRepo),
		Collector:     responses.NewCollector(responseRepo, tokenRepo, profileRepo, dispatcher),
		Responses:     responseRepo,
		Metrics:       metrics.NewAggregator(metricsRepo),
		Notifications: notificationRepo,
		Storage:       assets,
		Verifier:      identity.NewVerifier(cfg.AuthSecret),
		ViewerLimiter: middleware.NewIPRateLimiter(cfg.ViewerRateRequests, cfg.ViewerRateWindow, cfg.ViewerRateBurst, 10*time.Minute),
		OriginSecret:  []byte(cfg.OriginHashSecret),
	}
}
