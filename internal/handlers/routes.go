package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	tokenHandler := TokenHandler{Issuer: deps.Issuer, Tokens: deps.Tokens, Verifier: deps.Verifier}
	videoHandler := VideoHandler{Issuer: deps.Issuer, Videos: deps.Videos, Storage: deps.Storage, Verifier: deps.Verifier}
	profileHandler := ProfileHandler{Profiles: deps.Profiles, Verifier: deps.Verifier}
	responseHandler := ResponseHandler{Responses: deps.Responses, Verifier: deps.Verifier}
	metricsHandler := MetricsHandler{Metrics: deps.Metrics, Verifier: deps.Verifier}
	notificationHandler := NotificationHandler{Notifications: deps.Notifications, Verifier: deps.Verifier}
	viewerHandler := ViewerHandler{
		Redeemer:     deps.Redeemer,
		Profiles:     deps.Profiles,
		Responses:    deps.Collector,
		Limiter:      deps.ViewerLimiter,
		OriginSecret: deps.OriginSecret,
	}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/tokens", tokenHandler.Handle)
	mux.HandleFunc("/api/v1/videos", videoHandler.Handle)
	mux.HandleFunc("/api/v1/videos/deactivate", videoHandler.Deactivate)
	mux.HandleFunc("/api/v1/profiles", profileHandler.Handle)
	mux.HandleFunc("/api/v1/responses", responseHandler.List)
	mux.HandleFunc("/api/v1/metrics", metricsHandler.Handle)
	mux.HandleFunc("/api/v1/notifications", notificationHandler.List)
	mux.HandleFunc("/api/v1/notifications/read", notificationHandler.MarkRead)
	mux.HandleFunc("/v/", viewerHandler.Handle)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Issuer        TokenIssuer
	Redeemer      TokenRedeemer
	Tokens        TokenDirectory
	Videos        VideoDirectory
	Profiles      ProfileService
	Collector     ResponseCollector
	Responses     ResponseDirectory
	Metrics       MetricsProvider
	Notifications NotificationStore
	Storage       AssetStorage
	Verifier      IdentityVerifier
	ViewerLimiter RateLimiter
	OriginSecret  []byte
}
