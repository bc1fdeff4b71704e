package http

import (
	"log/slog"

	"github.com/JadeHendricks/mern-devconnector/internal/config"
	"github.com/JadeHendricks/mern-devconnector/internal/http/handlers"
	"github.com/JadeHendricks/mern-devconnector/internal/http/middlewares"
	"github.com/JadeHendricks/mern-devconnector/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// AuthService issues and verifies tokens.
type AuthService interface {
	handlers.Authenticator
	middlewares.TokenVerifier
}

// Services is everything the router mounts. Prom and Gatherer may be nil, in
// which case metrics are neither recorded nor exposed.
type Services struct {
	Auth     AuthService
	Profiles handlers.ProfileManager
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   map[string]handlers.Check
}

func NewRouter(cfg config.Config, log *slog.Logger, svc Services) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if cfg.Telemetry.Enabled {
		r.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	if svc.Prom != nil {
		r.Use(svc.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders(cfg.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(cfg.HTTP.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.HTTP.MaxBodyBytes))

	// operational routes
	health := handlers.NewHealthHandler(svc.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if svc.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{})))
	}
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)
	r.GET("/swagger", handlers.SwaggerUI)

	authMW := middlewares.NewAuthMiddleware(svc.Auth)
	requireAuth := authMW.RequireAuth()

	limiter := middlewares.NewRateLimiter(cfg.HTTP.AuthRateLimit, cfg.HTTP.AuthRateWindow)
	limit := limiter.RateLimiterMiddleware(middlewares.KeyByIP)

	authHandler := handlers.NewAuthHandler(svc.Auth)
	profileHandler := handlers.NewProfileHandler(svc.Profiles)

	api := r.Group("/api")
	api.Use(middlewares.RequireJSON())
	{
		api.POST("/users", limit, authHandler.Register)
		api.POST("/auth", limit, authHandler.Login)
		api.GET("/auth", requireAuth, authHandler.Me)

		profiles := api.Group("/profile")
		profiles.GET("", profileHandler.List)
		profiles.GET("/me", requireAuth, profileHandler.Me)
		profiles.GET("/user/:user_id", profileHandler.GetByUser)
		profiles.GET("/github/:username", profileHandler.GitHubRepos)

		profiles.POST("", requireAuth, profileHandler.Upsert)
		profiles.DELETE("", requireAuth, profileHandler.Delete)
		profiles.PUT("/experience", requireAuth, profileHandler.AddExperience)
		profiles.DELETE("/experience/:exp_id", requireAuth, profileHandler.RemoveExperience)
		profiles.PUT("/education", requireAuth, profileHandler.AddEducation)
		profiles.DELETE("/education/:edu_id", requireAuth, profileHandler.RemoveEducation)
	}

	log.Debug("routes mounted", "count", len(r.Routes()))

	return r
}
