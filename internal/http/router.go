// Package httpapi wires the HTTP transport (Gin) to the application
// services, middleware, and route handlers. It centralizes the cross-cutting
// concerns: tracing, correlation IDs, logging with redaction, panic
// recovery, compression, metrics, idempotency, rate limiting, CORS, security
// headers and the per-group response cache.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/petabencana/sitioss-server/docs"
	"github.com/petabencana/sitioss-server/internal/cache"
	"github.com/petabencana/sitioss-server/internal/config"
	"github.com/petabencana/sitioss-server/internal/http/handlers"
	"github.com/petabencana/sitioss-server/internal/http/middleware"
	"github.com/petabencana/sitioss-server/internal/repo"
	"github.com/petabencana/sitioss-server/internal/services"
	"github.com/petabencana/sitioss-server/internal/validation"
)

// Deps are the collaborators built by the caller. Cache, Notifier and
// Images may be nil; the features they back are then disabled.
type Deps struct {
	DB       *gorm.DB
	Store    *repo.Store
	Cache    *cache.Cache
	Notifier services.Notifier
	Images   services.ImageSigner
}

// Services builds the application services from cfg and d.
func Services(cfg config.Config, d Deps) (*services.IntakeService, *services.AreaService, *services.ReportService) {
	policy := validation.DefaultPolicy()
	if len(cfg.DisasterTypes) > 0 {
		policy.DisasterTypes = cfg.DisasterTypes
	}
	if len(cfg.ReportTypes) > 0 {
		policy.ReportTypes = cfg.ReportTypes
	}
	if len(cfg.DamageComponents) > 0 {
		policy.DamageComponents = cfg.DamageComponents
	}

	intake := services.NewIntakeService(d.DB, d.Store, policy)
	if w, found := cfg.Reports.Windows["flood"]; found && w > 0 {
		intake.FloodWindow = w
	}
	if len(cfg.Images.MimeTypes) > 0 {
		intake.MimeTypes = cfg.Images.MimeTypes
	}
	if cfg.IdempotencyTTL > 0 {
		intake.IdempotencyTTL = cfg.IdempotencyTTL
	}
	intake.ImagesHost = cfg.Images.Host
	intake.Notifier = d.Notifier
	intake.Images = d.Images

	areas := services.NewAreaService(d.DB, d.Store, cfg.RegionCodes)

	reports := services.NewReportService(d.DB, d.Store)
	if len(cfg.Reports.Windows) > 0 {
		reports.Windows = repo.Windows(cfg.Reports.Windows)
	}
	if cfg.Reports.WindowMax > 0 {
		reports.WindowMax = cfg.Reports.WindowMax
	}
	reports.Limit = cfg.Reports.Limit
	reports.Regions = cfg.RegionCodes
	reports.DisasterTypes = policy.DisasterTypes

	if d.Cache != nil {
		intake.Cache = d.Cache
		areas.Cache = d.Cache
	}
	return intake, areas, reports
}

// RegisterRoutes attaches all middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. gzip (when enabled)
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per principal/IP, bypass on replay)
//  10. CORS and security headers
func RegisterRoutes(r *gin.Engine, cfg config.Config, d Deps) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Api-Key"},
	}))
	r.Use(middleware.Recovery())

	limit := cfg.BodyLimit
	if limit <= 0 {
		limit = 1 << 20
	}
	r.Use(limitBody(limit))

	if cfg.Compress {
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	}

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, principal, cardID, key string, now time.Time) (bool, error) {
			rec, err := d.Store.GetIdempotency(ctx, d.DB, principal, cardID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.PrincipalKey)
	r.Use(rl.Handler())

	useCORS(r, cfg.CORS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", health(d.DB))

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	intake, areas, reports := Services(cfg, d)
	h := handlers.New(intake, areas, reports)

	// Responses are cached only when CACHE is on.
	var store *cache.Cache
	if cfg.Cache.Enabled {
		store = d.Cache
	}
	cached := func(group string, ttl time.Duration) gin.HandlerFunc {
		return middleware.ResponseCache(store, group, ttl)
	}
	authOpts := middleware.AuthOptions{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	}
	auth := middleware.RequirePrincipal(authOpts)
	if !authOpts.Enabled() {
		log.Warn().Msg("AUTH_SECRET is empty; flood-state and report writes are unauthenticated")
	}

	api := groupWithPrefix(r, cfg.APIBasePath)

	cards := api.Group("/cards")
	{
		cardsCache := cached(cache.GroupCards, cfg.Cache.Cards)
		cards.POST("", h.CreateCard)
		cards.GET("/expiredcards", h.ExpiredCards)
		cards.HEAD("/:cardId", cardsCache, h.CardExists)
		cards.GET("/:cardId", cardsCache, h.GetCard)
		cards.PUT("/:cardId", h.SubmitReport)
		cards.PATCH("/:cardId", h.AttachImage)
		cards.GET("/:cardId/images", h.ImageUpload)
	}

	floods := api.Group("/floods")
	{
		statesCache := cached(cache.GroupFloodsStates, cfg.Cache.FloodsStates)
		floods.GET("", cached(cache.GroupFloods, cfg.Cache.Floods), h.ListFloods)
		floods.GET("/states", statesCache, h.ListStates)
		floods.GET("/places", statesCache, h.ListPlaces)
		floods.PUT("/:localAreaId", auth, h.SetState)
		floods.DELETE("/:localAreaId", auth, h.ClearState)
		floods.GET("/:localAreaId/log", auth, h.StateLog)
	}

	reportsGroup := api.Group("/reports")
	{
		reportsGroup.GET("", h.ListReports)
		reportsGroup.GET("/expired", h.ExpiredReports)
		reportsGroup.GET("/archive", h.ArchiveReports)
		reportsGroup.GET("/:id", h.GetReport)
		reportsGroup.PATCH("/:id", auth, h.VoteReport)
		reportsGroup.PATCH("/:id/flag", auth, h.FlagReport)
	}
}

// useCORS installs gin-contrib/cors. Without an allowlist every origin is
// allowed and ACAO is "*" even on requests without an Origin header.
func useCORS(r *gin.Engine, cfg config.CORSConfig) {
	expose := append([]string{"X-Request-ID", "Content-Length", "ETag", handlers.HeaderReplayed}, cfg.ExposeHeaders...)
	cc := cors.Config{
		AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    expose,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(cc))
}

// health pings the database.
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			lg := middleware.LoggerFrom(c)
			lg.Warn().Err(err).Msg("health check failed")
			handlers.Fail(c, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader. Reads past the cap fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
