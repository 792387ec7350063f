package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"photogo/internal/config"
	"photogo/internal/domain"
	"photogo/internal/integrations/storefront"
	"photogo/internal/middleware"
	"photogo/internal/modules/availability"
	"photogo/internal/modules/voucher"
	"photogo/internal/modules/wizard"
	jwtsvc "photogo/internal/pkg/jwt"
	"photogo/internal/pkg/metrics"
	"photogo/internal/repository"
)

type app struct {
	router  *gin.Engine
	store   *wizard.Store
	metrics *metrics.Metrics
}

// newApp wires the wizard behind the HTTP router. reg may be nil when
// metrics are disabled.
func newApp(cfg *config.Config, lg *zap.Logger, reg *prometheus.Registry, customers repository.CustomerInfoRepository) *app {
	var m *metrics.Metrics
	if cfg.MetricsEnabled && reg != nil {
		m = metrics.New(reg)
	}

	sf := storefront.NewClient(cfg.StorefrontBaseURL, cfg.StorefrontTimeout,
		storefront.WithAPIKey(cfg.StorefrontAPIKey),
		storefront.WithLogger(lg.Named("storefront")),
		storefront.WithObserver(m),
	)

	resolver := availability.NewResolver(sf, lg.Named("availability"))
	vouchers := voucher.NewService(sf, cfg.Location(), lg.Named("voucher"))
	store := wizard.NewStore(cfg.WizardTTL, wizard.RealTimeProvider{})

	wizardService := wizard.NewService(wizard.Deps{
		Catalog:   sf,
		Bookings:  sf,
		Vouchers:  vouchers,
		Customers: customers,
		NewTracker: func(locationID string) wizard.SlotTracker {
			return availability.NewTracker(resolver, locationID, lg.Named("availability"))
		},
		Store:          store,
		Observer:       m,
		DefaultDeposit: domain.DepositPercent(cfg.DefaultDepositPercent),
		Log:            lg.Named("wizard"),
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(lg.Named("http")))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if m != nil {
		r.Use(middleware.Metrics(m))
		r.GET(cfg.MetricsPath, gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// tokens are issued by the account service, this side only validates them
	j := jwtsvc.New(cfg.JWTSecret, 0, jwtsvc.WithIssuer(cfg.JWTIssuer), jwtsvc.WithLeeway(cfg.JWTLeeway))
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(j))
	v1.Use(middleware.RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst, lg.Named("ratelimit")))
	wizard.NewHandler(wizardService).RegisterRoutes(v1)

	return &app{router: r, store: store, metrics: m}
}
