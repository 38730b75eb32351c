package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_booking/config"
	"github.com/Alijeyrad/simorq_booking/internal/api/http/handler"
	"github.com/Alijeyrad/simorq_booking/internal/api/http/middleware"
	"github.com/Alijeyrad/simorq_booking/internal/repo"
	"github.com/Alijeyrad/simorq_booking/internal/service/availability"
	"github.com/Alijeyrad/simorq_booking/internal/service/booking"
	"github.com/Alijeyrad/simorq_booking/internal/service/catalog"
	"github.com/Alijeyrad/simorq_booking/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/simorq_booking/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           redis.UniversalClient
	Auth            authorize.IAuthorization
	DB              *repo.Client
	CatalogSvc      catalog.Service
	AvailabilitySvc availability.Service
	BookingSvc      booking.Service
	PasetoMgr       *pasetotoken.Manager
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Redis, r.p.Cfg.Authentication.SessionCheck)
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Handlers
	catalogH := handler.NewCatalogHandler(r.p.CatalogSvc, r.p.Cfg.Booking.DefaultConsultationFee)
	availabilityH := handler.NewAvailabilityHandler(r.p.AvailabilitySvc)
	bookingH := handler.NewBookingHandler(r.p.BookingSvc)
	clinicH := handler.NewClinicHandler(r.p.BookingSvc)

	api := app.Group("/api/v1")

	r.registerCatalogRoutes(api, catalogH, availabilityH)
	r.registerBookingRoutes(api, bookingH, authRequired)
	r.registerClinicRoutes(api, clinicH, authRequired, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get("/healthz", r.healthz)

	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return authorize.IsPolicyHealthy() && r.pingStore(c.Context()) == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}

// GET /healthz
func (r *Router) healthz(c fiber.Ctx) error {
	if err := r.pingStore(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "store": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (r *Router) pingStore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.p.DB.Store().Ping(ctx)
}
