package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/labledger/labledger-backend/api/controllers"
	"github.com/labledger/labledger-backend/api/middleware"
	"github.com/labledger/labledger-backend/internal/auth"
	"github.com/labledger/labledger-backend/internal/custody"
	"github.com/labledger/labledger-backend/internal/detection"
	"github.com/labledger/labledger-backend/internal/inventory"
	"github.com/labledger/labledger-backend/internal/reports"
	"github.com/labledger/labledger-backend/internal/students"
	"github.com/labledger/labledger-backend/pkg/config"
	"github.com/labledger/labledger-backend/pkg/enums"
	"github.com/labledger/labledger-backend/pkg/logger"
	"github.com/labledger/labledger-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers. Redis is
// optional; without it readiness skips the probe and rate limiting is off.
type Deps struct {
	Config    *config.Config
	Auth      auth.Service
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     *redis.Client
	Gatherer  prometheus.Gatherer
	Custody   custody.Service
	Students  students.Service
	Inventory inventory.Service
	Reports   reports.Service
	Detection detection.Service
	Now       func() time.Time
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var redisPinger controllers.Pinger
	var limiter redis.RateLimiter
	if deps.Redis != nil {
		redisPinger = deps.Redis
		limiter = deps.Redis
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	detectPolicy := middleware.NewRateLimitPolicy("detect", cfg.App.DetectRateWindow, cfg.App.DetectRateLimit)
	loginPolicy := middleware.NewRateLimitPolicy("admin-login", cfg.Admin.LoginWindow, cfg.Admin.LoginRateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/transactions", controllers.ApplyTransaction(deps.Custody, logg))
		r.Get("/pending", controllers.AllPending(deps.Reports, logg))
		r.Get("/audit", controllers.AuditLog(deps.Reports, logg))
		r.Get("/audit/export.xlsx", controllers.AuditExport(deps.Reports, logg, deps.Now))
		r.Get("/history", controllers.History(deps.Reports, logg))
		r.Get("/history/page", controllers.HistoryPage(deps.Reports, logg))
		r.Get("/inventory", controllers.ListInventory(deps.Inventory, logg))
		r.With(middleware.RateLimit(detectPolicy, limiter, logg)).
			Post("/detections", controllers.Detect(deps.Detection, logg))

		r.Route("/students", func(r chi.Router) {
			r.Get("/", controllers.StudentRoster(deps.Reports, logg))
			r.Post("/", controllers.RegisterStudent(deps.Students, logg))
			r.Get("/{studentId}", controllers.GetStudent(deps.Students, logg))
			r.Put("/{studentId}", controllers.UpdateStudent(deps.Students, logg))
			r.Get("/{studentId}/pending", controllers.StudentPending(deps.Reports, logg))
			r.Get("/{studentId}/records", controllers.StudentRecords(deps.Reports, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, limiter, logg)).
			Post("/login", controllers.AdminLogin(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(enums.ActorRoleAdmin, logg))
			r.Route("/inventory", func(r chi.Router) {
				r.Post("/", controllers.AdminAddItem(deps.Inventory, logg))
				r.Post("/reconcile", controllers.AdminReconcile(deps.Inventory, logg))
				r.Put("/{itemId}/total", controllers.AdminSetTotal(deps.Inventory, logg))
				r.Delete("/{itemId}", controllers.AdminDeleteItem(deps.Inventory, logg))
			})
		})
	})

	return r
}
