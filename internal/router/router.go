package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"civicfix/internal/caseid"
	"civicfix/internal/config"
	"civicfix/internal/handlers"
	"civicfix/internal/media"
	"civicfix/internal/middleware"
	"civicfix/internal/repository"
	"civicfix/internal/repository/postgres"
	"civicfix/internal/service"
)

func New(log zerolog.Logger, db *pgxpool.Pool, cfg config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(httprate.LimitByIP(200, time.Minute))
	r.Use(middleware.WithAuth(cfg))

	// Health
	r.Get("/healthz", handlers.Health())

	// Repos + services + handlers. Store calls are deadline-bounded so an
	// exhausted pool turns into a fast 503 instead of a hung request.
	reportRepo := repository.WithTimeout(postgres.NewReportRepo(db), cfg.AcquireTimeout)
	userRepo := repository.WithUserTimeout(postgres.NewUserRepo(db), cfg.AcquireTimeout)
	uploads := media.NewStore(cfg.UploadDir)
	reportSvc := service.NewReportService(reportRepo, uploads, caseid.NewGenerator(), log)
	authSvc := service.NewAuthService(userRepo, cfg.SessionSecret)

	rh := handlers.NewReportHTTP(reportSvc, log)
	ah := handlers.NewAdminHTTP(reportRepo, reportSvc, log)
	au := handlers.NewAuthHTTP(authSvc, userRepo)

	// Public: submission + tracking
	r.Route("/api/reports", func(r chi.Router) {
		r.Post("/", rh.Create())
		r.Get("/{caseID}", rh.Track())
	})

	// Session
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", au.Login())
		r.Post("/logout", au.Logout())
		r.With(middleware.RequireAuth).Get("/me", au.Me())
	})

	// Admin triage
	r.Route("/api/admin/reports", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireRoles("admin", "staff"))
		r.Get("/", ah.List())
		r.Get("/summary", ah.Summary())
		r.Get("/{id}", ah.Get())
		r.Patch("/{id}/status", ah.UpdateStatus())
	})

	// Stored photos are web-servable under /uploads/
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
	r.Get("/uploads/*", fs.ServeHTTP)

	return r
}
