package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"uhmwpe-mdm/api/handlers"
	"uhmwpe-mdm/config"
	"uhmwpe-mdm/core/bootstrap"
	"uhmwpe-mdm/core/rbac"
	"uhmwpe-mdm/core/store"
	"uhmwpe-mdm/core/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	cfg             *config.AppConfig
	logger          *utils.Logger
	db              *sql.DB
	router          chi.Router
	httpServer      *http.Server
	users           store.UsersStore
	sessions        store.SessionStore
	modules         store.ModulesStore
	records         store.RecordsStore
	attachments     store.AttachmentsStore
	policy          *rbac.Policy
	metrics         *metrics
	loginLimiter    *requestLimiter
	activityTracker *sessionActivity
}

func NewServer(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) (*Server, error) {
	policy, err := rbac.NewPolicy(logger)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		router:          chi.NewRouter(),
		users:           store.NewUsersStore(db),
		sessions:        store.NewSessionsStore(db),
		modules:         store.NewModulesStore(db),
		records:         store.NewRecordsStore(db),
		attachments:     store.NewAttachmentsStore(db),
		policy:          policy,
		metrics:         newMetrics(),
		loginLimiter:    newLimiter(10, time.Minute),
		activityTracker: newSessionActivity(),
	}
	if err := s.policy.RefreshFromStore(context.Background(), s.modules); err != nil {
		return nil, err
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	authH := handlers.NewAuthHandler(s.cfg, s.logger, s.users, s.sessions)
	modulesH := handlers.NewModulesHandler(s.logger, s.modules)
	recordsH := handlers.NewRecordsHandler(s.cfg, s.logger, s.records, s.attachments)
	attachH := handlers.NewAttachmentsHandler(s.cfg, s.logger, s.records, s.attachments)

	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.healthz)
	r.Get("/assets/templates/resin_spinning_template_headers.txt", templateHeaders)
	r.Get("/readyz", s.readyz)
	if s.cfg.Observability.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.loginRateLimit(s.countLogins(authH.Login)))
		r.Post("/logout", authH.Logout)
		r.Get("/status", authH.Status)
	})

	resin := bootstrap.ModuleResinSpinning
	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/user/modules", modulesH.UserModules)

		r.Route("/resin-spinning", func(r chi.Router) {
			r.With(s.requirePermission(resin, rbac.ActionRead)).Get("/", recordsH.List)
			r.With(s.requirePermission(resin, rbac.ActionWrite)).Post("/", recordsH.Create)
			r.With(s.requirePermission(resin, rbac.ActionImport)).Get("/template", recordsH.Template)
			r.With(s.requirePermission(resin, rbac.ActionImport)).Post("/batch-import", s.countImports(recordsH.Import))
			r.With(s.requirePermission(resin, rbac.ActionExport)).Get("/export", recordsH.Export)

			r.Route("/{id}", func(r chi.Router) {
				r.With(s.requirePermission(resin, rbac.ActionRead)).Get("/", recordsH.Get)
				r.With(s.requirePermission(resin, rbac.ActionWrite)).Put("/", recordsH.Update)
				r.With(s.requirePermission(resin, rbac.ActionDelete)).Delete("/", recordsH.Delete)
				r.With(s.requirePermission(resin, rbac.ActionRead)).Get("/qrcode", recordsH.QRCode)
				r.With(s.requirePermission(resin, rbac.ActionRead)).Get("/attachments", attachH.List)
				r.With(s.requirePermission(resin, rbac.ActionWrite)).Post("/attachments", attachH.Upload)
			})
		})

		r.Route("/attachments/{attachmentID}", func(r chi.Router) {
			r.With(s.requirePermission(resin, rbac.ActionRead)).Get("/download", attachH.Download)
			r.With(s.requirePermission(resin, rbac.ActionWrite)).Delete("/", attachH.Delete)
		})
	})
}

func (s *Server) countLogins(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		outcome := "failure"
		if rec.status == http.StatusOK {
			outcome = "success"
		}
		s.metrics.logins.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countImports(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		outcome := "failure"
		if rec.status == http.StatusOK {
			outcome = "success"
		}
		s.metrics.imports.WithLabelValues(outcome).Inc()
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// RefreshPolicy reloads the RBAC policy from the permission matrix.
func (s *Server) RefreshPolicy(ctx context.Context) error {
	return s.policy.RefreshFromStore(ctx, s.modules)
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Printf("http server listening addr=%s", s.cfg.ListenAddr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func templateHeaders(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="resin_spinning_template_headers.txt"`)
	_, _ = w.Write([]byte(strings.Join(handlers.TemplateColumns(), ",") + "\n"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
