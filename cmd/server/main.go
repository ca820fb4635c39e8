package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/basevitale/billing/billing"
	"github.com/basevitale/billing/internal/config"
	"github.com/basevitale/billing/internal/logger"
	"github.com/basevitale/billing/invoice"
	"github.com/basevitale/billing/rules"
)

type Server struct {
	db      *sql.DB
	service *billing.Service
	router  *chi.Mux
	log     zerolog.Logger
}

// NewServer wires the billing service. With a database URL it uses the
// Postgres repositories; without one it runs fully in memory (demo mode).
func NewServer(cfg *config.Config, log zerolog.Logger) (*Server, error) {
	var db *sql.DB
	var ruleRepo rules.Repository
	var invoiceRepo invoice.Repository
	var patients billing.PatientDirectory

	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		ruleRepo = rules.NewPostgresRepository(db)
		invoiceRepo = invoice.NewPostgresRepository(db)
		patients = billing.NewPostgresPatientDirectory(db)
	} else {
		log.Warn().Msg("no DATABASE_URL configured, running with in-memory repositories")
		ruleRepo = rules.NewInMemoryRepository()
		invoiceRepo = invoice.NewInMemoryRepository()
		patients = billing.NewInMemoryPatientDirectory()
	}

	store := rules.NewStore(ruleRepo, log)

	// Initial load: storage when reachable, bundled NGAP_2024 otherwise.
	status := store.Reload(context.Background())
	log.Info().Str("version", status.Version).Int("rules", status.RuleCount).Msg("rule set active")

	s := &Server{
		db:      db,
		service: billing.NewService(store, patients, invoiceRepo, log),
		log:     log,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)

	r.Route("/api/v1/billing", func(r chi.Router) {
		r.Post("/simulate", s.handleSimulate)
		r.Get("/patients", s.handleListPatients)

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", s.handleCreateInvoice)
			r.Get("/{invoiceId}", s.handleGetInvoice)
			r.Get("/{invoiceId}/lifecycle", s.handleGetLifecycle)
			r.Post("/{invoiceId}/transition", s.handleTransition)
		})
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Get("/rules", s.handleRulesInfo)
		r.Post("/rules/reload", s.handleReloadRules)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env, cfg.LogLevel)

	server, err := NewServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}
	if server.db != nil {
		defer server.db.Close()
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}
