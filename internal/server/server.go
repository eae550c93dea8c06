// Package server is the composition root: it opens the store, builds the
// services and handlers, mounts the routes and runs the HTTP server with
// graceful shutdown.
//
// Dependency chain:
//
//	config → sqldb.DB → VoteService / AuthService → handlers → chi routes
//	                  ↘ notify.Broker (+ KafkaFeed) → ChangesHandler
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/slay-vote/internal/auth"
	"github.com/sakif/slay-vote/internal/catalog"
	"github.com/sakif/slay-vote/internal/config"
	"github.com/sakif/slay-vote/internal/handler"
	"github.com/sakif/slay-vote/internal/metrics"
	"github.com/sakif/slay-vote/internal/middleware"
	"github.com/sakif/slay-vote/internal/notify"
	"github.com/sakif/slay-vote/internal/repository/sqldb"
	"github.com/sakif/slay-vote/internal/service"
)

// Server owns the database, the change broker and the optional Kafka
// feed; Start closes them on shutdown.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	db       *sqldb.DB
	broker   *notify.Broker
	feed     *notify.KafkaFeed // nil unless Kafka is configured
	registry *prometheus.Registry
}

func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	db, err := sqldb.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		broker:   notify.NewBroker(),
		registry: reg,
	}

	var publisher notify.Publisher = s.broker
	if cfg.KafkaEnabled() {
		s.feed = notify.NewKafkaFeed(cfg.KafkaBrokers, cfg.KafkaTopic, s.broker, logger)
		publisher = s.feed
	}

	if err := s.setupRoutes(cat, tokens, publisher); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	logger.Info("catalog loaded", slog.Int("categories", cat.Len()))
	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes mounts every route.
//
// GET  /health, /metrics, /              public
// POST /auth/login, /auth/logout          public
// GET  /auth/github/login, /callback      only when GitHub is configured
// GET  /api/categories, /api/votes, /api/results, /api/changes   public
// GET  /api/me, /api/votes/mine; PUT /api/votes/{categoryID}     auth
func (s *Server) setupRoutes(cat *catalog.Catalog, tokens *auth.TokenService, publisher notify.Publisher) error {
	m := metrics.New(s.registry)

	voteService := service.NewVoteService(s.db, cat, publisher,
		auth.NewPseudonymizer(s.config.JWTSecret), m, s.logger)
	authService := service.NewAuthService(s.db, tokens, m, s.logger)

	var github handler.OAuthProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}

	voteHandler := handler.NewVoteHandler(voteService, s.logger)
	authHandler := handler.NewAuthHandler(authService, github, s.config.CookieSecure, s.logger)
	changesHandler := handler.NewChangesHandler(s.broker, m.Watchers, s.logger)
	dashboardHandler, err := handler.NewDashboardHandler(voteService, s.logger)
	if err != nil {
		return fmt.Errorf("creating dashboard handler: %w", err)
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(m))
	s.router.Use(chimiddleware.Recoverer)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.router.With(optionalAuth).Get("/", dashboardHandler.HandleDashboard)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/categories", voteHandler.HandleCategories)
		r.Get("/votes", voteHandler.HandleList)
		r.Get("/results", voteHandler.HandleResults)
		r.Get("/changes", changesHandler.HandleChanges)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/votes/mine", voteHandler.HandleMine)
			r.Put("/votes/{categoryID}", voteHandler.HandleSubmit)
		})
	})

	return nil
}

// Close releases the broker, the Kafka feed and the database.
func (s *Server) Close() error {
	s.broker.Close()
	var errs []error
	if s.feed != nil {
		errs = append(errs, s.feed.Close())
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes everything.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if s.feed != nil {
		go func() {
			if err := s.feed.Run(ctx); err != nil {
				s.logger.Error("kafka change feed stopped", slog.String("error", err.Error()))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("driver", s.config.DBDriver),
			slog.Bool("kafka", s.feed != nil),
			slog.Bool("github", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Websocket streams are hijacked and not tracked by Shutdown;
		// closing the broker ends them.
		s.broker.Close()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelShutdown()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
