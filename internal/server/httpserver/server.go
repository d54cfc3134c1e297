// Package httpserver exposes the token lifecycle over HTTP: an issuance API
// for authenticated callers, the login interception endpoint that redeems
// tokens, and the public login-request form endpoint.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/loginlink/loginlink/internal/logging"
	"github.com/loginlink/loginlink/internal/server/config"
	"github.com/loginlink/loginlink/internal/server/models"
)

const shutdownTimeout = 10 * time.Second

// TokenManager is the slice of the token service the HTTP layer needs.
type TokenManager interface {
	Issue(ctx context.Context, actor *models.Actor, targetRef string, count int, delayDelete bool) ([]string, error)
	Redeem(ctx context.Context, userID string, tokenValue string) (*models.Session, error)
	RequestLogin(ctx context.Context, ref string) error
}

type Server struct {
	address       string
	logger        logging.Logger
	manager       TokenManager
	jwtSecret     []byte
	timeout       time.Duration
	idleTimeout   time.Duration
	loginPath     string
	dashboardPath string
}

func NewServer(cfg *config.Config, logger logging.Logger, manager TokenManager) *Server {
	return &Server{
		address:       cfg.Server.Address,
		logger:        logger.With("module", "http_server"),
		manager:       manager,
		jwtSecret:     []byte(cfg.Tokens.SecretKey),
		timeout:       cfg.Server.Timeout,
		idleTimeout:   cfg.Server.IdleTimeout,
		loginPath:     cfg.Server.LoginPath,
		dashboardPath: cfg.Server.DashboardPath,
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.URLFormat)

	r.Get("/ping", s.handlePing)
	r.With(s.withActor).Get(s.loginPath, s.handleRedeem)

	r.Route("/v1", func(r chi.Router) {
		r.With(s.withActor).Post("/tokens", s.handleIssue)
		r.Post("/request", s.handleRequestLogin)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.routes(),
		ReadTimeout:  s.timeout,
		WriteTimeout: s.timeout,
		IdleTimeout:  s.idleTimeout,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
