// Package httpapi exposes the tracker over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/annotrack/internal/logging"
	"github.com/dmitrijs2005/annotrack/internal/server/config"
	"github.com/dmitrijs2005/annotrack/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the HTTP layer calls into.
type Deps struct {
	Users   UserService
	Intake  IntakeService
	Listing ListingService
	Tokens  TokenVerifier
	Metrics *metrics.Metrics
}

type Server struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewServer(cfg *config.Config, l logging.Logger, deps Deps) *Server {
	logger := l.With("module", "http_server")
	return &Server{
		address: cfg.HTTPAddr,
		handler: NewRouter(cfg, logger, deps),
		logger:  logger,
	}
}

// NewRouter builds the route tree. API routes live under cfg.RoutePrefix;
// /healthz and /metrics sit at the root.
func NewRouter(cfg *config.Config, logger logging.Logger, deps Deps) http.Handler {
	h := &handlers{
		users:          deps.Users,
		intake:         deps.Intake,
		listing:        deps.Listing,
		log:            logger,
		metrics:        deps.Metrics,
		stagingDir:     cfg.StagingDir,
		maxUploadBytes: cfg.MaxUploadBytes,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(deps.Metrics.Middleware)

	r.Get("/healthz", healthz)
	r.Handle("/metrics", deps.Metrics.Handler())

	r.Route(cfg.RoutePrefix, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst))
			r.Post("/signup", h.signup)
			r.Post("/signin", h.signin)
		})

		r.Group(func(r chi.Router) {
			r.Use(Authenticator(deps.Tokens))
			r.Get("/dashboard", h.dashboard)
			r.Get("/requests", h.listRequests)
			r.Get("/projects", h.listProjects)
			r.Post("/requests-with-upload", h.createRequestWithUpload)
		})
	})

	return r
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	return nil
}
