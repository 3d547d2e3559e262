package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/httpresp"
	"restaurant-orders/internal/logger"
)

const healthTimeout = 5 * time.Second

// Routes is implemented by the feature handlers
type Routes interface {
	Register(r gin.IRouter)
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Options configures the HTTP router
type Options struct {
	Service  string
	Logger   *logger.Logger
	Verifier *auth.Verifier
	Routes   []Routes
	Checks   map[string]HealthCheck
}

// NewRouter builds the gin engine with logging, recovery and authentication
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(withLogging(opts.Logger), withRecovery(opts.Logger))

	r.GET("/health", healthHandler(opts.Service, opts.Checks))
	r.NoRoute(func(c *gin.Context) {
		httpresp.Error(c, apperror.NotFound("route not found"))
	})

	api := r.Group("", auth.Middleware(opts.Verifier))
	for _, routes := range opts.Routes {
		routes.Register(api)
	}

	return r
}

func healthHandler(service string, checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		body := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   service,
			"checks":    results,
		}
		if status != http.StatusOK {
			body["status"] = "unhealthy"
		}
		c.JSON(status, body)
	}
}

// Server runs an HTTP handler until its context is cancelled
type Server struct {
	http            *http.Server
	logger          *logger.Logger
	shutdownTimeout time.Duration
}

// New creates a server listening on port
func New(port int, handler http.Handler, shutdownTimeout time.Duration, log *logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:          log,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("service_started", fmt.Sprintf("HTTP server listening on %s", s.http.Addr), "startup", nil)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("graceful_shutdown", "Shutting down HTTP server", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
