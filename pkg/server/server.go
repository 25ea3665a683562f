// Package server exposes segmentation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
)

const tracerName = "tsfold/server"

// Route paths.
const (
	PathFold    = "/v1/fold"
	PathHealth  = "/health"
	PathMetrics = "/metrics"
)

const (
	defaultRateLimit    = 10
	defaultBurst        = 20
	defaultMaxBodyBytes = 8 << 20
	defaultGrace        = 10 * time.Second
)

// Deps holds the collaborators of a Server. Nil fields use defaults.
type Deps struct {
	Logger    *slog.Logger
	Segmenter *fold.Segmenter
	Tracer    trace.Tracer
	RED       *observability.REDMetrics
	// Metrics serves PathMetrics; nil leaves the route unregistered.
	Metrics http.Handler
	Version string
}

// Options tunes request handling.
type Options struct {
	// RateLimit is the sustained requests per second on /v1 routes.
	RateLimit float64
	Burst     int
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ShutdownGrace bounds the drain on context cancellation.
	ShutdownGrace time.Duration
}

func (o Options) withDefaults() Options {
	if o.RateLimit <= 0 {
		o.RateLimit = defaultRateLimit
	}

	if o.Burst <= 0 {
		o.Burst = defaultBurst
	}

	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}

	if o.ShutdownGrace <= 0 {
		o.ShutdownGrace = defaultGrace
	}

	return o
}

// Server is the HTTP front end.
type Server struct {
	deps    Deps
	opts    Options
	router  *gin.Engine
	limiter *rate.Limiter
	handler http.Handler
}

// New builds a Server with its routes registered.
func New(deps Deps, opts Options) *Server {
	opts = opts.withDefaults()

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}

	if deps.Segmenter == nil {
		deps.Segmenter = fold.NewSegmenter(fold.WithLogger(deps.Logger), fold.WithTracer(deps.Tracer))
	}

	s := &Server{
		deps:    deps,
		opts:    opts,
		router:  gin.New(),
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst),
	}

	s.routes()
	s.handler = observability.HTTPMiddleware(deps.Tracer, deps.RED, s.router)

	return s
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() {
	s.router.Use(gin.Recovery())

	s.router.GET(PathHealth, s.handleHealth)

	if s.deps.Metrics != nil {
		s.router.GET(PathMetrics, gin.WrapH(s.deps.Metrics))
	}

	v1 := s.router.Group("/v1", s.rateLimit, s.limitBody)
	v1.POST("/fold", s.handleFold)
}

// rateLimit rejects requests beyond the token bucket with 429.
func (s *Server) rateLimit(c *gin.Context) {
	if !s.limiter.Allow() {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})

		return
	}

	c.Next()
}

func (s *Server) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)
	c.Next()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.deps.Version})
}

// ListenAndServe serves on addr until ctx is canceled, then drains
// in-flight requests for at most ShutdownGrace.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.deps.Logger.InfoContext(ctx, "server listening", "addr", ln.Addr().String())

		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownGrace)
		defer cancel()

		s.deps.Logger.InfoContext(shutdownCtx, "server shutting down")

		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}
