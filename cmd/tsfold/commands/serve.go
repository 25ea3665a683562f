package commands

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
	"github.com/Sumatoshi-tech/tsfold/pkg/server"
	"github.com/Sumatoshi-tech/tsfold/pkg/version"
)

type serveCommand struct {
	app *app

	host      string
	port      int
	rateLimit float64
	burst     int
	metrics   bool
}

func (a *app) serveCommand() *cobra.Command {
	sc := &serveCommand{app: a}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve segmentation over HTTP",
		Long: `Start the HTTP server:
  POST /v1/fold   fold a JSON series ({"values": [...], "labels": [...], "method": ...})
  GET  /health    liveness probe
  GET  /metrics   Prometheus scrape endpoint (unless --metrics=false)
The server drains in-flight requests on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	fs := cmd.Flags()
	fs.StringVar(&sc.host, "host", "", "listen host")
	fs.IntVarP(&sc.port, "port", "p", 0, "listen port")
	fs.Float64Var(&sc.rateLimit, "rate-limit", 0, "sustained requests per second on /v1")
	fs.IntVar(&sc.burst, "burst", 0, "rate limiter burst")
	fs.BoolVar(&sc.metrics, "metrics", true, "serve Prometheus metrics on /metrics")

	return cmd
}

func (sc *serveCommand) run(cmd *cobra.Command, _ []string) error {
	stop, err := sc.app.start(observability.ModeServe)
	if err != nil {
		return err
	}
	defer stop()

	cfg := sc.app.cfg
	sc.applyFlags(cmd)

	err = cfg.Validate()
	if err != nil {
		return err
	}

	deps, err := sc.deps()
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)

	srv := server.New(deps, server.Options{
		RateLimit:     cfg.Server.RateLimit,
		Burst:         cfg.Server.Burst,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		ShutdownGrace: cfg.Server.ShutdownGrace,
	})

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return srv.ListenAndServe(ctx, cfg.Server.Addr())
}

func (sc *serveCommand) applyFlags(cmd *cobra.Command) {
	cfg := sc.app.cfg
	fs := cmd.Flags()

	if fs.Changed("host") {
		cfg.Server.Host = sc.host
	}

	if fs.Changed("port") {
		cfg.Server.Port = sc.port
	}

	if fs.Changed("rate-limit") {
		cfg.Server.RateLimit = sc.rateLimit
	}

	if fs.Changed("burst") {
		cfg.Server.Burst = sc.burst
	}
}

// deps wires telemetry into the server. With /metrics enabled, request and
// fold metrics go to the Prometheus registry instead of the OTLP meter.
func (sc *serveCommand) deps() (server.Deps, error) {
	deps := server.Deps{
		Logger:  sc.app.providers.Logger,
		Tracer:  sc.app.providers.Tracer,
		Version: version.Version,
	}

	if sc.metrics {
		handler, mp, err := observability.PrometheusHandler()
		if err != nil {
			return server.Deps{}, err
		}

		deps.Metrics = handler
		sc.app.providers.Meter = mp.Meter(tracerName)
	}

	if meter := sc.app.providers.Meter; meter != nil {
		red, err := observability.NewREDMetrics(meter)
		if err != nil {
			return server.Deps{}, err
		}

		deps.RED = red
	}

	seg, err := sc.app.segmenter()
	if err != nil {
		return server.Deps{}, err
	}

	deps.Segmenter = seg

	return deps, nil
}
