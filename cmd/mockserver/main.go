package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"

	"github.com/CSroseX/mock-http-server/internal/analytics"
	"github.com/CSroseX/mock-http-server/internal/config"
	"github.com/CSroseX/mock-http-server/internal/delay"
	"github.com/CSroseX/mock-http-server/internal/middleware"
	"github.com/CSroseX/mock-http-server/internal/observability"
	"github.com/CSroseX/mock-http-server/internal/payload"
	"github.com/CSroseX/mock-http-server/internal/server"
	"github.com/CSroseX/mock-http-server/internal/status"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

const (
	recorderWorkers = 4
	recorderQueue   = 1024
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv))
}

// run is main without the process globals. It returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	cfg, err := config.Parse(args, getenv)
	switch {
	case errors.Is(err, flag.ErrHelp):
		config.Usage(stdout)
		return 0
	case errors.Is(err, config.ErrVersion):
		fmt.Fprintf(stdout, "mockserver %s\n", version)
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n\n", err)
		config.Usage(stderr)
		return 2
	}

	logger := observability.NewLogger(cfg.Level, stderr)
	logger.V(observability.VInfo).Info("Configuring "+string(cfg.Mode)+" HTTP server",
		"bind_addr", cfg.BindAddr, "workers", cfg.Workers, "wait", cfg.Wait.String())

	// An unreadable payload source is a configuration error like a bad flag.
	var body []byte
	if cfg.Mode == config.ModePayload {
		body, err = payload.Resolve(cfg.Source, stdin)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
		logger.V(observability.VDebug).Info("Payload loaded", "source", cfg.Source.String(), "bytes", len(body))
	}

	if err := serve(ctx, cfg, body, stdout, logger); err != nil {
		logger.Error(err, "Server failed")
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg config.Config, body []byte, stdout io.Writer, logger logr.Logger) error {
	if cfg.Trace {
		shutdown, err := observability.InitTracer("mockserver", stdout, logger)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}
		defer shutdown(context.Background())
	}

	var (
		strategy http.Handler
		info     middleware.StatsSource
	)
	switch cfg.Mode {
	case config.ModeStatus:
		s, err := status.New(cfg.Codes)
		if err != nil {
			return err
		}
		logger.V(observability.VDebug).Info("Status sequence", "codes", s.Codes())
		strategy = s
		info = func() any {
			return map[string]any{"codes": s.Codes(), "served": s.Served()}
		}
	case config.ModePayload:
		p := payload.New(body)
		strategy = p
		info = func() any {
			return map[string]any{"source": cfg.Source.String(), "bytes": p.Len()}
		}
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}

	policy := delay.New(cfg.Wait)
	collector := middleware.NewCollector()
	sections := map[string]middleware.StatsSource{
		string(cfg.Mode): info,
		"delay":          func() any { return policy.Stats() },
	}

	pipeline := server.Pipeline{
		Mode:      string(cfg.Mode),
		Strategy:  strategy,
		Delay:     policy,
		Collector: collector,
		Logger:    logger,
	}

	var analyticsHandler http.Handler
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		a := analytics.NewAnalytics(client)
		if err := a.Ping(ctx); err != nil {
			return fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		rec := analytics.NewRecorder(a, recorderWorkers, recorderQueue, logger)
		defer rec.Close()

		pipeline.Recorder = rec
		sections["analytics"] = func() any { return rec.Stats() }
		analyticsHandler = analytics.Handler(a, string(cfg.Mode), logger)
	}

	var admin http.Handler
	if cfg.AdminAddr != "" {
		admin = server.AdminMux(collector, sections, analyticsHandler)
	}

	srv := server.New(server.Options{
		Addr:      cfg.BindAddr,
		AdminAddr: cfg.AdminAddr,
		Workers:   cfg.Workers,
	}, pipeline.Handler(), admin, logger)
	if err := srv.Bind(); err != nil {
		return err
	}
	return srv.Run(ctx)
}
