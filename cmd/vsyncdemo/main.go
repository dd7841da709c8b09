package main

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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"github.com/valerio/go-vsync/vsync/animator"
	"github.com/valerio/go-vsync/vsync/backend"
	"github.com/valerio/go-vsync/vsync/backend/headless"
	"github.com/valerio/go-vsync/vsync/backend/terminal"
	"github.com/valerio/go-vsync/vsync/engine"
	"github.com/valerio/go-vsync/vsync/timing"
)

func main() {
	app := newApp()

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running vsyncdemo", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "vsyncdemo"
	app.Description = "Paces frames to the display refresh, or to a timer when no vsync signal is available"
	app.Usage = "vsyncdemo [options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "source",
			Usage: "Vsync source: fallback, sdl2 or glfw (platform sources need the matching build tag)",
			Value: engine.SourceFallback,
		},
		cli.Float64Flag{
			Name:  "refresh-rate",
			Usage: "Refresh rate in Hz for the fallback timer, nominal rate for platform sources",
			Value: timing.DefaultRefreshRate,
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a terminal view",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "trace",
			Usage: "Write a CSV frame trace to this path in headless mode",
		},
		cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address (e.g. :9090)",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Action = runDemo
	return app
}

func runDemo(c *cli.Context) error {
	headlessMode := c.Bool("headless")
	frames := c.Int("frames")
	if headlessMode && frames <= 0 {
		return errors.New("headless mode requires --frames option with a positive value")
	}

	level := slog.LevelInfo
	if c.Bool("debug") || headlessMode {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	b, err := createBackend(headlessMode, frames, c.String("trace"))
	if err != nil {
		return err
	}

	var metrics *animator.Metrics
	if addr := c.String("metrics-addr"); addr != "" {
		metrics = animator.PrometheusMetrics("vsync", "source", c.String("source"))
		srv := serveMetrics(addr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	e, err := engine.New(engine.Config{
		Title:       "vsyncdemo",
		Source:      c.String("source"),
		RefreshRate: c.Float64("refresh-rate"),
		Metrics:     metrics,
	}, b)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting vsyncdemo", "source", c.String("source"), "refresh_rate", c.Float64("refresh-rate"), "headless", headlessMode)
	return e.Run(ctx)
}

func createBackend(headlessMode bool, frames int, tracePath string) (backend.Backend, error) {
	if !headlessMode {
		if tracePath != "" {
			slog.Warn("Ignoring --trace outside headless mode")
		}
		return terminal.New(), nil
	}

	traceConfig := headless.TraceConfig{}
	if tracePath != "" {
		var err error
		traceConfig, err = headless.CreateTraceConfig(tracePath)
		if err != nil {
			return nil, fmt.Errorf("failed to set up trace: %w", err)
		}
	}
	return headless.New(frames, traceConfig), nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
	return srv
}
