// Package main implements the camkit command line tool. It drives a
// single camera through the unified contract: validate configuration
// documents, run the device self-test, dump device information, save
// resolved parameters, or acquire frames until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/camerakit/backendregistry"
	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/config"
	"github.com/c360/camerakit/health"
	"github.com/c360/camerakit/metric"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "camkit"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("camkit failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()
	if cfg.ShowHelp {
		printDetailedHelp()
		return nil
	}
	if cfg.ShowVersion {
		fmt.Printf("%s %s (build %s)\n", appName, Version, BuildTime)
		return nil
	}
	if err := validateFlags(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if cfg.Validate {
		return validateDocument(cfg, logger)
	}

	if err := backendregistry.RegisterDefault(); err != nil {
		return fmt.Errorf("backend registration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, cleanup, err := buildOptions(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	handle, err := camera.New(camera.Kind(cfg.Backend), opts...)
	if err != nil {
		return fmt.Errorf("camera construction: %w", err)
	}
	defer func() {
		if err := handle.Release(); err != nil {
			logger.Warn("camera release failed", "error", err)
		}
	}()
	cam := handle.Camera()

	if cfg.SelfTest {
		return runSelfTest(ctx, cam, cfg)
	}

	if err := cam.Init(cfg.ConfigPath, cfg.Index); err != nil {
		return fmt.Errorf("camera init: %w", err)
	}

	if cfg.SavePath != "" {
		if err := cam.SaveParameters(cfg.SavePath); err != nil {
			return fmt.Errorf("parameter save: %w", err)
		}
		logger.Info("parameters saved", "file", cfg.SavePath)
		return nil
	}

	if err := cam.Open(ctx); err != nil {
		return fmt.Errorf("camera open: %w", err)
	}

	if cfg.HealthPort > 0 {
		stopHealth := serveHealth(ctx, cam, cfg.HealthPort, logger)
		defer stopHealth()
	}

	if cfg.Info {
		return cam.PrintInformation(os.Stdout)
	}
	return acquire(ctx, cam, cfg, logger)
}

func validateDocument(cfg *CLIConfig, logger *slog.Logger) error {
	if _, err := config.Load(cfg.ConfigPath, cfg.Index); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	logger.Info("configuration is valid", "config", cfg.ConfigPath, "index", cfg.Index)
	return nil
}

// buildOptions assembles camera options from flags: metrics endpoint and
// NATS event publishing are both opt-in. The returned cleanup releases
// whatever was connected.
func buildOptions(cfg *CLIConfig, logger *slog.Logger) ([]camera.Option, func(), error) {
	opts := []camera.Option{camera.WithLogger(logger)}
	cleanup := func() {}

	if cfg.MetricsPort > 0 {
		registry := metric.NewRegistry()
		opts = append(opts, camera.WithMetrics(registry))

		mux := http.NewServeMux()
		mux.Handle("/metrics", registry.Handler())
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		logger.Info("metrics endpoint up", "port", cfg.MetricsPort)

		shutdownServer := func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}
		cleanup = shutdownServer
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL,
			nats.Name(appName),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("nats connect: %w", err)
		}
		opts = append(opts, camera.WithEvents(nc))
		logger.Info("event publishing enabled", "url", cfg.NATSURL)

		prev := cleanup
		cleanup = func() {
			nc.Close()
			prev()
		}
	}

	return opts, cleanup, nil
}

// serveHealth watches the camera and serves the fleet report on
// /healthz until the returned stop function runs.
func serveHealth(ctx context.Context, cam *camera.Camera, port int, logger *slog.Logger) func() {
	monitor := health.NewMonitor()
	watchCtx, cancelWatch := context.WithCancel(ctx)
	go monitor.Watch(watchCtx, cam, 5*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/healthz", monitor.Handler(appName))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", "error", err)
		}
	}()
	logger.Info("health endpoint up", "port", port)

	return func() {
		cancelWatch()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
}

// runSelfTest drives the camera through init, open, property and frame
// checks and close against the configured document, printing one line
// per step.
func runSelfTest(ctx context.Context, cam *camera.Camera, cfg *CLIConfig) error {
	results, passed := camera.RunSelfTest(ctx, cam, cfg.ConfigPath, cfg.Index)

	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Printf("%-4s %-14s %-10s %s\n", status, r.Name, r.Duration.Round(time.Microsecond), r.Detail)
	}

	if !passed {
		return fmt.Errorf("self-test failed")
	}
	return nil
}

func acquire(ctx context.Context, cam *camera.Camera, cfg *CLIConfig, logger *slog.Logger) error {
	logger.Info("acquiring frames",
		"count", cfg.Frames, "latest", cfg.Latest, "camera", cam.Name())

	for n := 0; cfg.Frames == 0 || n < cfg.Frames; n++ {
		frame, err := cam.GetFrame(ctx, cfg.Latest)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("interrupted", "frames_delivered", n)
				return nil
			}
			return fmt.Errorf("frame acquisition: %w", err)
		}

		logger.Info("frame",
			"seq", frame.Seq,
			"size", fmt.Sprintf("%dx%d", frame.Width, frame.Height),
			"encoding", frame.Encoding,
			"bytes", len(frame.Data),
			"dropped", frame.Dropped)
	}

	logger.Info("acquisition complete",
		"frames", cfg.Frames, "total_dropped", cam.DroppedFrames())
	return nil
}
