// Command cadence is the main entry point for the Cadence delivery analysis server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/venlo-ai/cadence/internal/api"
	"github.com/venlo-ai/cadence/internal/config"
	"github.com/venlo-ai/cadence/internal/health"
	"github.com/venlo-ai/cadence/internal/jobstore"
	"github.com/venlo-ai/cadence/internal/observe"
	"github.com/venlo-ai/cadence/internal/pipeline"
	"github.com/venlo-ai/cadence/internal/resilience"
	"github.com/venlo-ai/cadence/pkg/coach"
	"github.com/venlo-ai/cadence/pkg/media"
	"github.com/venlo-ai/cadence/pkg/media/ffmpeg"
	"github.com/venlo-ai/cadence/pkg/media/wavfile"
	"github.com/venlo-ai/cadence/pkg/transcribe"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ---- CLI flags ----------------------------------------------------------
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ---- Load configuration -------------------------------------------------
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "cadence: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "cadence: %v\n", err)
		}
		return 1
	}

	// ---- Logger -------------------------------------------------------------
	logLevel := new(slog.LevelVar)
	logLevel.Set(cfg.Server.LogLevel.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	slog.Info("cadence starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Telemetry ----------------------------------------------------------
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "cadence",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ---- Media tools --------------------------------------------------------
	if cfg.Analysis.FFmpegPath != "" {
		os.Setenv(ffmpeg.FFmpegEnv, cfg.Analysis.FFmpegPath)
	}
	if cfg.Analysis.FFprobePath != "" {
		os.Setenv(ffmpeg.FFprobeEnv, cfg.Analysis.FFprobePath)
	}
	ffmpegDec := ffmpeg.NewDecoder()
	prober := ffmpeg.NewProber()
	// The WAV decoder handles plain uploads even when ffmpeg is absent.
	decoder := media.NewMultiDecoder(wavfile.NewDecoder(), ffmpegDec)

	if !ffmpegDec.Available() {
		slog.Warn("ffmpeg not found; tonal analysis limited to WAV uploads")
	}
	if !prober.Available() {
		slog.Warn("ffprobe not found; media duration will not be auto-detected")
	}

	// ---- Providers ----------------------------------------------------------
	reg := config.NewRegistry()
	config.RegisterBuiltins(reg, decoder)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}
	providers.Prober = prober
	providers.Decoder = decoder

	// ---- Job store ----------------------------------------------------------
	var store jobstore.Store
	var pgStore *jobstore.PostgresStore
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pgStore, err = jobstore.NewPostgresStore(ctx, dsn)
		if err != nil {
			slog.Error("failed to connect to postgres", "err", err)
			return 1
		}
		defer pgStore.Close()
		store = pgStore
		slog.Info("job store ready", "backend", "postgres")
	} else {
		store = jobstore.NewMemoryStore()
		slog.Info("job store ready", "backend", "memory")
	}

	// ---- Pipeline and HTTP surface ------------------------------------------
	pipe := pipeline.New(store, providers, pipeline.Config{
		SampleRate: cfg.Analysis.SampleRate,
		TargetFPS:  cfg.Analysis.TargetFPS,
	})

	server := api.New(store, pipe,
		api.WithMaxUploadBytes(cfg.Server.MaxUploadMB<<20),
		api.WithDefaultPreset(cfg.Analysis.DefaultPreset),
	)

	checkers := []health.Checker{
		health.PingChecker("jobstore", store),
		health.BinaryChecker("ffmpeg", ffmpegDec.Available, errors.New("ffmpeg binary not found")),
		health.BinaryChecker("ffprobe", prober.Available, errors.New("ffprobe binary not found")),
	}
	healthHandler := health.New(checkers...)

	mux := http.NewServeMux()
	server.Register(mux)
	healthHandler.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	metrics := observe.DefaultMetrics()
	handler := observe.Middleware(metrics)(mux)

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ---- Config hot reload --------------------------------------------------
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			logLevel.Set(d.NewLogLevel.SlogLevel())
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if d.AnalysisChanged {
			slog.Warn("analysis settings changed on disk; restart to apply", "new", d.NewAnalysis)
		}
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ---- Serve --------------------------------------------------------------
	printStartupSummary(cfg)

	errCh := make(chan error, 1)
	go func() {
		var serveErr error
		if tls := cfg.Server.TLS; tls != nil {
			serveErr = httpServer.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			serveErr = httpServer.ListenAndServe()
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	slog.Info("server ready, press Ctrl+C to shut down")

	select {
	case err := <-errCh:
		slog.Error("serve error", "err", err)
		return 1
	case <-ctx.Done():
	}

	// ---- Graceful shutdown --------------------------------------------------
	slog.Info("shutdown signal received, stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "err", err)
		return 1
	}

	// Let in-flight analysis jobs record their terminal state.
	server.Drain()

	slog.Info("goodbye")
	return 0
}

// ---- Provider wiring --------------------------------------------------------

// buildProviders instantiates the backends named in cfg using the registry and
// returns them wired into a [pipeline.Providers]. A missing backend leaves its
// field nil; the pipeline degrades per stage and records a note.
func buildProviders(cfg *config.Config, reg *config.Registry) (pipeline.Providers, error) {
	var ps pipeline.Providers

	if name := cfg.Providers.Transcriber.Name; name != "" {
		t, err := buildTranscriber(cfg, reg)
		if err != nil {
			return ps, fmt.Errorf("create transcriber %q: %w", name, err)
		}
		ps.Transcriber = t
	}

	if name := cfg.Providers.Vision.Name; name != "" {
		lm, err := reg.CreateVision(cfg.Providers.Vision)
		if err != nil {
			return ps, fmt.Errorf("create vision backend %q: %w", name, err)
		}
		ps.Landmarker = lm
		slog.Info("provider created", "kind", "vision", "name", name)
	}

	if name := cfg.Providers.Coach.Name; name != "" {
		c, err := buildCoach(cfg, reg)
		if err != nil {
			return ps, fmt.Errorf("create coach %q: %w", name, err)
		}
		ps.Coach = c
	}

	return ps, nil
}

// buildTranscriber creates the primary transcription backend and, when
// fallbacks are configured, wraps everything in a circuit-breaking failover
// group. The usual pairing is a remote whisper-server primary with an
// in-process whisper-native fallback.
func buildTranscriber(cfg *config.Config, reg *config.Registry) (transcribe.Transcriber, error) {
	primary, err := reg.CreateTranscriber(cfg.Providers.Transcriber)
	if err != nil {
		return nil, err
	}
	slog.Info("provider created", "kind", "transcriber", "name", cfg.Providers.Transcriber.Name)

	if len(cfg.Providers.TranscriberFallbacks) == 0 {
		return primary, nil
	}

	group := resilience.NewTranscribeFallback(primary, cfg.Providers.Transcriber.Name, resilience.FallbackConfig{})
	for _, entry := range cfg.Providers.TranscriberFallbacks {
		fb, err := reg.CreateTranscriber(entry)
		if err != nil {
			return nil, fmt.Errorf("create transcriber fallback %q: %w", entry.Name, err)
		}
		group.AddFallback(entry.Name, fb)
		slog.Info("provider created", "kind", "transcriber-fallback", "name", entry.Name)
	}
	return group, nil
}

// buildCoach creates the primary coaching backend and, when fallbacks are
// configured, wraps everything in a circuit-breaking failover group.
func buildCoach(cfg *config.Config, reg *config.Registry) (coach.Coach, error) {
	primary, err := reg.CreateCoach(cfg.Providers.Coach)
	if err != nil {
		return nil, err
	}
	slog.Info("provider created", "kind", "coach", "name", cfg.Providers.Coach.Name)

	if len(cfg.Providers.CoachFallbacks) == 0 {
		return primary, nil
	}

	group := resilience.NewCoachFallback(primary, cfg.Providers.Coach.Name, resilience.FallbackConfig{})
	for _, entry := range cfg.Providers.CoachFallbacks {
		fb, err := reg.CreateCoach(entry)
		if err != nil {
			return nil, fmt.Errorf("create coach fallback %q: %w", entry.Name, err)
		}
		group.AddFallback(entry.Name, fb)
		slog.Info("provider created", "kind", "coach-fallback", "name", entry.Name)
	}
	return group, nil
}

// ---- Startup summary --------------------------------------------------------

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        Cadence, startup summary       ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Transcriber", cfg.Providers.Transcriber.Name, cfg.Providers.Transcriber.Model)
	if n := len(cfg.Providers.TranscriberFallbacks); n > 0 {
		fmt.Printf("║  STT fallbacks   : %-19d ║\n", n)
	}
	printProvider("Vision", cfg.Providers.Vision.Name, "")
	printProvider("Coach", cfg.Providers.Coach.Name, cfg.Providers.Coach.Model)
	fmt.Printf("║  Coach fallbacks : %-19d ║\n", len(cfg.Providers.CoachFallbacks))
	if cfg.Storage.PostgresDSN != "" {
		fmt.Printf("║  Job store       : %-19s ║\n", "postgres")
	} else {
		fmt.Printf("║  Job store       : %-19s ║\n", "memory")
	}
	fmt.Printf("║  Default preset  : %-19s ║\n", cfg.Analysis.DefaultPreset)
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "..."
	}
	fmt.Printf("║  %-15s : %-19s ║\n", kind, value)
}
