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

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ShadowCodeSoftware/E-sante/internal/app"
	"github.com/ShadowCodeSoftware/E-sante/internal/featureflags"
	"github.com/ShadowCodeSoftware/E-sante/internal/handler"
	"github.com/ShadowCodeSoftware/E-sante/internal/infrastructure/logger"
	"github.com/ShadowCodeSoftware/E-sante/internal/observability/tracing"
	"github.com/ShadowCodeSoftware/E-sante/internal/security"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/audit"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/ratelimit"
	"github.com/ShadowCodeSoftware/E-sante/internal/worker"
	"github.com/ShadowCodeSoftware/E-sante/pkg/config"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting eSanté server",
		slog.String("environment", cfg.Environment),
		slog.String("store_backend", cfg.StoreBackend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "esante", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Store, repositories and services
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	// 5. Seed demonstration data on first start
	res, err := a.Seed(ctx)
	if err != nil {
		log.Error("failed to seed store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if res.Seeded {
		log.Info("demonstration data written", slog.Any("counts", res.Counts))
	}

	// 6. Background work
	go a.Services.Dashboard.Watch(ctx, a.Broker)

	statsWorker := worker.NewStatsWorker(
		a.Repos.Users,
		a.Repos.Patients,
		a.Repos.Appointments,
		a.Repos.Treatments,
		a.Repos.MedicalRecords,
		log,
		cfg.StatsInterval(),
	)
	go statsWorker.Start(ctx)

	// 7. Security components and routes
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	router := handler.NewRouter(a.Services, handler.RouterConfig{
		Tokens:         a.Tokens,
		Limiter:        rateLimiter,
		Audit:          audit.NewLogger(log),
		Authz:          security.NewAuthorizationService(log),
		Broker:         a.Broker,
		Checks:         map[string]handler.Pinger{"store": a.Store},
		AllowedOrigins: cfg.CORSAllowedOrigins,
		ChangeFeed:     featureflags.Enabled(featureflags.ChangeFeed),
	}, log)

	// 8. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(router, "esante"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Float64("rate_limit_rps", cfg.RateLimitRPS),
		slog.Int("rate_limit_burst", cfg.RateLimitBurst),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel()
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}
