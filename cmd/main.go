package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/anchor/internal/bus"
	"github.com/UnknownOlympus/anchor/internal/config"
	"github.com/UnknownOlympus/anchor/internal/geocoding"
	"github.com/UnknownOlympus/anchor/internal/metrics"
	"github.com/UnknownOlympus/anchor/internal/placement"
	"github.com/UnknownOlympus/anchor/internal/repository"
	"github.com/UnknownOlympus/anchor/internal/service"
	"github.com/UnknownOlympus/anchor/internal/tracker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	var (
		dtb  *pgxpool.Pool
		repo repository.Interface
	)
	if cfg.Database.Enabled {
		var err error
		dtb, err = repository.NewDatabase(ctx,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer dtb.Close()

		pgRepo := repository.NewRepository(dtb, logger)
		if err = pgRepo.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate DB: %v", err)
		}
		repo = pgRepo
	}

	source, err := referenceSource(cfg, logger, repo, appMetrics)
	if err != nil {
		log.Fatalf("Failed to set up reference points: %v", err)
	}
	references, err := source.Resolve(ctx, cfg.Anchor.Name)
	if err != nil {
		log.Fatalf("Failed to resolve reference points: %v", err)
	}

	conn, err := bus.Connect(cfg.NATS.URL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer conn.Close()

	subjects := bus.NewSubjects(cfg.NATS.SubjectPrefix)
	publisher := bus.NewPublisher(conn, subjects, logger)

	controller, err := placement.NewController(logger, publisher, cfg.PlacementModel(), cfg.Calibration())
	if err != nil {
		log.Fatalf("Failed to create placement controller: %v", err)
	}

	var sessionOpts []tracker.Option
	if cfg.Anchor.Cache {
		sessionOpts = append(sessionOpts, tracker.WithAnchorCache())
	}
	session, err := tracker.NewSession(logger, controller, publisher, references, sessionOpts...)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	subscriber, err := bus.NewSubscriber(conn, subjects, logger)
	if err != nil {
		log.Fatalf("Failed to subscribe to location events: %v", err)
	}
	defer subscriber.Close()

	locationService := service.NewLocationService(logger, session, repo, appMetrics)

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.",
		"anchor", cfg.Anchor.Name, "references", len(references), "session", locationService.SessionID())

	go startMonitoringServer(ctx, logger, reg, dtb, conn, cfg.HealthPort)

	locationService.Run(ctx, subscriber.Events(ctx))

	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")
	if err = conn.Drain(); err != nil {
		logger.ErrorContext(ctx, "Failed to drain NATS connection", "error", err)
	}
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// referenceSource picks where reference points come from: the database, geocoding
// pending addresses through the configured provider, or the static list in configuration.
func referenceSource(
	cfg *config.Config,
	logger *slog.Logger,
	repo repository.Interface,
	appMetrics *metrics.Metrics,
) (service.ReferenceSource, error) {
	if repo == nil {
		points, err := cfg.ReferencePoints()
		if err != nil {
			return nil, err
		}
		return service.StaticReferences(points), nil
	}

	var provider geocoding.Provider
	if cfg.Provider.Type != config.ProviderStatic {
		var err error
		provider, err = geocoding.NewProvider(geocoding.ProviderConfig{
			Type:      geocoding.ProviderType(cfg.Provider.Type),
			APIKey:    cfg.Provider.APIKey,
			BaseURL:   cfg.Provider.BaseURL,
			UserAgent: cfg.Provider.UserAgent,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create geocoding provider: %w", err)
		}
		logger.Info("Geocoding provider initialized", "type", cfg.Provider.Type)
	}

	return service.NewReferenceResolver(
		logger,
		repo,
		provider,
		cfg.Provider.Type,
		appMetrics,
		cfg.Workers,
		cfg.Provider.RateLimit,
	), nil
}

// startMonitoringServer serves /healthz and /metrics on port. Health fails when the
// database (if any) does not answer or the NATS connection is down.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	dtb *pgxpool.Pool,
	conn *nats.Conn,
	port int,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if dtb != nil {
			if err := dtb.Ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "DB ping failed"
			}
		}
		if !conn.IsConnected() {
			status, body = http.StatusServiceUnavailable, "NATS disconnected"
		}
		writer.WriteHeader(status)
		if _, err := writer.Write([]byte(body)); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(readTimeout)*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
