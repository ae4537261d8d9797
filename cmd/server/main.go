package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
	"github.com/JonMunkholm/csvload/internal/logging"
	"github.com/JonMunkholm/csvload/internal/metrics"
	"github.com/JonMunkholm/csvload/internal/store/postgres"
	"github.com/JonMunkholm/csvload/internal/store/sqlite"
	"github.com/JonMunkholm/csvload/internal/web"
)

func main() {
	once := flag.Bool("once", false, "process CSV_FILE_PATH, print the age report and exit")
	flag.Parse()

	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *once); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, once bool) error {
	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	slog.Info("connected to database",
		"driver", cfg.Database.Driver,
		"name", cfg.Database.DatabaseName(),
	)

	if cfg.Database.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	observers := core.MultiObserver{core.NewLogObserver(slog.Default())}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		recorder, err := metrics.NewRecorder()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		observers = append(observers, recorder)
		metricsHandler = recorder.Handler()
	}

	limiter := core.NewRunLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)
	service := core.NewService(store, limiter, observers, core.ServiceConfig{
		SourcePath:  cfg.Import.SourcePath,
		BatchSize:   cfg.Import.BatchSize,
		MaxFileSize: cfg.Import.MaxFileSize,
		RunTimeout:  cfg.Import.Timeout,
	})

	if once {
		result, err := service.ProcessFile(ctx, "")
		if err != nil {
			return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
		}
		fmt.Println(result.AgeDistribution.String())
		return nil
	}

	server := web.NewServer(service, cfg, metricsHandler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// openStore connects the store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (core.Store, func(), error) {
	if strings.EqualFold(cfg.Driver, config.DriverSQLite) {
		s, err := sqlite.Open(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}

	s, err := postgres.Open(ctx, postgres.Config{
		URL:             cfg.DSN(),
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
		ConnectTimeout:  cfg.ConnectTimeout,
		UseCopy:         cfg.UseCopy,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}
