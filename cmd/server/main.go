package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"icetime-service/internal/app"
	"icetime-service/internal/config"
	"icetime-service/internal/email"
	"icetime-service/internal/export"
	"icetime-service/internal/logging"
	"icetime-service/internal/metrics"
	"icetime-service/internal/notify"
	"icetime-service/internal/rinksync"
	"icetime-service/internal/schedule"
	"icetime-service/internal/server"
	"icetime-service/internal/store"
	"icetime-service/internal/teams"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("icetime-service: %v", err)
	}
}

// backend bundles the slot store with the team directory it shares storage with.
type backend struct {
	store.Backend
	teams.Directory
	close func()
}

func run(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	loc, _ := cfg.Location()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	logger := logging.NewLogger(logging.Config{
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Service: cfg.Metrics.ServiceName,
		Version: version,
	})
	slog.SetDefault(logger)

	recorder, metricsHandler, shutdownMetrics, err := metrics.Setup(ctx, metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	})
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	defer shutdownMetrics(context.Background())

	rink, err := config.LoadRinkConfig(cfg.RinkConfigPath)
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer be.close()
	logging.Info(logger, "store ready", "driver", cfg.Store.Driver)

	if err := seedTeams(ctx, be.Directory, rink.Teams); err != nil {
		return err
	}
	if cfg.SeedDemo {
		if err := seedTeams(ctx, be.Directory, teams.DemoTeams()); err != nil {
			return err
		}
		week := schedule.WeekOf(time.Now().In(loc))
		n, err := be.UpsertSlots(ctx, schedule.DemoSlots(week))
		if err != nil {
			return fmt.Errorf("seed demo week: %w", err)
		}
		logging.Info(logger, "demo week seeded", logging.FieldWeek, week.String(), logging.FieldCount, n)
	}

	feed := notify.NewFeed(0)
	sink := notify.Fanout{notify.LogSink{Logger: logger}, feed}

	var sender email.Sender
	if cfg.Email.ResendAPIKey != "" {
		sender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, logger)
	} else {
		logging.Warn(logger, "RESEND_API_KEY not set, schedule emails are logged only")
		sender = email.NewNoopSender(logger)
	}

	exports := export.NewService(export.Options{
		Slots:       be,
		Teams:       be.Directory,
		Sender:      sender,
		Sink:        sink,
		Logger:      logger,
		Metrics:     recorder,
		Location:    loc,
		ExportDelay: cfg.Export.ExportDelay,
		EmailDelay:  cfg.Export.EmailDelay,
	})

	var syncer *rinksync.Runner
	if cfg.Sync.Enabled {
		syncer = rinksync.NewRunner(rinksync.Options{
			Backend:    be,
			Templates:  rink.Templates,
			Feeds:      rink.Feeds,
			Location:   loc,
			WeeksAhead: cfg.Sync.WeeksAhead,
			Logger:     logger,
			Metrics:    recorder,
		})
		if len(rink.Templates) > 0 || len(rink.Feeds) > 0 {
			if _, err := syncer.RunOnce(ctx); err != nil {
				logging.Error(logger, "initial rink sync failed", err)
			}
		}
		if err := syncer.Start(ctx, cfg.Sync.Cron); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			syncer.Stop(stopCtx)
		}()
	}

	a := &app.App{
		Backend:  be,
		Teams:    be.Directory,
		Exports:  exports,
		Sync:     syncer,
		Feed:     feed,
		Sink:     sink,
		Metrics:  recorder,
		Logger:   logger,
		Location: loc,
		Google:   cfg.Google,
	}
	if !cfg.Auth.Enabled() {
		logging.Warn(logger, "no STATIC_TOKENS or JWT_HMAC_SECRET set, API is open")
	}

	err = server.Run(ctx, a.Router(cfg.Auth, metricsHandler), ":"+cfg.Port, logger)
	// let running export and email tasks finish
	exports.Wait()
	return err
}

func openBackend(ctx context.Context, cfg config.StoreConfig) (*backend, error) {
	switch cfg.Driver {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to db: %w", err)
		}
		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &backend{Backend: pg, Directory: pg, close: pool.Close}, nil
	case config.StoreSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		lite := store.NewSQLiteStore(db)
		if err := lite.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &backend{Backend: lite, Directory: lite, close: func() { db.Close() }}, nil
	}
	return &backend{
		Backend:   store.NewMemoryStore(),
		Directory: teams.NewMemoryDirectory(),
		close:     func() {},
	}, nil
}

// seedTeams registers the configured teams, leaving existing ones alone.
func seedTeams(ctx context.Context, dir teams.Directory, seed []teams.Team) error {
	for _, t := range seed {
		if _, err := dir.CreateTeam(ctx, t); err != nil && !errors.Is(err, teams.ErrDuplicate) {
			return fmt.Errorf("seed team %s: %w", t.Name, err)
		}
	}
	return nil
}
