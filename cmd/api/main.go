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

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	appHTTP "github.com/cmlabs-hris/hris-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/async"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/csrf"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/geocode"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	anomalyService "github.com/cmlabs-hris/hris-attendance-go/internal/service/anomaly"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	scheduleService "github.com/cmlabs-hris/hris-attendance-go/internal/service/schedule"
	trapService "github.com/cmlabs-hris/hris-attendance-go/internal/service/trap"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), database.PoolConfig{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.App.MigrateOnStart {
		if err := database.RunMigrations(db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Repositories
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	branchRepo := postgresql.NewBranchRepository(db)
	personalScheduleRepo := postgresql.NewPersonalScheduleRepository(db)
	settingsRepo := postgresql.NewSettingsRepository(db)
	activityRepo := postgresql.NewActivityRepository(db)
	anomalyRepo := postgresql.NewAnomalyRepository(db)
	trapRepo := postgresql.NewTrapRepository(db)

	settings := startupSettings(settingsRepo, logger)

	tokens, err := csrf.New(cfg.CSRF.Secret)
	if err != nil {
		return fmt.Errorf("init csrf tokens: %w", err)
	}
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	dispatcher := async.NewDispatcher(async.Config{
		WorkerCount: cfg.Dispatcher.Workers,
		QueueSize:   cfg.Dispatcher.QueueSize,
		TaskTimeout: cfg.Dispatcher.TaskTimeout,
	}, logger)

	deps := attendanceService.Deps{
		Ledger:     attendanceService.NewLedger(postgresql.NewTransactor(db), attendanceRepo, employeeRepo),
		Records:    attendanceRepo,
		Employees:  employeeRepo,
		Branches:   branchRepo,
		Resolver:   scheduleService.NewResolver(personalScheduleRepo, settingsRepo, logger),
		Dispatcher: dispatcher,
		Activity:   activityRepo,
		Anomaly:    anomalyService.NewScorer(anomalyRepo, settings.AnomalyAlertThreshold, logger),
		Traps:      trapService.NewService(trapRepo, logger),
		Logger:     logger,
	}

	var redisClient *cache.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("redis unavailable, geocode cache disabled", slog.Any("error", err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}
	if cfg.Geocoder.URL != "" {
		var geocodeCache geocode.Cache
		if redisClient != nil {
			geocodeCache = redisClient
		}
		deps.Geocoder = geocode.NewClient(geocode.Config{
			BaseURL:   cfg.Geocoder.URL,
			UserAgent: cfg.Geocoder.UserAgent,
			Timeout:   cfg.Geocoder.Timeout,
			CacheTTL:  cfg.Geocoder.CacheTTL,
		}, geocodeCache, logger)
	}

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceService.NewAttendanceService(deps), tokens, cfg.Location())

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		AllowedOrigins: cfg.App.AllowedOrigins,
		Logger:         logger,
		RequestLevel:   slog.LevelInfo,
	}, JWTService, attendanceHandler)

	scheduler := cron.NewScheduler(logger)
	cron.NewPresenceJobs(employeeRepo, cfg.Presence.IdleAfter, logger).RegisterJobs(scheduler, cfg.Presence.CheckInterval)
	scheduler.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr), slog.String("timezone", cfg.App.Timezone))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			scheduler.Stop()
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	scheduler.Stop()
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("dispatcher shutdown", slog.Any("error", err))
	}
	return nil
}

// startupSettings reads the settings needed to build long-lived components.
// Per-request settings are resolved fresh by the schedule resolver.
func startupSettings(repo schedule.SettingsRepository, logger *slog.Logger) schedule.AttendanceSettings {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := repo.GetAll(ctx)
	if err != nil {
		logger.Warn("system settings unavailable, using defaults", slog.Any("error", err))
		return schedule.DefaultSettings()
	}
	settings, invalid := schedule.ParseSettings(raw)
	if len(invalid) > 0 {
		logger.Warn("invalid system settings ignored", slog.Any("keys", invalid))
	}
	return settings
}
