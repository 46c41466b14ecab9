// Package main - точка входа фонового воркера Attendance Hub.
//
// Воркер выполняет ежечасный скан напоминаний: для каждого пользователя
// с push-подпиской оцениваются условия class_soon и low_allowance, и
// сработавшие напоминания доставляются через Web Push. Воркер также
// поднимает небольшой admin-сервер со статусом здоровья и ручным
// запуском скана.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mdi-hub/attendance-hub/config"
	"github.com/mdi-hub/attendance-hub/internal/application/eventhandler"
	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/infrastructure/external/webpush"
	"github.com/mdi-hub/attendance-hub/internal/infrastructure/messaging"
	"github.com/mdi-hub/attendance-hub/internal/infrastructure/persistence/firestore"
	"github.com/mdi-hub/attendance-hub/internal/infrastructure/persistence/postgres"
	"github.com/mdi-hub/attendance-hub/internal/infrastructure/scheduler"
	"github.com/mdi-hub/attendance-hub/internal/infrastructure/scheduler/jobs"
	"github.com/mdi-hub/attendance-hub/internal/interface/http/handlers"
	"github.com/mdi-hub/attendance-hub/pkg/logger"
	"github.com/mdi-hub/attendance-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled, nothing to run")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	slogger := setupSlog(cfg)
	appLog := setupAppLogger(cfg)
	slogger.Info("starting Attendance Hub worker",
		"env", cfg.App.Environment,
		"store", cfg.Store.Backend,
		"reminder_cron", cfg.Scheduler.ReminderCron,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К ХРАНИЛИЩУ
	// ─────────────────────────────────────────────────────────────────────────
	courseRepo, logRepo, profileRepo, storePing, closeStore, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			slogger.Warn("failed to close store", "error", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. PUSH SENDER (Web Push / VAPID)
	// ─────────────────────────────────────────────────────────────────────────
	sender, err := webpush.NewSender(webpush.Config{
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
		Timeout:         cfg.Push.SendTimeout,
	}, appLog)
	if err != nil {
		return fmt.Errorf("failed to create push sender: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS И АУДИТ ДОСТАВКИ
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultConfig()
	busConfig.Logger = slogger
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		_ = eventBus.Close()
	}()

	dispatchAudit := eventhandler.NewOnReminderDispatchedHandler(slogger)
	if err := dispatchAudit.Register(eventBus); err != nil {
		return fmt.Errorf("failed to register dispatch audit handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ПЛАНИРОВЩИК И ЗАДАЧА НАПОМИНАНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	remindersJob := jobs.NewClassRemindersJob(
		profileRepo,
		courseRepo,
		logRepo,
		sender,
		eventBus,
		slogger,
		jobs.ClassRemindersConfig{
			Concurrency:            cfg.Scheduler.ScanConcurrency,
			Timeout:                cfg.Scheduler.ScanTimeout,
			ClearGoneSubscriptions: cfg.Scheduler.ClearGoneSubscriptions,
			LowAllowanceAlerts:     cfg.Features.IsEnabled(config.FlagLowAllowanceAlerts),
		},
	)

	sched := scheduler.New(scheduler.Config{Logger: slogger})

	cron, err := scheduler.ParseCronExpression(cfg.Scheduler.ReminderCron)
	if err != nil {
		return fmt.Errorf("invalid reminder cron %q: %w", cfg.Scheduler.ReminderCron, err)
	}

	if cfg.Features.IsEnabled(config.FlagPushReminders) {
		if err := sched.Register(remindersJob, cron); err != nil {
			return fmt.Errorf("failed to register reminders job: %w", err)
		}
	} else {
		slogger.Warn("push reminders feature is disabled, scan job not scheduled")
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ADMIN / HEALTH СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	adminServer := buildAdminServer(cfg, storePing, sender, sched, remindersJob, dispatchAudit)
	go func() {
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slogger.Error("admin server failed", "error", err)
		}
	}()
	slogger.Info("worker is running", "admin_addr", adminServer.Addr)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slogger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		slogger.Warn("admin server shutdown failed", "error", err)
	}
	if err := sched.Stop(); err != nil {
		return fmt.Errorf("scheduler stop failed: %w", err)
	}

	slogger.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE WIRING
// ══════════════════════════════════════════════════════════════════════════════

func openStores(ctx context.Context, cfg *config.Config) (
	course.Repository,
	attendance.LogRepository,
	profile.Repository,
	handlers.HealthCheckFunc,
	func() error,
	error,
) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		err = retry.DatabaseRetrier().Do(ctx, func(ctx context.Context) error {
			return retry.Retryable(conn.Ping(ctx))
		})
		if err != nil {
			conn.Close()
			return nil, nil, nil, nil, nil, fmt.Errorf("database ping failed: %w", err)
		}
		return postgres.NewCourseRepository(conn),
			postgres.NewLogRepository(conn),
			postgres.NewProfileRepository(conn),
			handlers.NewStoreCheck(conn),
			func() error {
				conn.Close()
				return nil
			},
			nil

	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, firestore.Config{
			ProjectID:       cfg.Firestore.ProjectID,
			CredentialsFile: cfg.Firestore.CredentialsFile,
		})
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		err = retry.StoreRetrier().Do(ctx, func(ctx context.Context) error {
			return retry.Retryable(client.Ping(ctx))
		})
		if err != nil {
			client.Close()
			return nil, nil, nil, nil, nil, fmt.Errorf("firestore ping failed: %w", err)
		}
		return firestore.NewCourseRepository(client),
			firestore.NewLogRepository(client),
			firestore.NewProfileRepository(client),
			handlers.NewStoreCheck(client),
			client.Close,
			nil

	default:
		return nil, nil, nil, nil, nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN SERVER
// ══════════════════════════════════════════════════════════════════════════════

// buildAdminServer собирает health/status маршруты воркера и ручной
// запуск скана напоминаний.
func buildAdminServer(
	cfg *config.Config,
	storePing handlers.HealthCheckFunc,
	sender *webpush.Sender,
	sched *scheduler.Scheduler,
	job *jobs.ClassRemindersJob,
	audit *eventhandler.OnReminderDispatchedHandler,
) *http.Server {
	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	checker.AddCheck("store", storePing)
	checker.AddCheck("push_sender", handlers.NewPushSenderCheck(sender))

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status := checker.Check(r.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	})

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"jobs":      sched.ListJobs(),
			"metrics":   sched.GetMetrics().Snapshot(),
			"last_scan": job.LastScanStats(),
			"dispatch":  audit.Stats(),
		})
	})

	// Ручной запуск скана - для отладки и проверки после деплоя.
	var scan http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := sched.RunNow(r.Context(), job.Name())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	})
	if cfg.Scheduler.AdminAPIKey != "" {
		auth := handlers.NewAPIKeyAuth("X-API-Key", []string{cfg.Scheduler.AdminAPIKey})
		scan = auth.Middleware(scan)
	}
	mux.Handle("POST /scan", scan)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Scheduler.AdminPort),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING
// ══════════════════════════════════════════════════════════════════════════════

func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func setupAppLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}
