// Package main - точка входа REST API сервера Attendance Hub.
//
// API обслуживает дашборд посещаемости: курсы, журнал отметок,
// производные метрики, расписание на сегодня и профиль с push-подпиской.
// Все маршруты ограничены одним пользователем через заголовок X-User-ID.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mdi-hub/attendance-hub/config"
	"github.com/mdi-hub/attendance-hub/internal/application/command"
	"github.com/mdi-hub/attendance-hub/internal/application/eventhandler"
	"github.com/mdi-hub/attendance-hub/internal/application/query"
	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/infrastructure/messaging"
	"github.com/mdi-hub/attendance-hub/internal/infrastructure/persistence/firestore"
	"github.com/mdi-hub/attendance-hub/internal/infrastructure/persistence/postgres"
	"github.com/mdi-hub/attendance-hub/internal/infrastructure/persistence/redis"
	apihttp "github.com/mdi-hub/attendance-hub/internal/interface/http"
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
	_ = godotenv.Load() // .env отсутствует в production, это не ошибка

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	slogger := setupSlog(cfg)
	appLog := setupAppLogger(cfg)
	appLog.Info("starting Attendance Hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("store", cfg.Store.Backend),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К ХРАНИЛИЩУ ДОКУМЕНТОВ
	// ─────────────────────────────────────────────────────────────────────────
	stores, err := openStores(ctx, cfg, appLog)
	if err != nil {
		return err
	}
	defer stores.Close(appLog)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var courseCache course.Cache
	var profileCache profile.Cache
	var redisCache *redis.Cache

	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// Кеш - ускорение, а не зависимость: без Redis читаем из store.
			appLog.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			courseCache = redis.NewCourseCache(redisCache)
			profileCache = redis.NewProfileCache(redisCache)
			appLog.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS И ОБРАБОТЧИКИ СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultConfig()
	busConfig.Logger = slogger
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		_ = eventBus.Close()
	}()

	if err := eventhandler.NewOnCourseChangedHandler(courseCache, slogger).Register(eventBus); err != nil {
		return fmt.Errorf("failed to register course event handler: %w", err)
	}
	if err := eventhandler.NewOnProfileSavedHandler(profileCache, slogger).Register(eventBus); err != nil {
		return fmt.Errorf("failed to register profile event handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. CQRS ОБРАБОТЧИКИ
	// ─────────────────────────────────────────────────────────────────────────
	deps := apihttp.Dependencies{
		CreateCourseHandler:     command.NewCreateCourseHandler(stores.Courses, eventBus),
		UpdateCourseHandler:     command.NewUpdateCourseHandler(stores.Courses, stores.Log, eventBus),
		DeleteCourseHandler:     command.NewDeleteCourseHandler(stores.Courses, eventBus),
		RecordAttendanceHandler: command.NewRecordAttendanceHandler(stores.Courses, stores.Log, stores.Profiles, eventBus),
		UndoAttendanceHandler:   command.NewUndoAttendanceHandler(stores.Log, eventBus),
		DeleteLogEntryHandler:   command.NewDeleteLogEntryHandler(stores.Log, eventBus),
		SaveProfileHandler:      command.NewSaveProfileHandler(stores.Profiles, eventBus),
		SaveSubscriptionHandler: command.NewSaveSubscriptionHandler(stores.Profiles, eventBus),

		ListCourseSummariesHandler: query.NewListCourseSummariesHandler(stores.Courses, courseCache, stores.Log, stores.Profiles),
		GetCourseSummaryHandler:    query.NewGetCourseSummaryHandler(stores.Courses, stores.Log, stores.Profiles),
		ExportAttendanceHandler:    query.NewExportAttendanceHandler(stores.Courses, stores.Log),
		GetTodayScheduleHandler:    query.NewGetTodayScheduleHandler(stores.Courses),
		GetSmartRemindersHandler:   query.NewGetSmartRemindersHandler(stores.Courses, stores.Log),
		GetProfileHandler:          query.NewGetProfileHandler(stores.Profiles, profileCache, cfg.Redis.ProfileTTL),

		Logger:        appLog,
		HealthChecker: buildHealthChecker(cfg, stores, redisCache),
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := apihttp.DefaultConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	serverCfg.ReadTimeout = cfg.Server.ReadTimeout
	serverCfg.WriteTimeout = cfg.Server.WriteTimeout
	serverCfg.IdleTimeout = cfg.Server.IdleTimeout
	serverCfg.EnableCORS = cfg.Server.EnableCORS
	serverCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.Server.RateLimitPerMinute
	serverCfg.UserIDHeader = cfg.Server.UserIDHeader
	serverCfg.EnableExport = cfg.Features.IsEnabled(config.FlagCSVExport)
	serverCfg.EnableTimetableImage = cfg.Features.IsEnabled(config.FlagTimetableImage)

	server := apihttp.NewServer(serverCfg, deps)
	errCh := server.StartAsync()
	appLog.Info("HTTP server started", logger.String("address", serverCfg.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLog.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	appLog.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE WIRING
// ══════════════════════════════════════════════════════════════════════════════

// storeSet собирает репозитории выбранного бекенда вместе с закрытием
// соединения и health-проверкой.
type storeSet struct {
	Courses  course.Repository
	Log      attendance.LogRepository
	Profiles profile.Repository

	ping  handlers.HealthCheckFunc
	close func() error
}

func (s *storeSet) Close(log *logger.Logger) {
	if s.close == nil {
		return
	}
	if err := s.close(); err != nil {
		log.Warn("failed to close store", logger.Err(err))
	}
}

// openStores подключает Firestore или PostgreSQL согласно конфигурации.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storeSet, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		// На холодном старте база может быть ещё не готова принимать
		// соединения, поэтому первый ping повторяется с backoff.
		err = retry.DatabaseRetrier().Do(ctx, func(ctx context.Context) error {
			return retry.Retryable(conn.Ping(ctx))
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("PostgreSQL connection established")

		return &storeSet{
			Courses:  postgres.NewCourseRepository(conn),
			Log:      postgres.NewLogRepository(conn),
			Profiles: postgres.NewProfileRepository(conn),
			ping:     handlers.NewStoreCheck(conn),
			close: func() error {
				conn.Close()
				return nil
			},
		}, nil

	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, firestore.Config{
			ProjectID:       cfg.Firestore.ProjectID,
			CredentialsFile: cfg.Firestore.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		err = retry.StoreRetrier().Do(ctx, func(ctx context.Context) error {
			return retry.Retryable(client.Ping(ctx))
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("firestore ping failed: %w", err)
		}
		log.Info("Firestore client initialized", logger.String("project", cfg.Firestore.ProjectID))

		return &storeSet{
			Courses:  firestore.NewCourseRepository(client),
			Log:      firestore.NewLogRepository(client),
			Profiles: firestore.NewProfileRepository(client),
			ping:     handlers.NewStoreCheck(client),
			close:    client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}

// buildHealthChecker регистрирует проверки хранилища и кеша.
func buildHealthChecker(cfg *config.Config, stores *storeSet, redisCache *redis.Cache) handlers.HealthChecker {
	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	checker.AddCheck("store", stores.ping)
	if redisCache != nil {
		checker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}
	return checker
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// setupSlog настраивает slog для инфраструктурных компонентов.
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

// setupAppLogger настраивает структурированный логгер HTTP-слоя.
func setupAppLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}
