package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"find-my-doctor/config"
	deliveryHttp "find-my-doctor/internal/delivery/http"
	"find-my-doctor/internal/delivery/http/handler"
	"find-my-doctor/internal/delivery/http/middleware"
	domainRepo "find-my-doctor/internal/domain/repository"
	"find-my-doctor/internal/infrastructure/cache"
	"find-my-doctor/internal/infrastructure/database"
	"find-my-doctor/internal/repository"
	"find-my-doctor/internal/service"
	"find-my-doctor/internal/usecase"
	"find-my-doctor/pkg/jwt"
	"find-my-doctor/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const connectTimeout = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server

	slotLocker *service.LocalSlotLocker
}

// Base loads configuration and connects to PostgreSQL only. CLI commands
// that never serve HTTP start from here.
func Base() (*App, error) {
	log := setupLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.Info("Configuration loaded successfully")

	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := pingDB(ctx, db); err != nil {
		closeDB(db)
		return nil, err
	}

	return &App{Config: cfg, Log: log, DB: db}, nil
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	log := setupLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.Info("Configuration loaded successfully")

	app := &App{Config: cfg, Log: log}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	// PostgreSQL and Redis are reached concurrently; either failure aborts startup
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env, log)
		if err != nil {
			return err
		}
		app.DB = db
		return pingDB(gctx, db)
	})
	if cfg.Redis.Enabled {
		g.Go(func() error {
			client, err := cache.NewRedisClient(gctx, cfg.Redis, log)
			if err != nil {
				return err
			}
			app.RedisClient = client
			return nil
		})
	} else {
		log.Warn("Redis disabled: using in-process slot locks, token revocation and no doctor cache")
	}
	if err := g.Wait(); err != nil {
		app.Close()
		return nil, err
	}

	app.Server = app.initializeServer()

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	return log
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}
	return nil
}

// sharedServices are used by both the HTTP server and the CLI.
type sharedServices struct {
	users        domainRepo.UserRepository
	auditService service.AuditService
	tokenStore   service.TokenStore
	jwtService   *jwt.JWTService
}

// AuthUsecase builds the identity usecase on top of the app's storage.
func (app *App) AuthUsecase() usecase.AuthUsecase {
	svc := app.services()
	return usecase.NewAuthUsecase(app.Log, svc.users, svc.jwtService, svc.tokenStore, svc.auditService)
}

func (app *App) services() *sharedServices {
	tokenStore := service.NewMemoryTokenStore()
	if app.RedisClient != nil {
		tokenStore = service.NewRedisTokenStore(app.RedisClient)
	}

	return &sharedServices{
		users:        repository.NewUserRepository(app.DB),
		auditService: service.NewAuditService(app.Log, repository.NewAuditLogRepository(app.DB)),
		tokenStore:   tokenStore,
		jwtService:   jwt.NewJWTService(app.Config.JWT),
	}
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer() *http.Server {
	cfg := app.Config
	log := app.Log
	svc := app.services()

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	doctorRepo := repository.NewDoctorRepository(app.DB)
	appointmentRepo := repository.NewAppointmentRepository(app.DB)

	// Initialize Redis-backed services, or their in-process fallbacks
	var (
		slotLocker  service.SlotLocker
		doctorCache service.DoctorCache
	)
	if app.RedisClient != nil {
		slotLocker = service.NewRedisSlotLocker(app.RedisClient, log, cfg.Cache.SlotLockTTL)
		doctorCache = service.NewRedisDoctorCache(app.RedisClient, doctorRepo, log, cfg.Cache.DoctorTTL)
	} else {
		app.slotLocker = service.NewLocalSlotLocker(log)
		slotLocker = app.slotLocker
		doctorCache = service.NewPassthroughDoctorCache(doctorRepo)
	}

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(log, svc.users, svc.jwtService, svc.tokenStore, svc.auditService)
	doctorUsecase := usecase.NewDoctorUsecase(log, doctorRepo, doctorCache, svc.auditService)
	appointmentUsecase := usecase.NewAppointmentUsecase(log, appointmentRepo, doctorRepo, slotLocker, svc.auditService)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	doctorHandler := handler.NewDoctorHandler(doctorUsecase, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator)
	bookingHandler := handler.NewBookingHandler(appointmentUsecase, customValidator)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authUsecase)
	corsMiddleware := middleware.NewCORSMiddleware("*")
	loggingMiddleware := middleware.NewLoggingMiddleware(log)

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler,
		doctorHandler,
		appointmentHandler,
		bookingHandler,
		authMiddleware,
		corsMiddleware,
		loggingMiddleware,
		middleware.Timeout(cfg.App.RequestTimeout),
	)

	// Create server
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() error {
	errCh := make(chan error, 1)

	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case err := <-errCh:
		runErr = fmt.Errorf("failed to start server: %w", err)
	}

	app.shutdown()
	return runErr
}

func (app *App) shutdown() {
	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.slotLocker != nil {
		app.slotLocker.Stop()
	}

	if app.DB != nil {
		closeDB(app.DB)
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
