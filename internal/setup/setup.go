package setup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/disgoorg/disgo/oauth2"
	"github.com/disgoorg/snowflake/v2"
	"github.com/striketeam/warden/internal/auth"
	"github.com/striketeam/warden/internal/database"
	"github.com/striketeam/warden/internal/directory"
	"github.com/striketeam/warden/internal/redis"
	"github.com/striketeam/warden/internal/setup/config"
	"go.uber.org/zap"
)

// App bundles all core dependencies needed by the dashboard. Each field
// represents a subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config  // Application configuration
	Logger       *zap.Logger     // Main application logger
	DBLogger     *zap.Logger     // Database-specific logger
	DB           database.Client // Database connection pool
	RedisManager *redis.Manager  // Redis connection manager
	OAuth        oauth2.Client   // Discord OAuth client
	Sessions     *auth.Store     // Browser session store
	Checker      *auth.Checker   // Guild access checker
	Directory    *directory.Client
	pprofServer  *http.Server
}

// InitializeApp bootstraps all dashboard dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, logDir string) (*App, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized first to capture setup issues
	logger, dbLogger, err := NewLoggers(&cfg.Debug, logDir)
	if err != nil {
		return nil, err
	}

	redisManager := redis.NewManager(&cfg.Redis, logger)

	sessionClient, err := redisManager.GetClient(redis.SessionDBIndex)
	if err != nil {
		return nil, err
	}

	cacheClient, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, dbLogger, true)
	if err != nil {
		return nil, err
	}

	oauthClient := oauth2.New(snowflake.ID(cfg.Discord.ClientID), cfg.Discord.ClientSecret)

	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	sessions := auth.NewStore(sessionClient, sessionTTL, logger)
	checker := auth.NewChecker(oauthClient, cacheClient, logger)

	catalogTTL := time.Duration(cfg.Discord.CatalogCacheSeconds) * time.Second
	dir := directory.NewClient(cfg.Discord.BotToken, cacheClient, catalogTTL, logger)

	app := &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger,
		DB:           db,
		RedisManager: redisManager,
		OAuth:        oauthClient,
		Sessions:     sessions,
		Checker:      checker,
		Directory:    dir,
	}

	if cfg.Debug.EnablePprof {
		app.pprofServer = startPprofServer(cfg.Debug.PprofPort, logger)
		logger.Warn("pprof debugging endpoint enabled - this should not be used in production!")
	}

	return app, nil
}

// Cleanup releases all resources in reverse initialization order.
func (a *App) Cleanup(ctx context.Context) {
	if a.pprofServer != nil {
		if err := a.pprofServer.Shutdown(ctx); err != nil {
			a.Logger.Error("Failed to stop pprof server", zap.Error(err))
		}
	}

	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	a.RedisManager.Close()

	_ = a.Logger.Sync()
	_ = a.DBLogger.Sync()
}

func startPprofServer(port int, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server failed", zap.Error(err))
		}
	}()

	return srv
}
