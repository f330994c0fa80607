// Command gateway starts the Coolify management gateway: the HTTP API the
// admin frontend talks to.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LuisLuna810/coolify-managment-back/auth"
	"github.com/LuisLuna810/coolify-managment-back/config"
	"github.com/LuisLuna810/coolify-managment-back/internal/coolify"
	"github.com/LuisLuna810/coolify-managment-back/internal/migrate"
	"github.com/LuisLuna810/coolify-managment-back/internal/repository/postgres"
	"github.com/LuisLuna810/coolify-managment-back/internal/server"
	"github.com/LuisLuna810/coolify-managment-back/internal/service"
	"github.com/LuisLuna810/coolify-managment-back/kvstore"
	"github.com/LuisLuna810/coolify-managment-back/ratelimit"
	"github.com/LuisLuna810/coolify-managment-back/sessioncache"
	"github.com/LuisLuna810/coolify-managment-back/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.Production() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	store := kvstore.New(rdb)
	defer func() { _ = store.Close() }()
	if err := store.Ping(ctx); err != nil {
		logger.Warn("redis unreachable at startup, caching degraded", zap.Error(err))
	}

	codec, err := token.NewCodec(token.Config{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL})
	if err != nil {
		logger.Fatal("token codec", zap.Error(err))
	}

	userRepo := postgres.NewUserRepo(db)
	projectRepo := postgres.NewProjectRepo(db)
	assignmentRepo := postgres.NewUserProjectRepo(db)
	actionLogRepo := postgres.NewActionLogRepo(db)

	cache := sessioncache.New(store, 0, 0)
	coolifyClient := coolify.New(cfg.CoolifyURL, cfg.CoolifyAPIKey, logger)

	authCore := auth.NewService(codec, store, userRepo, auth.Config{
		CookieMaxAge:  cfg.JWTTTL,
		SecureCookies: cfg.Production(),
	})

	authSvc := service.NewAuthService(userRepo, codec, cache, authCore, logger)
	projectSvc := service.NewProjectsService(projectRepo, coolifyClient, cache, logger)

	if err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal("admin bootstrap", zap.Error(err))
	}

	go projectSvc.RunSync(ctx, cfg.SyncInterval)

	srv := server.New(server.Options{
		Auth:        authCore,
		Limiter:     ratelimit.New(store),
		AuthSvc:     authSvc,
		Users:       service.NewUsersService(userRepo, cache, authCore, logger),
		Projects:    projectSvc,
		Assignments: service.NewAssignmentsService(assignmentRepo, cache, logger),
		Actions:     service.NewActionsService(projectRepo, assignmentRepo, actionLogRepo, coolifyClient, cache, logger),
		Audit:       service.NewAuditService(actionLogRepo),
		Health:      service.NewHealthService(store),
		CORSOrigin:  cfg.CORSOrigin,
		Log:         logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	logger.Info("listening", zap.String("addr", cfg.Addr))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}
