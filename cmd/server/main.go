package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryan-besnyi/next-doorcard-sub000/config"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/api/handler"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/api/router"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/repository"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/service"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/database"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/jwt"
	applogger "github.com/bryan-besnyi/next-doorcard-sub000/pkg/logger"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/redis"
)

func main() {
	// 1. configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting up",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("database connected")

	// 3.1 migrations
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("unwrap sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 4. Redis (optional: run degraded when unavailable)
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, token revocation and rate limiting disabled", zap.Error(err))
		rdb = nil
	}

	// 5. JWT manager
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. dependency wiring: repository → service → handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, logger)
	h := handler.NewHandler(svc)

	// 7. router
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 9. wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
