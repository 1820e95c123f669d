package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/emilythestrangee/insight/backend/internal/config"
	"github.com/emilythestrangee/insight/backend/internal/database"
	"github.com/emilythestrangee/insight/backend/internal/handlers"
	"github.com/emilythestrangee/insight/backend/internal/identity"
	"github.com/emilythestrangee/insight/backend/internal/jobs"
	"github.com/emilythestrangee/insight/backend/internal/live"
	"github.com/emilythestrangee/insight/backend/internal/server"
	"github.com/emilythestrangee/insight/backend/internal/service"
	"github.com/emilythestrangee/insight/backend/internal/store"
	"github.com/emilythestrangee/insight/backend/internal/store/memory"
	"github.com/emilythestrangee/insight/backend/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	cfg.SetupLogger()
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, db := mustGetStore(ctx, cfg)

	var health server.HealthChecker
	if db != nil {
		health = db
		defer func() {
			if err := db.Close(); err != nil {
				log.WithError(err).Error("failed to close database")
			}
		}()
	}

	tokens := identity.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	hub := live.NewHub()
	go hub.Run(ctx)

	svc := service.New(st, identity.New(st), tokens,
		service.WithPublisher(hub),
		service.WithLocation(cfg.Location()),
		service.WithLeaderboardLimit(cfg.LeaderboardLimit),
	)

	scheduler := jobs.NewScheduler(svc, cfg.ResetCron, cfg.Location())
	if err := scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}

	srv := server.NewServer(cfg.Port, handlers.NewHandler(svc, hub), tokens, health, cfg.CORSOrigins)

	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	scheduler.Stop()
	cancel()

	log.Info("server exited gracefully")
}

func mustGetStore(ctx context.Context, cfg *config.Config) (store.Store, *database.Database) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}

	if err := database.Migrate(cfg.MigrationsPath, cfg.MigrateURL()); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	db, err := database.Open(ctx, database.Options{
		DSN:             cfg.DatabaseDSN(),
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		SlowThreshold:   cfg.DBSlowThreshold,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	return postgres.New(db.DB()), db
}
