package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uhmwpe-mdm/api"
	"uhmwpe-mdm/config"
	"uhmwpe-mdm/core/bootstrap"
	"uhmwpe-mdm/core/jobs"
	"uhmwpe-mdm/core/store"
	"uhmwpe-mdm/core/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalf("db init: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.ApplyMigrations(ctx, db, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	if err := bootstrap.EnsureDefaults(ctx, cfg, logger,
		store.NewUsersStore(db), store.NewModulesStore(db)); err != nil {
		logger.Fatalf("seed: %v", err)
	}

	srv, err := api.NewServer(cfg, db, logger)
	if err != nil {
		logger.Fatalf("server init: %v", err)
	}

	var scheduler *jobs.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = jobs.NewScheduler(cfg, logger,
			store.NewSessionsStore(db), store.NewAttachmentsStore(db))
		if err != nil {
			logger.Fatalf("scheduler init: %v", err)
		}
		scheduler.Start()
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	if scheduler != nil {
		scheduler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown: %v", err)
	}
}
