package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gallformers/config"
	"gallformers/services"
	"gallformers/storage"
)

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logging, err := newLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	db, err := storage.OpenDatabase(cfg, logging)
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Running database auto-migration...")
	if err := storage.Migrate(db); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	store, err := storage.NewObjectStore(context.Background(), cfg, logging)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}

	filterFields := services.NewFilterFieldService(db, logging)
	search := services.NewSearchService(db, logging)
	images := services.NewImageService(db, store, cfg.ImageEdgeURL, logging)
	backups := services.NewBackupService(cfg, db, store, logging)

	router := newRouter(filterFields, search, images, logging)

	if cfg.BackupSchedule != "" {
		cronScheduler := cron.New()
		_, err := cronScheduler.AddFunc(cfg.BackupSchedule, func() {
			logging.Info("Running scheduled backup job...")
			key, err := backups.Run(context.Background())
			if err != nil {
				logging.Error("Backup job failed", zap.Error(err))
				return
			}
			logging.Info("Backup job completed", zap.String("key", key))
		})
		if err != nil {
			logging.Fatal("Invalid BACKUP_SCHEDULE", zap.String("schedule", cfg.BackupSchedule), zap.Error(err))
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}
