package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"gallformers/config"
	"gallformers/services"
	"gallformers/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Zap-Logger konnte nicht initialisiert werden: %v", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenDatabase(cfg, logging)
	if err != nil {
		logging.Fatal("Verbindung zur Datenbank fehlgeschlagen", zap.Error(err))
	}
	store, err := storage.NewObjectStore(ctx, cfg, logging)
	if err != nil {
		logging.Fatal("Fehler beim Erstellen des S3-Clients", zap.Error(err))
	}

	key, err := services.NewBackupService(cfg, db, store, logging).Run(ctx)
	if err != nil {
		logging.Fatal("Backup fehlgeschlagen", zap.Error(err))
	}
	logging.Info("Backup-Prozess erfolgreich abgeschlossen", zap.String("location", store.Location(key)))
}
