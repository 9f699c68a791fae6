package storage

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gallformers/config"
	"gallformers/models"
)

// OpenDatabase verbindet sich mit der Datenbank, die cfg.DBDriver auswählt.
func OpenDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Mit Datenbank verbunden", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// AllModels listet alle Tabellen der Anwendung.
func AllModels() []any {
	return []any{
		&models.Location{}, &models.Color{}, &models.Season{}, &models.Shape{},
		&models.Texture{}, &models.Alignment{}, &models.Walls{}, &models.Cells{},
		&models.Form{},
		&models.Species{}, &models.Host{}, &models.Gall{},
		&models.GallLocation{}, &models.GallTexture{}, &models.Image{},
	}
}

// Migrate legt alle Tabellen an oder aktualisiert sie.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
