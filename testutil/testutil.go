package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gallformers/config"
	"gallformers/models"
	"gallformers/storage"
)

// DB opens a migrated sqlite database that lives in the test's temp dir.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	cfg := &config.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(tb.TempDir(), "gallformers.sqlite"),
	}
	db, err := storage.OpenDatabase(cfg, zap.NewNop())
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Logger(tb testing.TB) *zap.Logger {
	tb.Helper()
	return zap.NewNop()
}

// Create inserts v and fails the test on error.
func Create[T any](tb testing.TB, db *gorm.DB, v *T) *T {
	tb.Helper()
	if err := db.WithContext(context.Background()).Create(v).Error; err != nil {
		tb.Fatalf("seed %T: %v", v, err)
	}
	return v
}

func SeedSpecies(tb testing.TB, db *gorm.DB, name string) *models.Species {
	tb.Helper()
	return Create(tb, db, &models.Species{Name: name, TaxonCode: "gall"})
}

func SeedHostPlant(tb testing.TB, db *gorm.DB, name string) *models.Species {
	tb.Helper()
	return Create(tb, db, &models.Species{Name: name, TaxonCode: "plant"})
}

func SeedHost(tb testing.TB, db *gorm.DB, gall, host *models.Species) *models.Host {
	tb.Helper()
	return Create(tb, db, &models.Host{GallSpeciesID: gall.ID, HostSpeciesID: host.ID})
}

// SeedGall inserts a gall for species. Traits are set through the id fields of g.
func SeedGall(tb testing.TB, db *gorm.DB, species *models.Species, g models.Gall) *models.Gall {
	tb.Helper()
	g.SpeciesID = species.ID
	return Create(tb, db, &g)
}

func LinkLocation(tb testing.TB, db *gorm.DB, gall *models.Gall, loc *models.Location) {
	tb.Helper()
	Create(tb, db, &models.GallLocation{GallID: gall.ID, LocationID: loc.ID})
}

func LinkTexture(tb testing.TB, db *gorm.DB, gall *models.Gall, tex *models.Texture) {
	tb.Helper()
	Create(tb, db, &models.GallTexture{GallID: gall.ID, TextureID: tex.ID})
}

func IntPtr(v int) *int {
	return &v
}
