package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// DBDriver wählt den gorm-Dialekt: "postgres" oder "sqlite".
	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"gallformers"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"gallformers"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"gallformers.sqlite"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`
	LogMode  string `envconfig:"LOG_MODE" default:"production"`

	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-2"`
	S3Bucket string `envconfig:"S3_BUCKET" default:"gallformers"`

	// Öffentliche Basis-URL, unter der die Bilder ausgeliefert werden.
	ImageEdgeURL string `envconfig:"IMAGE_EDGE_URL" default:"https://static.gallformers.org"`

	RetryAttempts     int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryInitialDelay time.Duration `envconfig:"RETRY_INITIAL_DELAY" default:"500ms"`

	// Leer deaktiviert geplante Backups im Server.
	BackupSchedule string `envconfig:"BACKUP_SCHEDULE"`
	BackupPrefix   string `envconfig:"BACKUP_PREFIX" default:"backups/"`
	KeepBackups    int    `envconfig:"KEEP_BACKUPS" default:"4"`
}

// DSN gibt den Data Source Name für PostgreSQL zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load liest eine vorhandene .env-Datei und danach die Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return &c, err
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return &c, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return &c, nil
}
