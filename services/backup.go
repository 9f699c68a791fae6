package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gallformers/config"
	"gallformers/metrics"
	"gallformers/storage"
)

// BackupService erstellt einen Datenbank-Dump, lädt ihn komprimiert hoch und behält die neuesten Kopien.
type BackupService struct {
	Config *config.Config
	DB     *gorm.DB
	Store  ObjectStorage
	Logger *zap.Logger

	now func() time.Time
}

// NewBackupService erstellt einen neuen BackupService.
func NewBackupService(cfg *config.Config, db *gorm.DB, store ObjectStorage, logger *zap.Logger) *BackupService {
	return &BackupService{Config: cfg, DB: db, Store: store, Logger: logger, now: time.Now}
}

// Run führt ein Backup mit anschließender Rotation aus und gibt den hochgeladenen Key zurück.
func (b *BackupService) Run(ctx context.Context) (string, error) {
	key, err := b.run(ctx)
	if err != nil {
		metrics.BackupRuns.WithLabelValues("error").Inc()
		b.Logger.Error("Backup fehlgeschlagen", zap.Error(err))
		return "", err
	}
	metrics.BackupRuns.WithLabelValues("ok").Inc()
	return key, nil
}

func (b *BackupService) run(ctx context.Context) (string, error) {
	b.Logger.Info("Starte Backup-Prozess", zap.String("driver", b.Config.DBDriver))

	var (
		data []byte
		ext  string
		err  error
	)
	switch b.Config.DBDriver {
	case "postgres":
		data, err = b.dumpPostgres(ctx)
		ext = "sql.gz"
	case "sqlite":
		data, err = b.dumpSQLite(ctx)
		ext = "sqlite.gz"
	default:
		err = fmt.Errorf("unsupported database driver %q", b.Config.DBDriver)
	}
	if err != nil {
		return "", fmt.Errorf("create dump: %w", err)
	}

	key := fmt.Sprintf("%sbackup-%s.%s", b.Config.BackupPrefix, b.now().UTC().Format("2006-01-02T15-04-05Z"), ext)
	if _, err := b.Store.Put(ctx, key, data, "application/gzip"); err != nil {
		return "", fmt.Errorf("upload backup: %w", err)
	}
	b.Logger.Info("Backup erfolgreich hochgeladen", zap.String("key", key), zap.Int("bytes", len(data)))

	if err := b.rotate(ctx); err != nil {
		return key, fmt.Errorf("rotate backups: %w", err)
	}
	return key, nil
}

func (b *BackupService) dumpPostgres(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "pg_dump",
		"-h", b.Config.DBHost,
		"-p", fmt.Sprint(b.Config.DBPort),
		"-U", b.Config.DBUser,
		"-d", b.Config.DBName,
		"-w", // Passwort wird über PGPASSWORD bereitgestellt
	)
	cmd.Env = append(os.Environ(), fmt.Sprintf("PGPASSWORD=%s", b.Config.DBPassword))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	data, err := gzipAll(stdout)
	if err != nil {
		_ = cmd.Wait()
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// dumpSQLite schreibt per VACUUM INTO eine konsistente Kopie und komprimiert sie.
func (b *BackupService) dumpSQLite(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "gallformers-backup-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	target := filepath.Join(dir, "snapshot.sqlite")
	if err := b.DB.WithContext(ctx).Exec("VACUUM INTO ?", target).Error; err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return gzipAll(f)
}

func gzipAll(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := io.Copy(gz, r); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *BackupService) rotate(ctx context.Context) error {
	objects, err := b.Store.List(ctx, b.Config.BackupPrefix)
	if err != nil {
		return err
	}
	expired := selectExpired(objects, b.Config.KeepBackups)
	if len(expired) == 0 {
		b.Logger.Info("Keine Rotation nötig", zap.Int("backups", len(objects)), zap.Int("keep", b.Config.KeepBackups))
		return nil
	}
	b.Logger.Info("Lösche alte Backups", zap.Strings("keys", expired))
	return b.Store.Delete(ctx, expired...)
}

// selectExpired gibt die Keys aller Objekte außer den keep neuesten zurück.
func selectExpired(objects []storage.Object, keep int) []string {
	if keep < 0 {
		keep = 0
	}
	if len(objects) <= keep {
		return nil
	}
	sorted := make([]storage.Object, len(objects))
	copy(sorted, objects)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LastModified.After(sorted[j].LastModified)
	})

	keys := make([]string, 0, len(sorted)-keep)
	for _, o := range sorted[keep:] {
		keys = append(keys, o.Key)
	}
	return keys
}
