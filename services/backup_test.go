package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"sort"
	"testing"
	"time"

	"gallformers/config"
	"gallformers/storage"
	"gallformers/testutil"
)

func TestSelectExpired(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	objects := []storage.Object{
		{Key: "b-2", LastModified: base.Add(2 * time.Hour)},
		{Key: "b-0", LastModified: base},
		{Key: "b-3", LastModified: base.Add(3 * time.Hour)},
		{Key: "b-1", LastModified: base.Add(time.Hour)},
	}

	got := selectExpired(objects, 2)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "b-0" || got[1] != "b-1" {
		t.Errorf("selectExpired(keep=2) = %v, want [b-0 b-1]", got)
	}
	if objects[0].Key != "b-2" {
		t.Error("selectExpired must not reorder its input")
	}

	if got := selectExpired(objects, 4); len(got) != 0 {
		t.Errorf("selectExpired(keep=4) = %v, want none", got)
	}
	if got := selectExpired(objects, 0); len(got) != 4 {
		t.Errorf("selectExpired(keep=0) = %v, want all", got)
	}
}

func TestBackupRunSQLite(t *testing.T) {
	db := testutil.DB(t)
	testutil.SeedSpecies(t, db, "Andricus quercuscalifornicus")

	store := newMemStore()
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, key := range []string{"backups/backup-a.sqlite.gz", "backups/backup-b.sqlite.gz", "backups/backup-c.sqlite.gz"} {
		store.objects[key] = storage.Object{Key: key, LastModified: old.Add(time.Duration(i) * time.Hour)}
	}
	store.objects["images/keep.jpg"] = storage.Object{Key: "images/keep.jpg", LastModified: old}

	cfg := &config.Config{DBDriver: "sqlite", BackupPrefix: "backups/", KeepBackups: 2}
	svc := NewBackupService(cfg, db, store, testutil.Logger(t))
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC) }

	key, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if key != "backups/backup-2026-10-16T03-00-00Z.sqlite.gz" {
		t.Errorf("key = %q", key)
	}

	gz, err := gzip.NewReader(bytes.NewReader(store.puts[key]))
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	data, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("SQLite format 3")) {
		t.Errorf("dump is not a sqlite database")
	}

	sort.Strings(store.deleted)
	if len(store.deleted) != 2 || store.deleted[0] != "backups/backup-a.sqlite.gz" || store.deleted[1] != "backups/backup-b.sqlite.gz" {
		t.Errorf("deleted = %v", store.deleted)
	}
	if _, ok := store.objects["images/keep.jpg"]; !ok {
		t.Error("rotation touched objects outside the backup prefix")
	}
}

func TestBackupRunUnknownDriver(t *testing.T) {
	cfg := &config.Config{DBDriver: "oracle", BackupPrefix: "backups/"}
	svc := NewBackupService(cfg, nil, newMemStore(), testutil.Logger(t))
	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
