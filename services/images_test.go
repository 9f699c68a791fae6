package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gallformers/apperr"
	"gallformers/models"
	"gallformers/storage"
	"gallformers/testutil"
)

// memStore is an in-memory ObjectStorage.
type memStore struct {
	mu      sync.Mutex
	objects map[string]storage.Object
	puts    map[string][]byte
	deleted []string
	failDel error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]storage.Object{}, puts: map[string][]byte{}}
}

func (m *memStore) Put(_ context.Context, key string, body []byte, _ string) (storage.PutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts[key] = body
	m.objects[key] = storage.Object{Key: key, Size: int64(len(body)), LastModified: time.Now()}
	return storage.PutResult{StatusCode: 200}, nil
}

func (m *memStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel != nil {
		return m.failDel
	}
	for _, k := range keys {
		delete(m.objects, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.Object
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) PresignPut(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "https://bucket.example/" + key + "?X-Amz-Expires=" + ttl.String(), nil
}

func TestImagePaths(t *testing.T) {
	db := testutil.DB(t)
	svc := NewImageService(db, newMemStore(), "https://static.gallformers.org/", testutil.Logger(t))

	sp := testutil.SeedSpecies(t, db, "Andricus quercuscalifornicus")
	other := testutil.SeedSpecies(t, db, "Bassettia pallida")
	testutil.Create(t, db, &models.Image{SpeciesID: sp.ID, Path: "gall/1/a/original.jpg"})
	b := testutil.Create(t, db, &models.Image{SpeciesID: sp.ID, Path: "gall/1/b/original.jpg"})
	testutil.Create(t, db, &models.Image{SpeciesID: other.ID, Path: "gall/2/c/original.jpg"})

	paths, err := svc.Paths(context.Background(), sp.ID)
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if len(paths.Original) != 2 {
		t.Fatalf("Paths: got %d originals, want 2", len(paths.Original))
	}
	if paths.Small[0] != "https://static.gallformers.org/gall/1/a/small.jpg" {
		t.Errorf("Small[0] = %q", paths.Small[0])
	}
	if paths.XLarge[1] != "https://static.gallformers.org/gall/1/b/xlarge.jpg" {
		t.Errorf("XLarge[1] = %q", paths.XLarge[1])
	}
	if paths.Original[0] != "https://static.gallformers.org/gall/1/a/original.jpg" {
		t.Errorf("Original[0] = %q", paths.Original[0])
	}

	paths, err = svc.Paths(context.Background(), sp.ID, b.ID)
	if err != nil {
		t.Fatalf("Paths(ids): %v", err)
	}
	if len(paths.Medium) != 1 || !strings.Contains(paths.Medium[0], "/b/medium.jpg") {
		t.Errorf("Paths(ids) = %+v", paths)
	}

	paths, err = svc.Paths(context.Background(), 9999)
	if err != nil {
		t.Fatalf("Paths(none): %v", err)
	}
	if paths.Large == nil || len(paths.Large) != 0 {
		t.Errorf("empty result should carry empty lists, got %+v", paths)
	}
}

func TestImageDeleteRemovesAllSizes(t *testing.T) {
	db := testutil.DB(t)
	store := newMemStore()
	svc := NewImageService(db, store, "https://static.gallformers.org", testutil.Logger(t))

	sp := testutil.SeedSpecies(t, db, "Andricus quercuscalifornicus")
	img := testutil.Create(t, db, &models.Image{SpeciesID: sp.ID, Path: "gall/1/a/original.jpg"})
	keep := testutil.Create(t, db, &models.Image{SpeciesID: sp.ID, Path: "gall/1/b/original.jpg"})

	n, err := svc.Delete(context.Background(), []int{img.ID})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted rows = %d, want 1", n)
	}

	sort.Strings(store.deleted)
	want := []string{
		"gall/1/a/large.jpg",
		"gall/1/a/medium.jpg",
		"gall/1/a/original.jpg",
		"gall/1/a/small.jpg",
		"gall/1/a/xlarge.jpg",
	}
	if strings.Join(store.deleted, ",") != strings.Join(want, ",") {
		t.Errorf("deleted keys = %v, want %v", store.deleted, want)
	}

	var remaining []models.Image
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Errorf("remaining images = %+v", remaining)
	}

	if _, err := svc.Delete(context.Background(), []int{img.ID}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete: expected ErrNotFound, got %v", err)
	}
}

func TestImageDeleteKeepsRowsWhenStorageFails(t *testing.T) {
	db := testutil.DB(t)
	store := newMemStore()
	store.failDel = errors.New("storage down")
	svc := NewImageService(db, store, "https://static.gallformers.org", testutil.Logger(t))

	sp := testutil.SeedSpecies(t, db, "Andricus quercuscalifornicus")
	img := testutil.Create(t, db, &models.Image{SpeciesID: sp.ID, Path: "gall/1/a/original.jpg"})

	if _, err := svc.Delete(context.Background(), []int{img.ID}); err == nil {
		t.Fatal("expected error")
	}
	var count int64
	db.Model(&models.Image{}).Count(&count)
	if count != 1 {
		t.Errorf("image rows = %d, want 1", count)
	}
}

func TestPresignUpload(t *testing.T) {
	svc := NewImageService(testutil.DB(t), newMemStore(), "https://static.gallformers.org", testutil.Logger(t))

	url, err := svc.PresignUpload(context.Background(), "gall/1/a/original.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("PresignUpload: %v", err)
	}
	if !strings.Contains(url, "gall/1/a/original.jpg") || !strings.Contains(url, PresignExpiry.String()) {
		t.Errorf("url = %q", url)
	}

	if _, err := svc.PresignUpload(context.Background(), "gall/1/a/photo.jpg", "image/jpeg"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestNewUploadPath(t *testing.T) {
	svc := NewImageService(nil, newMemStore(), "https://static.gallformers.org", testutil.Logger(t))

	a := svc.NewUploadPath(42, ".JPG")
	b := svc.NewUploadPath(42, "jpg")
	if a == b {
		t.Fatalf("upload paths must be unique, got %q twice", a)
	}
	if !strings.HasPrefix(a, "gall/42/42_") || !strings.HasSuffix(a, "_original.jpg") {
		t.Errorf("NewUploadPath = %q", a)
	}
	if got := variantKey(a, SizeSmall); !strings.HasSuffix(got, "_small.jpg") {
		t.Errorf("variantKey = %q", got)
	}
}
