package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"gallformers/models"
	"gallformers/services"
	"gallformers/storage"
	"gallformers/testutil"
)

type nopStore struct{}

func (nopStore) Put(context.Context, string, []byte, string) (storage.PutResult, error) {
	return storage.PutResult{StatusCode: http.StatusOK}, nil
}
func (nopStore) Delete(context.Context, ...string) error { return nil }
func (nopStore) List(context.Context, string) ([]storage.Object, error) {
	return nil, nil
}
func (nopStore) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://bucket.example/" + key + "?X-Amz-Signature=sig", nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)

	oak := testutil.SeedHostPlant(t, db, "Quercus alba")
	sp := testutil.SeedSpecies(t, db, "Andricus quercuscalifornicus")
	testutil.SeedHost(t, db, sp, oak)
	ridge := testutil.Create(t, db, &models.Location{Location: "ridge"})
	g := testutil.SeedGall(t, db, sp, models.Gall{Detachable: testutil.IntPtr(1)})
	testutil.LinkLocation(t, db, g, ridge)
	testutil.Create(t, db, &models.Image{SpeciesID: sp.ID, Path: "gall/1/a/original.jpg"})

	router := newRouter(
		services.NewFilterFieldService(db, log),
		services.NewSearchService(db, log),
		services.NewImageService(db, nopStore{}, "https://static.gallformers.org", log),
		log,
	)
	return router
}

func do(t *testing.T, router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFilterFieldRoutes(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/filter-fields/shape", `{"field":"globular","description":"round"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST: status %d body %s", w.Code, w.Body)
	}
	var created models.FilterField
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == 0 || created.Field != "globular" {
		t.Fatalf("created = %+v", created)
	}

	w = do(t, router, http.MethodGet, "/filter-fields/shape?name=globular", "")
	var found []models.FilterField
	if err := json.Unmarshal(w.Body.Bytes(), &found); err != nil || len(found) != 1 {
		t.Fatalf("GET by name: status %d body %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodGet, "/filter-fields/habitat", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: status %d, want 400", w.Code)
	}

	path := "/filter-fields/shape/" + strconv.Itoa(created.ID)
	if w = do(t, router, http.MethodDelete, path, ""); w.Code != http.StatusOK {
		t.Fatalf("DELETE: status %d body %s", w.Code, w.Body)
	}
	if w = do(t, router, http.MethodDelete, path, ""); w.Code != http.StatusNotFound {
		t.Errorf("second DELETE: status %d, want 404", w.Code)
	}
}

func TestSearchRoutes(t *testing.T) {
	router := newTestRouter(t)

	if w := do(t, router, http.MethodGet, "/search", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing host: status %d, want 400", w.Code)
	}

	q := url.Values{"host": {"Quercus alba"}, "locations": {"ridge"}, "detachable": {"1"}}
	w := do(t, router, http.MethodGet, "/search?"+q.Encode(), "")
	var galls []models.Gall
	if err := json.Unmarshal(w.Body.Bytes(), &galls); err != nil || len(galls) != 1 {
		t.Fatalf("GET /search: status %d body %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodPost, "/search", `{"host":"Quercus alba","locations":"[\"ridge\",\"vein\"]"}`)
	if err := json.Unmarshal(w.Body.Bytes(), &galls); err != nil || len(galls) != 1 {
		t.Fatalf("POST /search: status %d body %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodPost, "/search", `{"host":"Quercus alba","locations":["ridge"]}`)
	if err := json.Unmarshal(w.Body.Bytes(), &galls); err != nil || len(galls) != 1 {
		t.Fatalf("POST /search with list: status %d body %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodPost, "/search", `{"host":"Quercus alba","locations":["null"]}`)
	if err := json.Unmarshal(w.Body.Bytes(), &galls); err != nil || len(galls) != 0 {
		t.Fatalf("POST /search with list [\"null\"]: status %d body %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodPost, "/search", `{"host":"Quercus alba","locations":"[\"ridge\""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed locations: status %d, want 400", w.Code)
	}
}

func TestImageRoutes(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/species/2/images", "")
	var paths models.ImagePaths
	if err := json.Unmarshal(w.Body.Bytes(), &paths); err != nil || len(paths.Small) != 1 {
		t.Fatalf("GET images: status %d body %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodPost, "/images/presign", `{"species_id":2,"ext":"jpg","mime":"image/jpeg"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "X-Amz-Signature") {
		t.Errorf("presign: status %d body %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodDelete, "/images", `{"ids":[1]}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"deleted":1`) {
		t.Errorf("delete: status %d body %s", w.Code, w.Body)
	}
}
