package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bbm-admin/apiserver/internal/services"
	"github.com/bbm-admin/apiserver/types"
	"github.com/go-chi/chi/v5"
)

type fakeImageRepo struct {
	images map[string]types.Image
	nextID int
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{images: make(map[string]types.Image)}
}

func (f *fakeImageRepo) List(_ context.Context, albumID string, _ int) ([]types.Image, error) {
	images := make([]types.Image, 0, len(f.images))
	for _, img := range f.images {
		if albumID != "" && (img.AlbumID == nil || *img.AlbumID != albumID) {
			continue
		}
		images = append(images, img)
	}
	return images, nil
}

func (f *fakeImageRepo) Create(_ context.Context, img types.Image) (types.Image, error) {
	f.nextID++
	img.ID = fmt.Sprintf("img-%d", f.nextID)
	f.images[img.ID] = img
	return img, nil
}

func (f *fakeImageRepo) FindByIDs(_ context.Context, ids []string) ([]types.Image, error) {
	found := make([]types.Image, 0, len(ids))
	for _, id := range ids {
		if img, ok := f.images[id]; ok {
			found = append(found, img)
		}
	}
	return found, nil
}

func (f *fakeImageRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := f.images[id]; ok {
			delete(f.images, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeObjectStore struct {
	configured bool
	objects    map[string][]byte
	deleteErr  error
	deleted    []string
}

func newFakeObjectStore(configured bool) *fakeObjectStore {
	return &fakeObjectStore{configured: configured, objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Configured() bool {
	return f.configured
}

func (f *fakeObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func newGalleryRouter(repo *fakeImageRepo, store *fakeObjectStore, strictDelete bool) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/gallery", func(r chi.Router) {
		service := services.NewImageService(repo, store, nil, strictDelete)
		GalleryRouter(r, service, RequireSession(testSecret))
	})
	return r
}

func seedImage(repo *fakeImageRepo, id string) {
	repo.images[id] = types.Image{ID: id, Path: "uploads/" + id + ".png", URL: "https://cdn.example.com/uploads/" + id + ".png"}
}

func TestDeleteImagesPartialMatch(t *testing.T) {
	repo := newFakeImageRepo()
	seedImage(repo, "i1")
	seedImage(repo, "i2")
	seedImage(repo, "i3")
	router := newGalleryRouter(repo, newFakeObjectStore(true), false)

	body := `{"ids":["i1","i2","i3","ghost"]}`
	req := httptest.NewRequest(http.MethodDelete, "/api/gallery", strings.NewReader(body))
	req.AddCookie(sessionCookie(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var parsed DeleteImagesResponse
	if err := json.NewDecoder(rec.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !parsed.Success || parsed.Deleted != 3 {
		t.Fatalf("expected 3 deletions, got %+v", parsed)
	}
	if len(repo.images) != 0 {
		t.Fatalf("expected all matching rows removed, %d left", len(repo.images))
	}
}

func TestDeleteImagesSingleID(t *testing.T) {
	repo := newFakeImageRepo()
	seedImage(repo, "i1")
	router := newGalleryRouter(repo, newFakeObjectStore(true), false)

	req := httptest.NewRequest(http.MethodDelete, "/api/gallery", strings.NewReader(`{"id":"i1"}`))
	req.AddCookie(sessionCookie(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var parsed DeleteImagesResponse
	if err := json.NewDecoder(rec.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if parsed.Deleted != 1 {
		t.Fatalf("expected 1 deletion, got %d", parsed.Deleted)
	}
}

func TestDeleteImagesWithoutIDs(t *testing.T) {
	router := newGalleryRouter(newFakeImageRepo(), newFakeObjectStore(true), false)

	req := httptest.NewRequest(http.MethodDelete, "/api/gallery", strings.NewReader(`{}`))
	req.AddCookie(sessionCookie(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteImagesStorageFailureProceeds(t *testing.T) {
	repo := newFakeImageRepo()
	seedImage(repo, "i1")
	store := newFakeObjectStore(true)
	store.deleteErr = errors.New("bucket unreachable")
	router := newGalleryRouter(repo, store, false)

	req := httptest.NewRequest(http.MethodDelete, "/api/gallery", strings.NewReader(`{"ids":["i1"]}`))
	req.AddCookie(sessionCookie(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite storage failure, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.images) != 0 {
		t.Fatalf("row must be removed even when the object delete fails")
	}
}

func TestDeleteImagesStrictStorageFailureAborts(t *testing.T) {
	repo := newFakeImageRepo()
	seedImage(repo, "i1")
	store := newFakeObjectStore(true)
	store.deleteErr = errors.New("bucket unreachable")
	router := newGalleryRouter(repo, store, true)

	req := httptest.NewRequest(http.MethodDelete, "/api/gallery", strings.NewReader(`{"ids":["i1"]}`))
	req.AddCookie(sessionCookie(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 in strict mode, got %d", rec.Code)
	}
	if len(repo.images) != 1 {
		t.Fatalf("strict mode must keep the row when the object delete fails")
	}
}

func TestUploadImage(t *testing.T) {
	repo := newFakeImageRepo()
	store := newFakeObjectStore(true)
	router := newGalleryRouter(repo, store, false)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(formFieldFile, "team.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake png bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.WriteField(formFieldAlbumID, "a1"); err != nil {
		t.Fatalf("write album field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/gallery/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(sessionCookie(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var parsed types.Image
	if err := json.NewDecoder(rec.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if parsed.ID == "" {
		t.Fatalf("expected image ID to be set")
	}
	if parsed.AlbumID == nil || *parsed.AlbumID != "a1" {
		t.Fatalf("expected album assignment, got %+v", parsed.AlbumID)
	}
	if !strings.HasPrefix(parsed.URL, "https://cdn.example.com/uploads/") {
		t.Fatalf("unexpected public URL: %q", parsed.URL)
	}
	if !strings.HasSuffix(parsed.Path, ".png") {
		t.Fatalf("object key must keep the extension, got %q", parsed.Path)
	}
	if len(store.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(store.objects))
	}
}

func TestUploadImageWithoutFile(t *testing.T) {
	router := newGalleryRouter(newFakeImageRepo(), newFakeObjectStore(true), false)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField(formFieldAlbumID, "a1"); err != nil {
		t.Fatalf("write album field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/gallery/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(sessionCookie(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadImageStorageNotConfigured(t *testing.T) {
	router := newGalleryRouter(newFakeImageRepo(), newFakeObjectStore(false), false)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(formFieldFile, "team.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake png bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/gallery/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(sessionCookie(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListImagesFilterByAlbum(t *testing.T) {
	repo := newFakeImageRepo()
	albumID := "a1"
	repo.images["i1"] = types.Image{ID: "i1", AlbumID: &albumID}
	repo.images["i2"] = types.Image{ID: "i2"}
	router := newGalleryRouter(repo, newFakeObjectStore(true), false)

	req := httptest.NewRequest(http.MethodGet, "/api/gallery?albumId=a1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var parsed []types.Image
	if err := json.NewDecoder(rec.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(parsed) != 1 || parsed[0].ID != "i1" {
		t.Fatalf("expected only the album member, got %+v", parsed)
	}
}
