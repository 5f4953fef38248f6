//go:build e2e

package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bbm-admin/apiserver/config"
	"github.com/bbm-admin/apiserver/internal/db"
	"github.com/bbm-admin/apiserver/internal/server"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const (
	serverPort    = 18080
	adminEmail    = "e2e-admin@example.com"
	adminPassword = "testpass123!"
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	setServerEnv()

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := seedAdmin(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed admin: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestJobLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	client := loginClient(t, baseURL)

	job, err := createJob(t, client, baseURL)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if job.ID == 0 {
		t.Fatalf("expected job ID to be set")
	}
	if job.JobStatus != "published" {
		t.Fatalf("expected default status published, got %q", job.JobStatus)
	}

	updated, err := patchJob(t, client, baseURL, job.ID, `{"jobStatus":"closed"}`)
	if err != nil {
		t.Fatalf("update job: %v", err)
	}
	if updated.JobStatus != "closed" {
		t.Fatalf("expected status closed, got %q", updated.JobStatus)
	}

	stats, err := fetchStats(t, client, baseURL)
	if err != nil {
		t.Fatalf("fetch stats: %v", err)
	}
	if stats.TotalJobs < 1 || stats.ClosedJobs < 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := deleteJob(t, client, baseURL, job.ID); err != nil {
		t.Fatalf("delete job: %v", err)
	}
	if err := expectJobNotFound(t, client, baseURL, job.ID); err != nil {
		t.Fatalf("expected deleted job to be missing: %v", err)
	}
}

func TestAlbumLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	client := loginClient(t, baseURL)

	album, err := createAlbum(t, client, baseURL)
	if err != nil {
		t.Fatalf("create album: %v", err)
	}
	if album.ID == "" {
		t.Fatalf("expected album ID to be set")
	}

	memberIDs := []string{"e2e-img-1", "e2e-img-2"}
	if err := seedAlbumImages(album.ID, memberIDs...); err != nil {
		t.Fatalf("seed album images: %v", err)
	}
	members, err := fetchGallery(t, client, baseURL, "?albumId="+album.ID)
	if err != nil {
		t.Fatalf("fetch album members: %v", err)
	}
	if len(members) != len(memberIDs) {
		t.Fatalf("expected %d album members, got %d", len(memberIDs), len(members))
	}

	patched, err := patchAlbum(t, client, baseURL, album.ID, `{"description":null,"name":"Renamed"}`)
	if err != nil {
		t.Fatalf("patch album: %v", err)
	}
	if patched.Name != "Renamed" {
		t.Fatalf("expected renamed album, got %q", patched.Name)
	}
	if patched.Description != nil {
		t.Fatalf("expected cleared description, got %q", *patched.Description)
	}

	if err := deleteAlbum(t, client, baseURL, album.ID); err != nil {
		t.Fatalf("delete album: %v", err)
	}

	// Member images must survive the album deletion with their album
	// reference cleared.
	orphaned, err := fetchGallery(t, client, baseURL, "?albumId="+album.ID)
	if err != nil {
		t.Fatalf("fetch by deleted album: %v", err)
	}
	if len(orphaned) != 0 {
		t.Fatalf("no image may still reference the deleted album, got %d", len(orphaned))
	}

	all, err := fetchGallery(t, client, baseURL, "")
	if err != nil {
		t.Fatalf("fetch gallery: %v", err)
	}
	byID := make(map[string]imageRecord, len(all))
	for _, img := range all {
		byID[img.ID] = img
	}
	for _, id := range memberIDs {
		img, ok := byID[id]
		if !ok {
			t.Fatalf("image %s must survive album deletion", id)
		}
		if img.AlbumID != nil {
			t.Fatalf("image %s must have albumId null after album deletion, got %q", id, *img.AlbumID)
		}
	}
}

func TestWritesRequireSession(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)

	resp, err := http.Post(baseURL+"/api/jobs", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post job: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}
}

type jobResponse struct {
	ID        int     `json:"id"`
	Title     string  `json:"title"`
	Salary    float64 `json:"salary"`
	JobStatus string  `json:"jobStatus"`
}

type albumResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type imageRecord struct {
	ID      string  `json:"id"`
	AlbumID *string `json:"albumId"`
}

type statsResponse struct {
	TotalJobs     int `json:"totalJobs"`
	PublishedJobs int `json:"publishedJobs"`
	DraftJobs     int `json:"draftJobs"`
	ClosedJobs    int `json:"closedJobs"`
}

// loginClient authenticates and returns a client whose cookie jar
// carries the session cookie.
func loginClient(t *testing.T, baseURL string) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar, Timeout: 10 * time.Second}

	payload := fmt.Sprintf(`{"email":%q,"password":%q}`, adminEmail, adminPassword)
	resp, err := client.Post(baseURL+"/api/auth/login", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("login status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return client
}

func createJob(t *testing.T, client *http.Client, baseURL string) (jobResponse, error) {
	t.Helper()

	body := `{
		"title": "E2E Test Engineer",
		"jobDescription": "Exercise the full stack end to end.",
		"jobType": "Permanent",
		"location": "Remote",
		"salary": "90000",
		"jobTime": "09:00-18:00"
	}`
	resp, err := client.Post(baseURL+"/api/jobs", "application/json", strings.NewReader(body))
	if err != nil {
		return jobResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return jobResponse{}, fmt.Errorf("create job status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return jobResponse{}, err
	}
	return parsed, nil
}

func patchJob(t *testing.T, client *http.Client, baseURL string, id int, body string) (jobResponse, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/api/jobs/%d", baseURL, id), strings.NewReader(body))
	if err != nil {
		return jobResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return jobResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return jobResponse{}, fmt.Errorf("patch job status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return jobResponse{}, err
	}
	return parsed, nil
}

func deleteJob(t *testing.T, client *http.Client, baseURL string, id int) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/jobs/%d", baseURL, id), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete job status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func expectJobNotFound(t *testing.T, client *http.Client, baseURL string, id int) error {
	t.Helper()

	resp, err := client.Get(fmt.Sprintf("%s/api/jobs/%d", baseURL, id))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expected 404 after delete, got %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func fetchStats(t *testing.T, client *http.Client, baseURL string) (statsResponse, error) {
	t.Helper()

	resp, err := client.Get(baseURL + "/api/dashboard/stats")
	if err != nil {
		return statsResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return statsResponse{}, fmt.Errorf("stats status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return statsResponse{}, err
	}
	return parsed, nil
}

func createAlbum(t *testing.T, client *http.Client, baseURL string) (albumResponse, error) {
	t.Helper()

	body := `{"name":"E2E Album","description":"Created by the e2e suite"}`
	resp, err := client.Post(baseURL+"/api/albums", "application/json", strings.NewReader(body))
	if err != nil {
		return albumResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return albumResponse{}, fmt.Errorf("create album status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed albumResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return albumResponse{}, err
	}
	return parsed, nil
}

func patchAlbum(t *testing.T, client *http.Client, baseURL, id, body string) (albumResponse, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/api/albums/%s", baseURL, id), strings.NewReader(body))
	if err != nil {
		return albumResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return albumResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return albumResponse{}, fmt.Errorf("patch album status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed albumResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return albumResponse{}, err
	}
	return parsed, nil
}

func deleteAlbum(t *testing.T, client *http.Client, baseURL, id string) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/albums/%s", baseURL, id), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete album status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func fetchGallery(t *testing.T, client *http.Client, baseURL, query string) ([]imageRecord, error) {
	t.Helper()

	resp, err := client.Get(baseURL + "/api/gallery" + query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gallery status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed []imageRecord
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// seedAlbumImages inserts image rows attached to the given album,
// bypassing the upload path so the suite does not depend on object
// storage being available.
func seedAlbumImages(albumID string, ids ...string) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.BuildDSN(cfg.Database))
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, id := range ids {
		if _, err := conn.ExecContext(ctx, `
			INSERT INTO images (id, album_id, url, path, filename)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET album_id = EXCLUDED.album_id`,
			id,
			albumID,
			"https://cdn.example.com/uploads/"+id+".png",
			"uploads/"+id+".png",
			id+".png",
		); err != nil {
			return err
		}
	}
	return nil
}

func setServerEnv() {
	_ = os.Setenv("AUTH_SECRET", "e2e-test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "backoffice")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "backoffice_db")
	_ = os.Setenv("DB_USE_SSL", "false")
}

func seedAdmin() error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.BuildDSN(cfg.Database))
	if err != nil {
		return err
	}
	defer conn.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = conn.ExecContext(ctx, `
		INSERT INTO admins (email, password_hash, active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, active = TRUE`,
		adminEmail, string(hash))
	return err
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.BuildDSN(cfg.Database))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, db.BuildDSN(cfg.Database))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
