package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"product-catalog/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type fakeDatabase struct {
	status string
}

func (f *fakeDatabase) DB() *sql.DB { return nil }

func (f *fakeDatabase) Health(ctx context.Context) map[string]string {
	return map[string]string{"status": f.status}
}

func (f *fakeDatabase) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "test"},
		JWT:       config.JWTConfig{Secret: "secret"},
		RateLimit: config.RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute},
		Cache:     config.CacheConfig{ProductTTL: time.Minute},
	}
}

func checkHealth(t *testing.T, srv *Server) (int, map[string]interface{}) {
	t.Helper()

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	return w.Code, body
}

func TestHealth(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	db := &fakeDatabase{status: "up"}
	srv := NewServer(testConfig(), zap.NewNop(), db, redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	if code, body := checkHealth(t, srv); code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("Expected ok, got %d %v", code, body)
	}

	mr.Close()
	if code, body := checkHealth(t, srv); code != http.StatusOK || body["status"] != "degraded" {
		t.Errorf("Expected degraded without redis, got %d %v", code, body)
	}

	db.status = "down"
	if code, body := checkHealth(t, srv); code != http.StatusServiceUnavailable || body["status"] != "unavailable" {
		t.Errorf("Expected 503 without a database, got %d %v", code, body)
	}
}

func TestHealthWithoutRedis(t *testing.T) {
	srv := NewServer(testConfig(), zap.NewNop(), &fakeDatabase{status: "up"}, nil)

	code, body := checkHealth(t, srv)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if _, ok := body["redis"]; ok {
		t.Error("Expected no redis section when redis is not configured")
	}
}

func TestCatalogWritesNeedToken(t *testing.T) {
	srv := NewServer(testConfig(), zap.NewNop(), &fakeDatabase{status: "up"}, nil)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/products/1", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}
