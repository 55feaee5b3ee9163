package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/compound-data-tool/internal/config"
	"github.com/tbourn/compound-data-tool/internal/repo"
	"github.com/tbourn/compound-data-tool/internal/services"
)

type fakeFetcher struct{}

func (fakeFetcher) Fetch(_ context.Context, code string) ([]byte, error) {
	return []byte(fmt.Sprintf(`{%q:[{"name":"n","formula":"f","inchi":"i","inchi_key":"k","smiles":"s","cross_links":[{},{}]}]}`, code)), nil
}

func newTestService(t *testing.T) *services.CompoundService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &services.CompoundService{DB: db, Fetcher: fakeFetcher{}, Log: zerolog.Nop()}
}

func testConfig(origins ...string) config.Config {
	return config.Config{
		RateRPS:   100,
		RateBurst: 50,
		CORS:      config.CORSConfig{AllowedOrigins: origins},
		OTEL:      config.OTELConfig{ServiceName: "cdt-test"},
	}
}

func newRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestService(t), cfg, zerolog.Nop())
	return r
}

func serve(r http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/health", map[string]string{"Origin": "http://any.example"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-all CORS expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing request id or security headers: %v", w.Header())
	}

	w = serve(r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "cdt_http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	if w := serve(r, http.MethodGet, "/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/health", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins(t *testing.T) {
	r := newRouter(t, testConfig("http://app.example"))

	w := serve(r, http.MethodGet, "/health", map[string]string{"Origin": "http://app.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://app.example" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	w = serve(r, http.MethodGet, "/health", map[string]string{"Origin": "http://evil.example"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("disallowed origin expected 403, got %d", w.Code)
	}
}

func TestCompoundLifecycle(t *testing.T) {
	r := newRouter(t, testConfig())
	base := APIBasePath + "/compounds"

	if w := serve(r, http.MethodGet, base+"/ATP", nil); w.Code != http.StatusNotFound {
		t.Fatalf("uncached GET expected 404, got %d", w.Code)
	}
	if w := serve(r, http.MethodPost, base+"/atp/actualize", nil); w.Code != http.StatusOK {
		t.Fatalf("actualize expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w := serve(r, http.MethodGet, base, nil)
	var stamps []map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &stamps); err != nil {
		t.Fatalf("list json: %v", err)
	}
	if len(stamps) != 1 || stamps[0]["compound"] != "ATP" {
		t.Fatalf("unexpected list: %v", stamps)
	}

	w = serve(r, http.MethodGet, base+"/ATP?full=1", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"cross_links_count":2`) {
		t.Fatalf("GET ATP: %d %s", w.Code, w.Body.String())
	}

	if w := serve(r, http.MethodPost, base+"/HOH/actualize", nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unsupported expected 422, got %d", w.Code)
	}
	if w := serve(r, http.MethodDelete, base+"/ATP", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete expected 204, got %d", w.Code)
	}
	if w := serve(r, http.MethodDelete, base+"/ATP", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete expected 404, got %d", w.Code)
	}
}

func TestRegisterRoutes_Gzip(t *testing.T) {
	r := newRouter(t, testConfig())
	w := serve(r, http.MethodGet, APIBasePath+"/compounds/supported", map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q; want gzip", got)
	}
}

func TestRegisterRoutes_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := newRouter(t, cfg)

	if w := serve(r, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/health", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d; want 429", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func TestNewServer_Timeouts(t *testing.T) {
	cfg := config.Config{
		Addr:              ":0",
		ReadTimeout:       time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      3 * time.Second,
		IdleTimeout:       4 * time.Second,
	}
	srv := NewServer(cfg, http.NotFoundHandler())
	if srv.Addr != ":0" || srv.ReadTimeout != time.Second || srv.ReadHeaderTimeout != 2*time.Second ||
		srv.WriteTimeout != 3*time.Second || srv.IdleTimeout != 4*time.Second {
		t.Fatalf("unexpected server: %+v", srv)
	}
}
