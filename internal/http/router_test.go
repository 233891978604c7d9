package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bagooon/chatease-intake/internal/config"
	"github.com/bagooon/chatease-intake/internal/domain"
	"github.com/bagooon/chatease-intake/internal/notify"
	"github.com/bagooon/chatease-intake/internal/session"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.FormDefinition{}, &domain.Setting{}, &domain.SubmissionRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:     "/api/v1",
		RateRPS:         100,
		RateBurst:       50,
		FormTokenSecret: "router-test-secret",
		FormTokenTTL:    time.Hour,
		Security:        config.SecurityConfig{EnableHSTS: false},
		OTEL:            config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newTestRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, db, session.NewMemoryStore(time.Minute), &notify.LogNotifier{}, cfg)
	return r, db
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	// /health works
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"http://example.com"}
	r, _ := newTestRouter(t, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("echoed origin = %q", got)
	}

	// Unlisted origins get nothing.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example.net")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected ACAO for unlisted origin: %q", got)
	}
}

// stubBoardServer mimics the board API for the admin validation call and
// the board creation call.
func stubBoardServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/board/name", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "Acme Support"})
	})
	mux.HandleFunc("/api/v1/board", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"slug":     "b-123",
			"hostURL":  "https://chatease.jp/host/b-123",
			"guestURL": "https://chatease.jp/guest/b-123",
		})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

// TestRegisterRoutes_FullFlow drives the complete intake through the real
// router: save credentials via the admin API, fetch the form, confirm, and
// submit against a stub board server.
func TestRegisterRoutes_FullFlow(t *testing.T) {
	ts := stubBoardServer(t)
	cfg := testConfig()
	cfg.ChatEaseBaseURL = ts.URL
	r, db := newTestRouter(t, cfg)

	send := func(method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		for _, c := range cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// Configure credentials; the save validates against the stub.
	w := send(http.MethodPut, "/api/v1/admin/settings",
		`{"api_token":"tok-1","workspace_slug":"acme"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT settings = %d body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Acme Support") {
		t.Fatalf("workspace name not validated: %s", w.Body.String())
	}

	// Fetch the form: token + visitor cookie.
	w = send(http.MethodGet, "/api/v1/forms/0", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET form = %d body = %s", w.Code, w.Body.String())
	}
	var meta struct {
		Token         string `json:"token"`
		WorkspaceName string `json:"workspace_name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta.Token == "" {
		t.Fatal("no token issued")
	}
	if meta.WorkspaceName != "Acme Support" {
		t.Fatalf("workspace_name = %q", meta.WorkspaceName)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no visitor cookie minted")
	}

	// Confirm.
	body := fmt.Sprintf(`{"token":%q,"company":"Acme","name":"Jane","email":"jane@example.com","message":"Hello there"}`, meta.Token)
	w = send(http.MethodPost, "/api/v1/forms/0/confirm", body, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm = %d body = %s", w.Code, w.Body.String())
	}
	var step struct {
		Step   string   `json:"step"`
		Errors []string `json:"errors"`
		Token  string   `json:"token"`
		Board  *struct {
			GuestURL string `json:"guest_url"`
		} `json:"board"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &step); err != nil {
		t.Fatalf("decode confirm: %v", err)
	}
	if step.Step != "confirm" || len(step.Errors) != 0 {
		t.Fatalf("confirm step = %+v", step)
	}

	// Submit.
	w = send(http.MethodPost, "/api/v1/forms/0/submit", fmt.Sprintf(`{"token":%q}`, step.Token), cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("submit = %d body = %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &step); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	if step.Step != "complete" || len(step.Errors) != 0 {
		t.Fatalf("submit step = %+v body = %s", step, w.Body.String())
	}
	if step.Board == nil || step.Board.GuestURL != "https://chatease.jp/guest/b-123" {
		t.Fatalf("board = %+v", step.Board)
	}

	// One audit row was written.
	var count int64
	if err := db.Model(&domain.SubmissionRecord{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("submission rows = %d", count)
	}
}

// TestRegisterRoutes_FlowWithoutCredentials surfaces the configuration
// sentinel to the visitor at submit time.
func TestRegisterRoutes_FlowWithoutCredentials(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/forms/0", nil))
	var meta struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	cookies := w.Result().Cookies()

	body := fmt.Sprintf(`{"token":%q,"name":"Jane","email":"jane@example.com","message":"Hi"}`, meta.Token)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/0/confirm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var step struct {
		Step  string `json:"step"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &step); err != nil {
		t.Fatalf("decode confirm: %v", err)
	}
	if step.Step != "confirm" {
		t.Fatalf("confirm step = %+v body = %s", step, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/forms/0/submit", strings.NewReader(fmt.Sprintf(`{"token":%q}`, step.Token)))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out struct {
		Step   string   `json:"step"`
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	if out.Step != "input" || len(out.Errors) != 1 {
		t.Fatalf("out = %+v", out)
	}
	if out.Errors[0] != "api token and workspace slug are not configured" {
		t.Fatalf("error = %q", out.Errors[0])
	}
}
