package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ansher/agreementtracker/config"
	"github.com/ansher/agreementtracker/middleware"
	"github.com/ansher/agreementtracker/model"
	"github.com/ansher/agreementtracker/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func dateIn(days int) *string {
	s := testNow.AddDate(0, 0, days).Format(model.DateLayout)
	return &s
}

type stubExtractor struct {
	extraction *model.Extraction
	err        error
}

func (s *stubExtractor) Extract(context.Context, []byte) (*model.Extraction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.extraction, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{MaxUploadMB: 1},
		Auth: config.AuthConfig{
			JWTSecret:        "test-secret",
			TokenExpireHours: 24,
		},
		Users: []config.User{{Username: "testuser", Password: "testpass"}},
	}
}

type testServer struct {
	router  *gin.Engine
	tracker *service.Tracker
	kv      service.KVStore
	token   string
}

func newTestServer(t *testing.T, kv service.KVStore, ext service.Extractor) *testServer {
	t.Helper()
	if kv == nil {
		kv = service.NewMemoryKV()
	}
	if ext == nil {
		ext = &stubExtractor{extraction: &model.Extraction{}}
	}

	tracker := service.NewTracker(service.NewAgreementStore(kv, 2), ext,
		service.WithClock(func() time.Time { return testNow }))
	if err := tracker.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load tracker: %v", err)
	}

	cfg := testConfig()
	router := gin.New()
	RegisterRoutes(router, cfg, tracker)

	token, _, err := middleware.GenerateToken("testuser", &cfg.Auth)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return &testServer{router: router, tracker: tracker, kv: kv, token: token}
}

func (s *testServer) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) seed(t *testing.T, in *model.Agreement) *model.Agreement {
	t.Helper()
	a, err := s.tracker.CreateManual(context.Background(), in)
	if err != nil {
		t.Fatalf("Failed to seed agreement: %v", err)
	}
	return a
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

