package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"opsdeck/internal/core"
	"opsdeck/internal/services"
	"opsdeck/internal/snapshot"
	"opsdeck/internal/storage"
)

type testPublisher struct{ ids []string }

func (p *testPublisher) PublishPaymentRecorded(_ context.Context, id string) error {
	p.ids = append(p.ids, id)
	return nil
}

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	hub := snapshot.NewHub(repo)
	payments := services.NewPaymentService(repo, repo, &testPublisher{}, hub)
	registry := services.NewRegistryService(repo, hub)
	s := NewServer(":0", payments, registry, hub, []string{"Sudarsanan", "Sherhan"})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, repo
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	raw := rec.Body.Bytes()
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, raw)
	}
	if data != nil && env.Data != nil {
		inner, err := json.Marshal(env.Data)
		if err != nil {
			t.Fatalf("re-marshal data: %v", err)
		}
		if err := json.Unmarshal(inner, data); err != nil {
			t.Fatalf("decode data: %v (%s)", err, inner)
		}
	}
	return env
}

func seedServerProject(t *testing.T, repo *storage.SQLiteRepository) core.Project {
	t.Helper()
	p := core.Project{
		ID:            uuid.NewString(),
		Name:          "Retail POS",
		TotalCost:     core.Money{Cents: 10000000},
		DeveloperCost: core.Money{Cents: 4000000},
		Status:        core.StatusActive,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz: code=%d body=%q", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("readyz: code=%d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	// Generate a measured request first.
	doJSON(t, s, http.MethodGet, "/api/projects", nil)

	rec := doJSON(t, s, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: code=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "opsdeck_http_requests_total") {
		t.Error("metrics output missing request counter")
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/projects", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimitMutatingRequests(t *testing.T) {
	s, _ := newTestServer(t)

	var limited bool
	for i := 0; i < 70; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/notices", map[string]string{"text": "ping"})
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			if rec.Header().Get("Retry-After") != "60" {
				t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
			}
			break
		}
	}
	if !limited {
		t.Error("rate limiter never rejected 70 back-to-back posts")
	}

	// Reads stay unthrottled.
	rec := doJSON(t, s, http.MethodGet, "/api/notices", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("read after limit: code=%d", rec.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/unknown", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodDelete, "/api/dashboard", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("code = %d, want 405", rec.Code)
	}
}
