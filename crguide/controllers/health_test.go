package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fixedCount int

func (f fixedCount) Len() int { return int(f) }

func TestHealthCheck(t *testing.T) {
	hc := NewHealthController(fixedCount(3))
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	hc.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	expectedBody := `{"sessions":3,"status":"ok"}`
	if strings.TrimSpace(rr.Body.String()) != expectedBody {
		t.Errorf("expected body %q, got %q", expectedBody, rr.Body.String())
	}

	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type application/json, got %v", rr.Header().Get("Content-Type"))
	}
}

func TestHealthCheckWithoutSessions(t *testing.T) {
	hc := NewHealthController(nil)
	rr := httptest.NewRecorder()
	hc.HealthCheck(rr, httptest.NewRequest("GET", "/", nil))

	if got := strings.TrimSpace(rr.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("unexpected body %q", got)
	}
}
