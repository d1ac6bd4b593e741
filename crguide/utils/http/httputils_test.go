package httputils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPostJSONSetsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
	}))
	defer srv.Close()

	var out map[string]string
	if err := PostJSON(context.Background(), srv.Client(), srv.URL, map[string]string{"q": "hi"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["echo"] != "hi" {
		t.Errorf("expected echo hi, got %q", out["echo"])
	}
}

func TestPostJSONBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := PostJSON(context.Background(), srv.Client(), srv.URL, nil, nil)
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %v", err)
	}
}

func TestGetJSONWithBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer header, got %q", got)
		}
		w.Write([]byte(`{"name":"Ada"}`))
	}))
	defer srv.Close()

	var out map[string]any
	if err := GetJSONWithBearer(context.Background(), nil, srv.URL, "tok", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["name"] != "Ada" {
		t.Errorf("expected Ada, got %v", out["name"])
	}
}
