package server

import (
	"net/http/httptest"
	"testing"

	"github.com/robertterquin/RIdeTrack/internal/config"
)

func TestHealthRoute(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0"}, nil, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0"}, nil, nil)

	for _, path := range []string{"/rides", "/goals", "/telemetry/sessions", "/routes"} {
		req := httptest.NewRequest("GET", path, nil)
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatalf("test request %s: %v", path, err)
		}
		if resp.StatusCode != 401 {
			t.Fatalf("expected 401 for %s, got %d", path, resp.StatusCode)
		}
	}
}
