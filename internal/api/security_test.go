package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name string
		hsts bool
	}{
		{"plain http", false},
		{"behind tls", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SecurityHeadersMiddleware(tt.hsts)(handler).ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

			if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("Expected nosniff, got %q", got)
			}
			if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
				t.Errorf("Expected DENY, got %q", got)
			}
			hasHSTS := w.Header().Get("Strict-Transport-Security") != ""
			if hasHSTS != tt.hsts {
				t.Errorf("HSTS present = %v, want %v", hasHSTS, tt.hsts)
			}
		})
	}
}

func TestInspectorSendsSecurityHeaders(t *testing.T) {
	f := newInspectorFixture(t, 1)
	rr := f.helper.MakeRequest("GET", "/api/v1/chunks")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff on inspector responses, got %q", got)
	}
}
