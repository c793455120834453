package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		payload    any
		expected   string
	}{
		{"map", http.StatusOK, map[string]string{"key": "value"}, `{"key":"value"}`},
		{"slice", http.StatusCreated, []string{"alpha", "beta"}, `["alpha","beta"]`},
		{"bool", http.StatusOK, true, `true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()

			WriteJSON(recorder, tt.statusCode, tt.payload)

			if recorder.Code != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, recorder.Code)
			}
			if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}
			if got := strings.TrimSpace(recorder.Body.String()); got != tt.expected {
				t.Errorf("expected body %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestWriteErrorWithVariousMessages(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		message    string
	}{
		{"NotFound", http.StatusNotFound, "blocklist is empty"},
		{"Unauthorized", http.StatusUnauthorized, "invalid token"},
		{"Conflict", http.StatusConflict, "blocklist is managed by the remote url"},
		{"EmptyMessage", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()

			WriteError(recorder, tt.statusCode, tt.message)

			if recorder.Code != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, recorder.Code)
			}

			var decoded ErrorBody
			if err := json.NewDecoder(recorder.Body).Decode(&decoded); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}
			if decoded.Error != tt.message {
				t.Errorf("expected error=%q, got %q", tt.message, decoded.Error)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Enabled bool `json:"enabled"`
	}
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"enabled":true}`))
	if err := DecodeJSON(httptest.NewRecorder(), req, &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dst.Enabled {
		t.Error("expected enabled=true")
	}
}

func TestDecodeJSONRejectsInvalidBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "enabled"},
		{"too large", `{"x":"` + strings.Repeat("a", MaxBodyBytes) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst map[string]string
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))
			if err := DecodeJSON(httptest.NewRecorder(), req, &dst); err == nil {
				t.Error("expected error")
			}
		})
	}
}
