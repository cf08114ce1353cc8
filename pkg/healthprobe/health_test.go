package healthprobe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	hc := New("mai-protocol")

	if hc == nil {
		t.Fatal("New() returned nil")
	}

	if time.Since(hc.startTime) > 1*time.Second {
		t.Errorf("Start time is too old: %v", hc.startTime)
	}

	// Not ready by default
	if hc.ready.Load() {
		t.Error("HealthChecker should not be ready by default")
	}
}

func TestHealth_Handler(t *testing.T) {
	hc := New("mai-protocol")

	handler := hc.Health()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Health handler status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", contentType)
	}

	var healthResp HealthResponse
	err := json.NewDecoder(resp.Body).Decode(&healthResp)
	if err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}

	if healthResp.Service != "mai-protocol" {
		t.Errorf("Service = %s, want mai-protocol", healthResp.Service)
	}

	if healthResp.Status != "healthy" {
		t.Errorf("Status = %s, want healthy", healthResp.Status)
	}

	if healthResp.Uptime == "" {
		t.Error("Uptime is empty")
	}
}

func TestHealth_AlwaysReturnsOK(t *testing.T) {
	// Health endpoint always returns 200, regardless of ready state
	hc := New("mai-protocol")

	for _, ready := range []bool{false, true} {
		hc.SetReady(ready)

		handler := hc.Health()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Health handler status = %d, want %d (ready=%v)", w.Code, http.StatusOK, ready)
		}
	}
}

func TestReady_StateChanges(t *testing.T) {
	hc := New("mai-protocol")
	handler := hc.Ready()

	// Initially not ready
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Initial ready status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var notReady HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&notReady); err != nil {
		t.Fatalf("Failed to decode ready response: %v", err)
	}
	if notReady.Status != "not_ready" {
		t.Errorf("Status = %s, want not_ready", notReady.Status)
	}
	if notReady.Message == "" {
		t.Error("Message is empty for not_ready state")
	}

	// Set ready
	hc.SetReady(true)
	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Ready status after SetReady(true) = %d, want %d", w.Code, http.StatusOK)
	}

	// Set not ready again
	hc.SetReady(false)
	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Ready status after SetReady(false) = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestHealthChecker_ConcurrentAccess(t *testing.T) {
	hc := New("mai-protocol")
	handler := hc.Ready()

	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			hc.SetReady(i%2 == 0)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()
			handler(w, req)
		}
		done <- true
	}()

	<-done
	<-done
}
