package server

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/onnwee/chatfilter/pipeline"
	"github.com/onnwee/chatfilter/prefs"
)

type nullHost struct{}

func (nullHost) Emit(pipeline.Event, string) error           { return nil }
func (nullHost) Print(string) error                          { return nil }
func (nullHost) SelfNick() string                            { return "me" }
func (nullHost) Participants(string) []string                { return nil }
func (nullHost) FindSurface(string) (pipeline.Surface, bool) { return nil, false }
func (nullHost) OpenSurface(string, bool)                    {}

func newTestPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	settings, err := prefs.Open(filepath.Join(t.TempDir(), "test.conf"))
	if err != nil {
		t.Fatal(err)
	}
	p := pipeline.New(pipeline.Options{
		Host:            nullHost{},
		Settings:        settings,
		IgnoredCapacity: 10,
		CaughtCapacity:  10,
		RedirectSurface: "[caught-msgs]",
		SurfaceTimeout:  time.Second,
	})
	p.Load()
	return p
}

func TestHealthz(t *testing.T) {
	h := NewMux(newTestPipeline(t))
	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("healthz status = %d", w.Code)
	}
	if got := w.Header().Get("X-Correlation-ID"); got == "" {
		t.Error("missing correlation id header")
	}
}

func TestCorrelationHeaderReused(t *testing.T) {
	h := NewMux(newTestPipeline(t))
	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "fixed-id")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("X-Correlation-ID"); got != "fixed-id" {
		t.Errorf("correlation id = %q, want fixed-id", got)
	}
}

func TestStatus(t *testing.T) {
	p := newTestPipeline(t)
	if _, err := p.Catchers.Add("urgent"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Ignored.Add("^spam"); err != nil {
		t.Fatal(err)
	}

	h := NewMux(p)
	req := httptest.NewRequest("GET", "/status", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}

	var payload statusPayload
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Patterns.Catchers != 1 || payload.Patterns.Ignored != 1 {
		t.Errorf("pattern counts = %+v", payload.Patterns)
	}
	if payload.Redirect {
		t.Error("redirect should default to false")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewMux(newTestPipeline(t))
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Error("empty metrics body")
	}
}
