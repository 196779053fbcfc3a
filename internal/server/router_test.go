package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loykin/healthmon/internal/probe"
	"github.com/loykin/healthmon/internal/state"
)

type fakeMonitor struct {
	records   map[string]state.Record
	pending   []string
	triggered int
}

func (f *fakeMonitor) Statuses() []state.Record {
	out := make([]state.Record, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out
}

func (f *fakeMonitor) Status(name string) (state.Record, bool) {
	r, ok := f.records[name]
	return r, ok
}

func (f *fakeMonitor) PendingRetries() []string { return f.pending }
func (f *fakeMonitor) TriggerPass()             { f.triggered++ }

func newTestServer(t *testing.T, base string) (*fakeMonitor, *httptest.Server) {
	t.Helper()
	mon := &fakeMonitor{
		records: map[string]state.Record{
			"shop-web-1": {
				Name: "shop-web-1", Project: "shop",
				Status: probe.StatusHealthy, LastCheck: time.Now(),
			},
		},
		pending: []string{"shop-db-1"},
	}
	ts := httptest.NewServer(NewRouter(mon, base).Handler())
	t.Cleanup(ts.Close)
	return mon, ts
}

func TestStatusAll(t *testing.T) {
	_, ts := newTestServer(t, "/api")
	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var out []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0]["name"] != "shop-web-1" || out[0]["status"] != "healthy" {
		t.Fatalf("unexpected body: %v", out)
	}
}

func TestStatusSingle(t *testing.T) {
	_, ts := newTestServer(t, "/api")
	resp, err := http.Get(ts.URL + "/api/status?name=shop-web-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["project"] != "shop" {
		t.Fatalf("unexpected body: %v", out)
	}
}

func TestStatusUnknownName(t *testing.T) {
	_, ts := newTestServer(t, "/api")
	resp, err := http.Get(ts.URL + "/api/status?name=nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
}

func TestStatusRejectsUnsafeName(t *testing.T) {
	_, ts := newTestServer(t, "/api")
	resp, err := http.Get(ts.URL + "/api/status?name=..%2Fetc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestRetries(t *testing.T) {
	_, ts := newTestServer(t, "/api")
	resp, err := http.Get(ts.URL + "/api/retries")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var out struct {
		Pending []string `json:"pending"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Pending) != 1 || out.Pending[0] != "shop-db-1" {
		t.Fatalf("unexpected pending: %v", out.Pending)
	}
}

func TestCheckTriggersPass(t *testing.T) {
	mon, ts := newTestServer(t, "/api")
	resp, err := http.Post(ts.URL+"/api/check", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status %d, want 202", resp.StatusCode)
	}
	if mon.triggered != 1 {
		t.Fatalf("expected one triggered pass, got %d", mon.triggered)
	}
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, "")
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestSanitizeBase(t *testing.T) {
	cases := map[string]string{
		"":      "",
		"/":     "",
		"api":   "/api",
		"/api":  "/api",
		"/api/": "/api",
	}
	for in, want := range cases {
		if got := sanitizeBase(in); got != want {
			t.Fatalf("sanitizeBase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSafeName(t *testing.T) {
	for _, ok := range []string{"shop-web-1", "a.b_c-d", "X9"} {
		if !isSafeName(ok) {
			t.Fatalf("%q should be safe", ok)
		}
	}
	for _, bad := range []string{"", "..", "a/b", "a b", "a;b", "../x"} {
		if isSafeName(bad) {
			t.Fatalf("%q should be rejected", bad)
		}
	}
}
