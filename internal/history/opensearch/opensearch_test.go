package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loykin/healthmon/internal/history"
)

func TestOpenSearchSinkSend(t *testing.T) {
	var receivedBody []byte
	var receivedURL string
	var receivedMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedMethod = r.Method
		receivedURL = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		receivedBody = body
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"test","_index":"health-events","result":"created"}`))
	}))
	defer server.Close()

	sink := New(server.URL, "health-events")
	event := history.Event{
		Type:       history.EventEscalation,
		OccurredAt: time.Now().UTC(),
		Name:       "shop-web-1",
		Project:    "shop",
		From:       "healthy",
		To:         "unhealthy",
		Attempt:    3,
	}
	if err := sink.Send(context.Background(), event); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if receivedMethod != "POST" {
		t.Errorf("Expected POST method, got: %s", receivedMethod)
	}
	if receivedURL != "/health-events/_doc" {
		t.Errorf("Expected /health-events/_doc, got: %s", receivedURL)
	}

	var got history.Event
	if err := json.Unmarshal(receivedBody, &got); err != nil {
		t.Fatalf("Failed to decode posted body: %v", err)
	}
	if got.Type != history.EventEscalation || got.Name != "shop-web-1" || got.Attempt != 3 {
		t.Fatalf("Unexpected posted event: %+v", got)
	}
}

func TestOpenSearchSinkErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink := New(server.URL, "health-events")
	err := sink.Send(context.Background(), history.Event{Type: history.EventTransition})
	if err == nil {
		t.Fatalf("Expected error on 500 response")
	}
}

func TestOpenSearchSinkUnreachable(t *testing.T) {
	sink := New("http://127.0.0.1:1", "health-events")
	if err := sink.Send(context.Background(), history.Event{Type: history.EventTransition}); err == nil {
		t.Fatalf("Expected connection error")
	}
}
