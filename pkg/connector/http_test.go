package connector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tessera-hq/warden/pkg/routing"
)

func target(endpoint string) *routing.RouteTarget {
	return &routing.RouteTarget{ID: "t1", PoolID: "p1", Endpoint: endpoint, IsActive: true}
}

func TestHTTP_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("auth header = %q", r.Header.Get("X-Api-Key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"completion":"hello"}`))
	}))
	defer srv.Close()

	conn := NewHTTP(HTTPConfig{AuthHeader: "X-Api-Key", AuthToken: "secret"}, nil)
	output, err := conn.Invoke(context.Background(), target(srv.URL), map[string]any{"prompt": "hi"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if output["completion"] != "hello" {
		t.Errorf("output = %v", output)
	}
}

func TestHTTP_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream overloaded", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	conn := NewHTTP(HTTPConfig{MaxRetries: 2}, nil)
	start := time.Now()
	output, err := conn.Invoke(context.Background(), target(srv.URL), nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if output["ok"] != true {
		t.Errorf("output = %v", output)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d; want 3", calls.Load())
	}
	// Two retries back off 1s then 2s.
	if time.Since(start) < 3*time.Second {
		t.Error("retries did not back off")
	}
}

func TestHTTP_ClientErrorsDoNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	conn := NewHTTP(HTTPConfig{MaxRetries: 3}, nil)
	_, err := conn.Invoke(context.Background(), target(srv.URL), nil)
	if err == nil {
		t.Fatal("Invoke accepted a 400")
	}
	var invokeErr *InvokeError
	if !errors.As(err, &invokeErr) || invokeErr.StatusCode != http.StatusBadRequest {
		t.Errorf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d; want 1", calls.Load())
	}
}

func TestHTTP_MissingEndpoint(t *testing.T) {
	conn := NewHTTP(HTTPConfig{}, nil)
	if _, err := conn.Invoke(context.Background(), &routing.RouteTarget{ID: "t1"}, nil); err == nil {
		t.Error("Invoke accepted a target without an endpoint")
	}
}
