package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDMiddleware(t *testing.T) {
	incoming := "3f2504e0-4f89-41d3-9a0c-0305e82c3301"

	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{name: "minted", header: "", wantSame: false},
		{name: "propagated", header: incoming, wantSame: true},
		{name: "rejected", header: "not-a-uuid", wantSame: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ctxRequestID string
			h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxRequestID = RequestIDFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			r := httptest.NewRequest(http.MethodGet, "/distribution", nil)
			if tc.header != "" {
				r.Header.Set(RequestIDHeader, tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			headerRequestID := w.Result().Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(headerRequestID); err != nil {
				t.Fatalf("expected header to contain UUID, got %q: %v", headerRequestID, err)
			}
			if ctxRequestID != headerRequestID {
				t.Fatalf("expected context request_id %q to match header %q", ctxRequestID, headerRequestID)
			}
			if got := headerRequestID == tc.header; got != tc.wantSame {
				t.Fatalf("header %q reused = %t, want %t", tc.header, got, tc.wantSame)
			}
		})
	}
}

func TestShouldTraceRequest(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/health", want: false},
		{path: "/metrics", want: false},
		{path: "/distribution", want: true},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if got := shouldTraceRequest(r); got != tc.want {
				t.Fatalf("path %q: expected %t, got %t", tc.path, tc.want, got)
			}
		})
	}
}

func TestLoggingMiddlewareWritesCompletionLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	h := LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	r := httptest.NewRequest(http.MethodPost, "/distribution", nil)
	r = r.WithContext(ContextWithRequestID(r.Context(), "req-123"))
	h.ServeHTTP(httptest.NewRecorder(), r)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Message != "request completed" {
		t.Fatalf("expected message %q, got %q", "request completed", entry.Message)
	}

	fields := entry.ContextMap()
	if fields["method"] != http.MethodPost {
		t.Fatalf("expected method %q, got %#v", http.MethodPost, fields["method"])
	}
	if fields["path"] != "/distribution" {
		t.Fatalf("expected path %q, got %#v", "/distribution", fields["path"])
	}
	if fields["status"] != int64(http.StatusTeapot) {
		t.Fatalf("expected status %d, got %#v", http.StatusTeapot, fields["status"])
	}
	if fields["bytes"] != int64(len("short and stout")) {
		t.Fatalf("expected bytes %d, got %#v", len("short and stout"), fields["bytes"])
	}
	if fields["request_id"] != "req-123" {
		t.Fatalf("expected request_id %q, got %#v", "req-123", fields["request_id"])
	}
}
