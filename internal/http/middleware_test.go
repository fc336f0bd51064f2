package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecoveryKeepsRequestID(t *testing.T) {
	ts := newTestServer()
	ts.mux.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		if RequestID(r.Context()) != "req-42" {
			t.Errorf("expected the caller's request id, got %q", RequestID(r.Context()))
		}
		panic("kaboom")
	})
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestStatusRecorder(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	if rec.code() != http.StatusOK {
		t.Fatalf("expected implicit 200, got %d", rec.code())
	}
	rec.Write([]byte("hello"))
	rec.WriteHeader(http.StatusTeapot)
	if rec.code() != http.StatusOK || rec.bytes != 5 {
		t.Fatalf("expected first status and byte count to stick, got %d/%d", rec.code(), rec.bytes)
	}
}

func TestClientAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/status", nil)
	r.RemoteAddr = "10.0.0.7:5123"
	if got := clientAddr(r); got != "10.0.0.7" {
		t.Fatalf("expected remote host, got %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientAddr(r); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded address, got %q", got)
	}
}
