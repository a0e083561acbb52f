package trace

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/log"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func TestMiddlewareCountsByStatus(t *testing.T) {
	m := NewMiddleware(nil, quietLogger())
	statuses := []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError, 0}

	for _, status := range statuses {
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if status != 0 {
				w.WriteHeader(status)
			}
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 4 {
		t.Errorf("TotalRequests = %d, want 4", got.TotalRequests)
	}
	if got.ClientErrors != 1 || got.ServerErrors != 1 {
		t.Errorf("errors = %d/%d, want 1/1", got.ClientErrors, got.ServerErrors)
	}
}

func TestMiddlewareRequestID(t *testing.T) {
	m := NewMiddleware(nil, quietLogger())

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("generated id = %q, want req_ prefix", seen)
	}

	chained := chimw.RequestID(h)
	chained.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || strings.HasPrefix(seen, "req_") {
		t.Errorf("chi id not reused, got %q", seen)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}
