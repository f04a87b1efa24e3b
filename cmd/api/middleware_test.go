package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ejacobg/moviesdb/internal/data"
)

func TestRecoverPanic(t *testing.T) {
	app := newTestApplication(t, data.NewMemoryMovieModel())

	handler := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if got := rr.Header().Get("Connection"); got != "close" {
		t.Errorf("Connection = %q, want close", got)
	}
}

func TestRequestID(t *testing.T) {
	app := newTestApplication(t, data.NewMemoryMovieModel())

	var seen string
	handler := app.requestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = app.contextGetRequestID(r)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rr.Header().Get("X-Request-ID") != seen {
		t.Errorf("generated id %q, header %q", seen, rr.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if seen != "abc-123" || rr.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("incoming id not reused: context %q, header %q", seen, rr.Header().Get("X-Request-ID"))
	}
}

func TestRateLimit(t *testing.T) {
	app := newTestApplication(t, data.NewMemoryMovieModel())
	app.config.limiter.enabled = true
	app.config.limiter.rps = 0.001
	app.config.limiter.burst = 2

	handler := app.routes()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
		codes = append(codes, rr.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d status = %d, want %d", i, codes[i], want[i])
		}
	}

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.RemoteAddr = "198.51.100.7:4321"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("second client status = %d, want %d", rr.Code, http.StatusOK)
	}
}

type staticHandler struct{}

func (staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {}

func TestRateLimitDisabled(t *testing.T) {
	app := newTestApplication(t, data.NewMemoryMovieModel())

	next := &staticHandler{}
	if got := app.rateLimit(next); got != http.Handler(next) {
		t.Error("disabled limiter wrapped the handler")
	}
}

func TestHealthcheck(t *testing.T) {
	app := newTestApplication(t, data.NewMemoryMovieModel())

	res := app.do(t, http.MethodGet, "/healthcheck", "")
	if res.status != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.status, http.StatusOK)
	}

	var status string
	if err := json.Unmarshal(res.body["status"], &status); err != nil || status != "available" {
		t.Errorf("status = %q (%v), want available", status, err)
	}
	if res.header.Get("X-Request-ID") == "" {
		t.Error("response has no X-Request-ID header")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	app := newTestApplication(t, data.NewMemoryMovieModel())

	res := app.do(t, http.MethodDelete, "/movies/1", "")
	if res.status != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", res.status, http.StatusMethodNotAllowed)
	}
}
