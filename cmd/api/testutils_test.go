package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ejacobg/moviesdb/internal/data"
	"github.com/ejacobg/moviesdb/internal/jsonlog"
)

// countingStore wraps a MovieStore and counts every call that reaches it.
type countingStore struct {
	data.MovieStore
	inserts atomic.Int32
	gets    atomic.Int32
}

func (s *countingStore) Insert(movie *data.Movie) error {
	s.inserts.Add(1)
	return s.MovieStore.Insert(movie)
}

func (s *countingStore) Get(id int64) (*data.Movie, error) {
	s.gets.Add(1)
	return s.MovieStore.Get(id)
}

// testApplication builds its handler once, on first use, so config changes made
// before the first request still apply.
type testApplication struct {
	*application
	once    sync.Once
	handler http.Handler
}

func (app *testApplication) routes() http.Handler {
	app.once.Do(func() {
		app.handler = app.application.routes()
	})
	return app.handler
}

// newTestApplication returns an application with the limiter off and logging discarded.
func newTestApplication(t *testing.T, store data.MovieStore) *testApplication {
	t.Helper()

	var cfg config
	cfg.env = "testing"
	cfg.store = "memory"

	return &testApplication{
		application: &application{
			config: cfg,
			logger: jsonlog.New(io.Discard, jsonlog.LevelOff),
			models: data.Models{Movies: store},
		},
	}
}

type response struct {
	status int
	header http.Header
	raw    []byte
	body   map[string]json.RawMessage
}

func (app *testApplication) do(t *testing.T, method, target, body string) response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rr := httptest.NewRecorder()

	app.routes().ServeHTTP(rr, req)

	res := response{status: rr.Code, header: rr.Header(), raw: rr.Body.Bytes()}
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(res.raw, &res.body); err != nil {
			t.Fatalf("%s %s: response is not a JSON object: %q", method, target, rr.Body.String())
		}
	}
	return res
}

// decodeMovie reads a bare movie record from the response body.
func decodeMovie(t *testing.T, res response) data.Movie {
	t.Helper()

	var movie data.Movie
	if err := json.Unmarshal(res.raw, &movie); err != nil {
		t.Fatalf("decoding movie from %s: %v", res.raw, err)
	}
	return movie
}
