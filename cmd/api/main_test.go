package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ejacobg/moviesdb/internal/data"
	"github.com/ejacobg/moviesdb/internal/jsonlog"
)

func TestParseFlags(t *testing.T) {
	cfg, displayVersion, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if displayVersion {
		t.Error("version flag set by default")
	}
	if cfg.port != 8000 || cfg.store != "postgres" || !cfg.cache || cfg.db.driver != "postgres" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.limiter.enabled {
		t.Error("rate limiter is enabled by default")
	}

	cfg, _, err = parseFlags([]string{"-store=memory", "-cache=false", "-limiter-enabled", "-limiter-burst=10", "-db-driver=pgx"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.store != "memory" || cfg.cache || !cfg.limiter.enabled || cfg.limiter.burst != 10 || cfg.db.driver != "pgx" {
		t.Errorf("flags not applied: %+v", cfg)
	}

	if _, _, err := parseFlags([]string{"-no-such-flag"}); err == nil {
		t.Error("expected an error for an unknown flag")
	}
}

// With the default configuration, a single client fetching the same movie in parallel
// gets the record every time.
func TestDefaultConfigConcurrentShowMovie(t *testing.T) {
	cfg, _, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	memory := data.NewMemoryMovieModel()
	if err := memory.Insert(&data.Movie{Title: "Casablanca", Year: 1942, Description: "A nightclub."}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	app := &application{
		config: cfg,
		logger: jsonlog.New(io.Discard, jsonlog.LevelOff),
		models: data.Models{Movies: memory}.Cached(),
	}

	ts := httptest.NewServer(app.routes())
	defer ts.Close()

	const n = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[int]int)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Get(fmt.Sprintf("%s/movies/1", ts.URL))
			if err != nil {
				t.Errorf("GET: %v", err)
				return
			}
			resp.Body.Close()

			mu.Lock()
			codes[resp.StatusCode]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if codes[http.StatusOK] != n {
		t.Errorf("status counts = %v, want %d responses with 200", codes, n)
	}
}
