package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/config"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/models"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/search"
)

type stubBackend struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (b *stubBackend) Lookup(_ context.Context, kind models.Kind, term string, _ int) ([]models.Record, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	if b.err != nil {
		return nil, b.err
	}
	if kind == models.KindArticle && strings.EqualFold(term, "seo") {
		return []models.Record{&models.Article{ID: "a1", Title: "SEO basics", Slug: "seo-basics", Status: models.StatusPublished}}, nil
	}
	return nil, nil
}

func (b *stubBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type stubHealth struct{ err error }

func (h stubHealth) Health(context.Context) error { return h.err }

func newTestServer(t *testing.T, b *stubBackend, cfg *config.API, health error) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := search.New(b, search.Options{Logger: log, LookupTimeout: time.Second})
	t.Cleanup(agg.Stop)

	if cfg == nil {
		cfg = &config.API{CORSOrigins: []string{"*"}}
	}
	srv := httptest.NewServer(newRouter(&server{log: log, search: agg, health: stubHealth{err: health}}, cfg, nil))
	t.Cleanup(srv.Close)
	return srv
}

func getSearch(t *testing.T, srv *httptest.Server, q string) (int, searchResponse) {
	t.Helper()
	res, err := http.Get(srv.URL + "/search?q=" + q)
	require.NoError(t, err)
	defer res.Body.Close()

	var body searchResponse
	if res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	}
	return res.StatusCode, body
}

func TestHandleSearch(t *testing.T) {
	b := &stubBackend{}
	srv := newTestServer(t, b, nil, nil)

	status, body := getSearch(t, srv, "seo")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "seo", body.Query)
	require.Len(t, body.Results, 1)
	require.Equal(t, models.KindArticle, body.Results[0].Kind)
	require.Equal(t, "/blog/seo-basics", body.Results[0].URL)
	require.Equal(t, 4, b.Calls())
}

func TestHandleSearchBlankQuery(t *testing.T) {
	b := &stubBackend{}
	srv := newTestServer(t, b, nil, nil)

	status, body := getSearch(t, srv, "%20%20")
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, body.Results)
	require.Empty(t, body.Results)
	require.Zero(t, b.Calls())
}

func TestHandleSearchBackendFailureIsEmpty(t *testing.T) {
	b := &stubBackend{err: errors.New("cluster down")}
	srv := newTestServer(t, b, nil, nil)

	status, body := getSearch(t, srv, "seo")
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, body.Results)
}

func TestSearchRateLimited(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, &config.API{CORSOrigins: []string{"*"}, RateLimit: 0.001, RateBurst: 1}, nil)

	status, _ := getSearch(t, srv, "seo")
	require.Equal(t, http.StatusOK, status)

	status, _ = getSearch(t, srv, "seo")
	require.Equal(t, http.StatusTooManyRequests, status)
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, &config.API{CORSOrigins: []string{"https://site.example.com"}}, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/search?q=seo", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://site.example.com")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, "https://site.example.com", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestHandleHealth(t *testing.T) {
	ok := newTestServer(t, &stubBackend{}, nil, nil)
	res, err := http.Get(ok.URL + "/health")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	down := newTestServer(t, &stubBackend{}, nil, errors.New("red"))
	res, err = http.Get(down.URL + "/health")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}
