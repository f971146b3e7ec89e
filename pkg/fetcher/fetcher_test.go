package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dtnitsch/release-scraper/pkg/caching"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer srv.Close()

	cache, err := caching.NewCache(t.TempDir(), time.Hour, "test-agent")
	require.NoError(t, err)
	f := NewFetcher("test-agent", 5*time.Second, WithCache(cache))

	data, err := f.Fetch(context.Background(), srv.URL+"/downloads")
	require.NoError(t, err)
	require.Contains(t, string(data), "<title>ok</title>")

	_, err = f.Fetch(context.Background(), srv.URL+"/downloads")
	require.NoError(t, err)
	require.Equal(t, 1, hits)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	require.ErrorContains(t, err, "status code: 404")
}

func TestFetch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFetcher("", time.Second).Fetch(ctx, "http://127.0.0.1:1/")
	require.Error(t, err)
}
