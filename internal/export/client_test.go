package export

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectpage/internal/cache"
	"projectpage/internal/config"
	"projectpage/internal/observability"
	"projectpage/internal/page"
)

func testCfg(timeout time.Duration) config.Config {
	var cfg config.Config
	cfg.Export.Scheme = "http"
	cfg.Export.Path = "/export/projtitl.php"
	cfg.Export.Timeout = timeout
	cfg.Export.MaxBytes = 1 << 20
	return cfg
}

func namesFor(ts *httptest.Server, group string) page.Names {
	return page.Names{Group: group, Domain: strings.TrimPrefix(ts.URL, "http://")}
}

func TestTitleURL(t *testing.T) {
	c := NewClient(testCfg(time.Second))

	got := c.TitleURL(page.DeriveNames("sbsa.r-forge.r-project.org"))
	assert.Equal(t, "http://r-forge.r-project.org/export/projtitl.php?group_name=sbsa", got)

	got = c.TitleURL(page.Names{Group: "a b&c", Domain: "example.org"})
	assert.Equal(t, "http://example.org/export/projtitl.php?group_name=a+b%26c", got)
}

func TestProjectTitle_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantOK  bool
		wantOut string
	}{
		{"ok", http.StatusOK, "<h1>Test</h1>", true, "<h1>Test</h1>"},
		{"empty body", http.StatusOK, "", true, ""},
		{"not found", http.StatusNotFound, "<h1>nope</h1>", false, ""},
		{"server error", http.StatusInternalServerError, "boom", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery, gotPath string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotQuery = r.URL.Query().Get("group_name")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			out, ok := NewClient(testCfg(time.Second)).ProjectTitle(context.Background(), namesFor(ts, "sbsa"))

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOut, out)
			assert.Equal(t, "/export/projtitl.php", gotPath)
			assert.Equal(t, "sbsa", gotQuery)
		})
	}
}

func TestProjectTitle_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	names := namesFor(ts, "sbsa")
	ts.Close()

	out, ok := NewClient(testCfg(time.Second)).ProjectTitle(context.Background(), names)
	assert.False(t, ok)
	assert.Empty(t, out)
}

func TestProjectTitle_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	start := time.Now()
	_, ok := NewClient(testCfg(50*time.Millisecond)).ProjectTitle(context.Background(), namesFor(ts, "sbsa"))

	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestProjectTitle_EmptyDomain(t *testing.T) {
	_, ok := NewClient(testCfg(time.Second)).ProjectTitle(context.Background(), page.Names{Group: "sbsa"})
	assert.False(t, ok)
}

func TestProjectTitle_BodyCap(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantOK  bool
		wantLen int
	}{
		{"under cap", 9, true, 9},
		{"exactly at cap", 10, true, 10},
		{"one over cap", 11, false, 0},
		{"far over cap", 100, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("x", tt.size)))
			}))
			defer ts.Close()

			before := testutil.ToFloat64(observability.ExportFetches.WithLabelValues(observability.OutcomeTooLarge))

			cfg := testCfg(time.Second)
			cfg.Export.MaxBytes = 10
			out, ok := NewClient(cfg).ProjectTitle(context.Background(), namesFor(ts, "sbsa"))

			assert.Equal(t, tt.wantOK, ok)
			assert.Len(t, out, tt.wantLen)
			tooLarge := testutil.ToFloat64(observability.ExportFetches.WithLabelValues(observability.OutcomeTooLarge))
			if tt.wantOK {
				assert.Equal(t, before, tooLarge)
			} else {
				assert.Equal(t, before+1, tooLarge)
			}
		})
	}
}

func TestCached_ServesHitsAndSkipsFailures(t *testing.T) {
	var hits atomic.Int32
	var fail atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("<h1>SBSA</h1>"))
	}))
	defer ts.Close()

	ctx := context.Background()
	store := cache.NewMemory(0)
	c := &Cached{Source: NewClient(testCfg(time.Second)), Store: store, TTL: time.Minute}

	// failures are not stored
	fail.Store(true)
	_, ok := c.ProjectTitle(ctx, namesFor(ts, "other"))
	require.False(t, ok)
	assert.Equal(t, 0, store.Len())

	fail.Store(false)
	for i := 0; i < 3; i++ {
		out, ok := c.ProjectTitle(ctx, namesFor(ts, "sbsa"))
		require.True(t, ok)
		assert.Equal(t, "<h1>SBSA</h1>", out)
	}
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 1, store.Len())
}
