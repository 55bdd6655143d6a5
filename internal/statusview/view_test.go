package statusview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitSettled(t *testing.T, v *View) {
	t.Helper()
	select {
	case <-v.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not settle")
	}
}

func TestViewRendersPrettyPrintedPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	view := New(ts.URL)
	view.Mount(context.Background())
	waitSettled(t, view)

	assert.Equal(t, "{\n  \"status\": \"ok\"\n}", view.Render())

	health, ok := view.Health().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", health["status"])
}

func TestViewPreservesFieldOrder(t *testing.T) {
	// Indenting the raw bytes must not round-trip through a map, which
	// would alphabetize the keys
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"zebra":1,"alpha":2}`))
	}))
	defer ts.Close()

	view := New(ts.URL)
	view.Mount(context.Background())
	waitSettled(t, view)

	assert.Equal(t, "{\n  \"zebra\": 1,\n  \"alpha\": 2\n}", view.Render())
}

func TestViewFetchFailureLeavesRenderEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // refuse connections

	view := New(ts.URL)
	view.Mount(context.Background())
	waitSettled(t, view)

	assert.Empty(t, view.Render())
	assert.Nil(t, view.Health())
}

func TestViewUndecodableBodyLeavesRenderEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	view := New(ts.URL)
	view.Mount(context.Background())
	waitSettled(t, view)

	assert.Empty(t, view.Render())
}

func TestViewRendersNon2xxBodies(t *testing.T) {
	// The browser fetch promise only rejects on network errors, so a 503
	// health body is a payload like any other
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
	}))
	defer ts.Close()

	view := New(ts.URL)
	view.Mount(context.Background())
	waitSettled(t, view)

	assert.Equal(t, "{\n  \"status\": \"unhealthy\"\n}", view.Render())
}

func TestViewFetchesExactlyOncePerMount(t *testing.T) {
	var requests atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	view := New(ts.URL)
	view.Mount(context.Background())
	view.Mount(context.Background()) // no-op while mounted
	waitSettled(t, view)
	view.Mount(context.Background()) // still mounted, still a no-op

	assert.Equal(t, int64(1), requests.Load())

	view.Unmount()
	view.Mount(context.Background())
	waitSettled(t, view)

	assert.Equal(t, int64(2), requests.Load())
}

func TestViewUnmountDropsLateUpdate(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	view := New(ts.URL)
	view.Mount(context.Background())
	done := view.Done()
	view.Unmount()
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not settle")
	}

	assert.Empty(t, view.Render())
}

func TestViewFailureKeepsPriorPayload(t *testing.T) {
	var fail atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			_, _ = w.Write([]byte("garbage"))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	view := New(ts.URL)
	view.Mount(context.Background())
	waitSettled(t, view)
	require.NotEmpty(t, view.Render())

	fail.Store(true)
	view.Unmount()
	view.Mount(context.Background())
	waitSettled(t, view)

	// The failed refetch leaves the prior state slot unchanged
	assert.Equal(t, "{\n  \"status\": \"ok\"\n}", view.Render())
}

func TestViewDoneBeforeMount(t *testing.T) {
	view := New("http://localhost:0/health")
	select {
	case <-view.Done():
	default:
		t.Fatal("Done should be closed before the first mount")
	}
}
