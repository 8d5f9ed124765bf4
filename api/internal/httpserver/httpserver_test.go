package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-helper/api/internal/book"
	"task-helper/api/internal/config"
	"task-helper/api/internal/handle"
	"task-helper/api/internal/llm"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	public := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(public, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(public, "index.html"), []byte("<h1>tutor</h1>"), 0o644))

	cfg := config.Default()
	h := handle.New(cfg, handle.Deps{
		Books: book.NewLibrary(filepath.Join(dir, "books")),
		AI:    llm.NewGateway(llm.NewOpenRouter("", ""), llm.Options{}),
	})
	srv := httptest.NewServer(Routes(h, public))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoutes(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/books", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	b, _ := io.ReadAll(resp2.Body)
	assert.JSONEq(t, `{"books":[]}`, string(b))
	assert.Equal(t, "abc-123", resp2.Header.Get(requestIDHeader))

	resp3, err := http.Get(srv.URL + "/api/task/strict")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp3.StatusCode)
	assert.Equal(t, "POST", resp3.Header.Get("Allow"))
	b, _ = io.ReadAll(resp3.Body)
	assert.JSONEq(t, `{"error":"method not allowed"}`, string(b))

	resp4, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp4.Body.Close()
	b, _ = io.ReadAll(resp4.Body)
	assert.Contains(t, string(b), "<h1>tutor</h1>")
}

func TestUnknownAPIPathIsJSON(t *testing.T) {
	srv := newServer(t)

	for _, path := range []string{"/api/nope", "/api/task/unknown"} {
		resp, err := http.Post(srv.URL+path, "application/json", nil)
		require.NoError(t, err)
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json", path)
		assert.JSONEq(t, `{"error":"not found"}`, string(b), path)
	}

	resp, err := http.Get(srv.URL + "/api/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}

func TestRecover(t *testing.T) {
	h := RequestLog(Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), time.Second)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
