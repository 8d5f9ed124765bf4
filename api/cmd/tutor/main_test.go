package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-helper/api/internal/book/booktest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, findBook, findTask, findPage, askType, askModel = "", "", 0, 0, "chat", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	booktest.Write(t, dir, "algebra.pdf", "page one", "534. foo 535. Compute 2+2. 536. bar")
	t.Setenv("BOOKS_DIR", dir)

	out, err := run(t, "find", "--book", "algebra.pdf", "--task", "535")
	require.NoError(t, err)
	assert.Equal(t, "page 2\n535. Compute 2+2.\n", out)

	_, err = run(t, "find", "--book", "algebra.pdf", "--task", "535", "--page", "1")
	assert.ErrorContains(t, err, "task 535 not found")

	_, err = run(t, "find", "--book", "missing.pdf", "--task", "1")
	assert.Error(t, err)
}

func TestAsk(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"m","choices":[{"message":{"content":"Дріб — це частина цілого."}}]}`))
	}))
	defer srv.Close()
	t.Setenv("OPENROUTER_API_KEY", "k")
	t.Setenv("OPENROUTER_BASE_URL", srv.URL)
	t.Setenv("AI_MAX_RETRIES", "0")

	out, err := run(t, "ask", "--type", "math", "--model", "my/model", "Що таке дріб?")
	require.NoError(t, err)
	assert.Equal(t, "Дріб — це частина цілого.\n", out)
	assert.Equal(t, "my/model", got["model"])
	assert.InDelta(t, 0.4, got["temperature"], 1e-9)
}

func TestAskNotConfigured(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	_, err := run(t, "ask", "hi")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutor.yaml")
	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "books_dir: books")

	_, err = run(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")
}
