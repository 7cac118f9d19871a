package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/editor-cms/pkg/app"
	"github.com/wadjakorntonsri/editor-cms/pkg/config"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{
		{"links", "list"}, {"links", "add"},
		{"columns", "list"}, {"columns", "export"}, {"columns", "import"},
		{"calendar"},
		{"tutorial", "list"}, {"tutorial", "complete"}, {"tutorial", "reset"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "xml", "tutorial", "list"})
	cmd.SetOut(io.Discard)
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

// authLog records the Authorization header of every column write.
type authLog struct {
	mu   sync.Mutex
	puts []string
}

func (l *authLog) add(h string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.puts = append(l.puts, h)
}

func (l *authLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.puts...)
}

// newTestRoot points the CLI at a fake CMS holding one column.
func newTestRoot(t *testing.T, puts *authLog) (*bytes.Buffer, func(args ...string) error) {
	t.Helper()
	var mu sync.Mutex
	links := []map[string]any{{"label": "A", "url": "https://a.example"}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.URL.Path == "/api/columns/doc-1" && r.Method == http.MethodPut:
			var body struct {
				Data struct {
					Links []map[string]any `json:"links"`
				} `json:"data"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			links = body.Data.Links
			puts.add(r.Header.Get("Authorization"))
			fallthrough
		case r.URL.Path == "/api/columns/doc-1":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
				"id": 1, "documentId": "doc-1", "slug": "weekly", "links": links,
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	dbPath := filepath.Join(t.TempDir(), "cli.sqlite")
	out := &bytes.Buffer{}
	run := func(args ...string) error {
		cmd := newRootCommand(&RootOptions{newApp: func() (*app.App, error) {
			return app.New(&config.Config{
				DatabaseURL:    "file:" + dbPath,
				StrapiURL:      srv.URL,
				StrapiAPIToken: "service-token",
				Endpoints:      config.DefaultEndpoints(),
			}, nil)
		}})
		out.Reset()
		cmd.SetOut(out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)
		return cmd.Execute()
	}
	return out, run
}

func TestLinksAddAndList(t *testing.T) {
	puts := &authLog{}
	out, run := newTestRoot(t, puts)

	require.NoError(t, run("links", "add", "doc-1", "--label", "B", "--url", "https://b.example", "--publish-date", "2025-03-01"))
	assert.Contains(t, out.String(), "Added 1 link(s) to doc-1 (2 total)")
	assert.Equal(t, []string{"Bearer service-token"}, puts.all())

	require.NoError(t, run("--token", "user-token", "links", "add", "doc-1", "--label", "C", "--url", "https://c.example"))
	assert.Equal(t, "Bearer user-token", puts.all()[1])

	require.NoError(t, run("--format", "json", "links", "list", "doc-1"))
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &listed))
	assert.Len(t, listed, 3)

	err := run("links", "add", "doc-1", "--label", "A", "--url", "https://A.example/")
	assert.Error(t, err)
	assert.Len(t, puts.all(), 2)
}

func TestLinksAddFromFile(t *testing.T) {
	puts := &authLog{}
	out, run := newTestRoot(t, puts)

	file := filepath.Join(t.TempDir(), "links.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"label":"X","url":"https://x.example"},{"label":"Y","url":"https://y.example"}]`), 0o600))

	require.NoError(t, run("links", "add", "doc-1", "--file", file))
	assert.Contains(t, out.String(), "Added 2 link(s)")
}

func TestTutorialCommands(t *testing.T) {
	puts := &authLog{}
	out, run := newTestRoot(t, puts)

	require.NoError(t, run("tutorial", "complete", "columns"))
	require.NoError(t, run("tutorial", "list"))
	assert.Contains(t, out.String(), "columns")

	require.NoError(t, run("tutorial", "reset", "columns"))
	require.NoError(t, run("tutorial", "list"))
	assert.NotContains(t, out.String(), "columns")
}
