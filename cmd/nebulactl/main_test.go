package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const artifactsJSON = `[
	{"id": 7, "slug": "void_shard", "name": "Void Shard", "rarity": "EPIC", "baseChance": 0.05, "createdAt": "2025-01-01"},
	{"slug": "star_dust", "name": "Star Dust", "rarity": "COMMON", "baseChance": 0.5}
]`

func TestValidate_OK(t *testing.T) {
	path := writeFile(t, "artifacts.json", artifactsJSON)

	out, _, err := run(t, "validate", "artifacts", path)
	require.NoError(t, err)
	assert.Equal(t, "artifacts.json: 2 artifact templates ok\n", out)
}

func TestValidate_ReportsElement(t *testing.T) {
	path := writeFile(t, "tasks.json", `[{"slug":"a","title":{"en":"A","ru":"А"}},{"slug":"b","title":{"en":"B"}}]`)

	_, _, err := run(t, "validate", "tasks", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Template 2:")
}

func TestValidate_UnknownEntity(t *testing.T) {
	path := writeFile(t, "x.json", `[]`)

	_, _, err := run(t, "validate", "spaceships", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entity")
}

func TestList_SortedByChance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/artifact-templates", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":`+artifactsJSON+`}`)
	}))
	defer srv.Close()

	out, _, err := run(t, "list", "artifacts", "--backend", srv.URL, "--token", "tok", "--sort", "baseChance")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "SLUG"))
	assert.Contains(t, lines[1], "void_shard")
	assert.Contains(t, lines[2], "star_dust")
}

func TestList_RequiresBackend(t *testing.T) {
	t.Setenv("BACKEND_URL", "")

	_, _, err := run(t, "list", "tasks", "--backend", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend URL is required")
}

func TestImport_EventsOneByOne(t *testing.T) {
	var posted []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		var body []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		slug := body[0]["slug"].(string)
		posted = append(posted, slug)
		if slug == "dup" {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"message":"Event already exists"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	path := writeFile(t, "events.json", `[
		{"slug":"meteor","name":{"en":"Meteor","ru":"Метеор"}},
		{"slug":"dup","name":{"en":"Dup","ru":"Дубль"}}
	]`)

	out, stderr, err := run(t, "import", "events", path, "--backend", srv.URL, "--token", "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"meteor", "dup"}, posted)
	assert.Equal(t, "imported 1 of 2 event templates\n", out)
	assert.Contains(t, stderr, "Template 2: Event already exists")
}

func TestExport_One(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, artifactsJSON)
	}))
	defer srv.Close()

	dir := t.TempDir()
	out, _, err := run(t, "export", "artifacts", "--slug", "star_dust", "-o", dir, "--backend", srv.URL)
	require.NoError(t, err)

	path := filepath.Join(dir, "artifacts-star_dust.json")
	assert.Equal(t, "saved "+path+"\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"slug": "star_dust"`)
}
