package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcf0508/mem-mcp/internal/eviction"
	"github.com/zcf0508/mem-mcp/internal/services"
	"github.com/zcf0508/mem-mcp/internal/store/fsstore"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := fsstore.New(t.TempDir(), zerolog.Nop())
	sweeper := eviction.NewSweeper(st, zerolog.Nop(), nil)
	svc := services.NewMemoryService(st, sweeper, eviction.NewThrottle(24*time.Hour), zerolog.Nop())
	ts := httptest.NewServer(NewRouter(svc))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var payload map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, payload := doJSON(t, http.MethodGet, ts.URL+"/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", payload["status"])
}

func TestWriteListRecallRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/users/alice"

	resp, payload := doJSON(t, http.MethodPost, base+"/memories", map[string]string{
		"title":    "Morning Routine",
		"body":     "Wake at 6am",
		"priority": "P0",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "morning-routine.md", payload["filename"])

	resp, payload = doJSON(t, http.MethodGet, base+"/memories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, payload["count"])

	resp, payload = doJSON(t, http.MethodGet, base+"/memories/recall", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := payload["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Contains(t, results[0].(string), "priority: P0")
	assert.Contains(t, results[0].(string), "Wake at 6am")
}

func TestRecallWithQuery(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/users/alice"

	_, _ = doJSON(t, http.MethodPost, base+"/memories", map[string]string{"title": "Py Notes", "body": "python pipeline debug"})
	_, _ = doJSON(t, http.MethodPost, base+"/memories", map[string]string{"title": "Java Notes", "body": "java build issue"})

	resp, payload := doJSON(t, http.MethodGet, base+"/memories/recall?q=python+pipeline", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := payload["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Contains(t, results[0].(string), "py-notes.md")
}

func TestUpdateDeleteArchiveFlow(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/users/alice"

	_, _ = doJSON(t, http.MethodPost, base+"/memories", map[string]string{"title": "Note", "body": "v1"})

	resp, _ := doJSON(t, http.MethodPut, base+"/memories/note.md", map[string]string{"title": "Note", "body": "v2"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, base+"/memories/note.md/archive", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Archived record is out of reach for delete.
	resp, _ = doJSON(t, http.MethodDelete, base+"/memories/note.md", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, payload := doJSON(t, http.MethodGet, base+"/archive/recall", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, payload["count"])
}

func TestUnsafeIdentifiersRejected(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/users/alice"

	resp, _ := doJSON(t, http.MethodPut, base+"/memories/bad_name.md", map[string]string{"title": "x", "body": "y"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/users/UPPER/memories", map[string]string{"title": "x", "body": "y"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListUnknownUserIsEmpty(t *testing.T) {
	ts := newTestServer(t)
	resp, payload := doJSON(t, http.MethodGet, ts.URL+"/api/users/nobody/memories", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, payload["count"])
}

func TestManualSweep(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/users/alice"

	_, _ = doJSON(t, http.MethodPost, base+"/memories", map[string]string{"title": "Note", "body": "text"})

	resp, payload := doJSON(t, http.MethodPost, base+"/sweep", map[string]interface{}{"dryRun": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	kept := payload["kept"].([]interface{})
	assert.Len(t, kept, 1)
	assert.Empty(t, payload["archived"])
}
