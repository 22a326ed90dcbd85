package mcpserver

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcf0508/mem-mcp/internal/eviction"
	"github.com/zcf0508/mem-mcp/internal/services"
	"github.com/zcf0508/mem-mcp/internal/store/fsstore"
)

func newTestHandler(t *testing.T) *MemoryToolHandler {
	t.Helper()
	st := fsstore.New(t.TempDir(), zerolog.Nop())
	sweeper := eviction.NewSweeper(st, zerolog.Nop(), nil)
	svc := services.NewMemoryService(st, sweeper, eviction.NewThrottle(24*time.Hour), zerolog.Nop())
	return NewMemoryToolHandler(svc)
}

func callReq(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", res.Content[0])
	return tc.Text
}

func TestSaveAndRecallTools(t *testing.T) {
	mh := newTestHandler(t)
	ctx := context.Background()

	res, err := mh.handleSave(ctx, callReq(map[string]any{
		"token":    "alice",
		"title":    "Morning Routine",
		"body":     "Wake at 6am",
		"priority": "P0",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "Saved as morning-routine.md", textOf(t, res))

	res, err = mh.handleRecall(ctx, callReq(map[string]any{"token": "alice"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := textOf(t, res)
	assert.Contains(t, text, "=== morning-routine.md ===")
	assert.Contains(t, text, "priority: P0")
	assert.Contains(t, text, "Wake at 6am")
}

func TestRecallToolWithQuery(t *testing.T) {
	mh := newTestHandler(t)
	ctx := context.Background()

	_, err := mh.handleSave(ctx, callReq(map[string]any{"token": "alice", "title": "Py Notes", "body": "python pipeline debug"}))
	require.NoError(t, err)
	_, err = mh.handleSave(ctx, callReq(map[string]any{"token": "alice", "title": "Java Notes", "body": "java build issue"}))
	require.NoError(t, err)

	res, err := mh.handleRecall(ctx, callReq(map[string]any{"token": "alice", "query": "python pipeline"}))
	require.NoError(t, err)
	text := textOf(t, res)
	assert.Contains(t, text, "py-notes.md")
	assert.NotContains(t, text, "java-notes.md")
}

func TestRecallToolEmpty(t *testing.T) {
	mh := newTestHandler(t)

	res, err := mh.handleRecall(context.Background(), callReq(map[string]any{"token": "nobody"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "No memories found.", textOf(t, res))
}

func TestListToolPayload(t *testing.T) {
	mh := newTestHandler(t)
	ctx := context.Background()

	_, err := mh.handleSave(ctx, callReq(map[string]any{"token": "alice", "title": "Note", "body": "text"}))
	require.NoError(t, err)

	res, err := mh.handleList(ctx, callReq(map[string]any{"token": "alice"}))
	require.NoError(t, err)
	text := textOf(t, res)
	assert.Contains(t, text, `"count":1`)
	assert.Contains(t, text, "note.md")
}

func TestUpdateDeleteArchiveTools(t *testing.T) {
	mh := newTestHandler(t)
	ctx := context.Background()

	_, err := mh.handleSave(ctx, callReq(map[string]any{"token": "alice", "title": "Note", "body": "v1"}))
	require.NoError(t, err)

	res, err := mh.handleUpdate(ctx, callReq(map[string]any{
		"token": "alice", "filename": "note.md", "title": "Note", "body": "v2",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "Updated note.md", textOf(t, res))

	res, err = mh.handleArchive(ctx, callReq(map[string]any{"token": "alice", "filename": "note.md"}))
	require.NoError(t, err)
	assert.Equal(t, "Archived note.md", textOf(t, res))

	// Archived records are no longer deletable through the active set.
	res, err = mh.handleDelete(ctx, callReq(map[string]any{"token": "alice", "filename": "note.md"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = mh.handleSearchArchive(ctx, callReq(map[string]any{"token": "alice", "query": "v2"}))
	require.NoError(t, err)
	assert.Contains(t, textOf(t, res), "note.md")
}

func TestSweepToolDryRun(t *testing.T) {
	mh := newTestHandler(t)
	ctx := context.Background()

	_, err := mh.handleSave(ctx, callReq(map[string]any{"token": "alice", "title": "Note", "body": "text"}))
	require.NoError(t, err)

	res, err := mh.handleSweep(ctx, callReq(map[string]any{"token": "alice", "dry_run": true}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := textOf(t, res)
	assert.Contains(t, text, `"kept":["note.md"]`)
}

func TestMissingRequiredArgument(t *testing.T) {
	mh := newTestHandler(t)

	res, err := mh.handleSave(context.Background(), callReq(map[string]any{"token": "alice"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestInvalidPriorityRejected(t *testing.T) {
	mh := newTestHandler(t)

	res, err := mh.handleSave(context.Background(), callReq(map[string]any{
		"token": "alice", "title": "Note", "body": "text", "priority": "P9",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
