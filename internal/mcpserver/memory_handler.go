package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/zcf0508/mem-mcp/internal/model"
	"github.com/zcf0508/mem-mcp/internal/services"
)

// MemoryToolHandler exposes the record lifecycle as MCP tools.
type MemoryToolHandler struct {
	svc *services.MemoryService
}

// NewMemoryToolHandler returns a new handler.
func NewMemoryToolHandler(svc *services.MemoryService) *MemoryToolHandler {
	return &MemoryToolHandler{svc: svc}
}

// RegisterTools registers memory tools.
func (mh *MemoryToolHandler) RegisterTools(s *server.MCPServer) error {
	listMemories := mcp.NewTool("list_memories",
		mcp.WithDescription("List the user's active memories with title, priority, and last access time"),
		mcp.WithString("token", mcp.Required(), mcp.Description("Opaque user token")),
	)
	s.AddTool(listMemories, mh.handleList)

	recallMemories := mcp.NewTool("recall_memories",
		mcp.WithDescription("Retrieve active memories, optionally filtered by a fuzzy multi-term query. Retrieval refreshes last-access time."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Opaque user token")),
		mcp.WithString("query", mcp.Description("Optional search query; all terms must match")),
	)
	s.AddTool(recallMemories, mh.handleRecall)

	saveMemory := mcp.NewTool("save_memory",
		mcp.WithDescription("Save a new memory. Priority P0 is permanent, P1 kept 90 days, P2 (default) kept 30 days after last access."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Opaque user token")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Memory title; also derives the filename")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Markdown content")),
		mcp.WithString("priority", mcp.Description("P0, P1, or P2 (default P2)")),
	)
	s.AddTool(saveMemory, mh.handleSave)

	updateMemory := mcp.NewTool("update_memory",
		mcp.WithDescription("Replace an existing memory's content by filename; the filename never changes"),
		mcp.WithString("token", mcp.Required(), mcp.Description("Opaque user token")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Record filename")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Memory title")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Replacement markdown content")),
		mcp.WithString("priority", mcp.Description("New priority; omitted keeps the current one")),
	)
	s.AddTool(updateMemory, mh.handleUpdate)

	deleteMemory := mcp.NewTool("delete_memory",
		mcp.WithDescription("Permanently delete an active memory"),
		mcp.WithString("token", mcp.Required(), mcp.Description("Opaque user token")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Record filename")),
	)
	s.AddTool(deleteMemory, mh.handleDelete)

	archiveMemory := mcp.NewTool("archive_memory",
		mcp.WithDescription("Move an active memory to the searchable archive"),
		mcp.WithString("token", mcp.Required(), mcp.Description("Opaque user token")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Record filename")),
	)
	s.AddTool(archiveMemory, mh.handleArchive)

	searchArchive := mcp.NewTool("search_archive",
		mcp.WithDescription("Search archived memories; does not refresh access times"),
		mcp.WithString("token", mcp.Required(), mcp.Description("Opaque user token")),
		mcp.WithString("query", mcp.Description("Optional search query")),
	)
	s.AddTool(searchArchive, mh.handleSearchArchive)

	sweepMemories := mcp.NewTool("sweep_memories",
		mcp.WithDescription("Run the retention sweep now. dry_run reports what would be archived without moving files."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Opaque user token")),
		mcp.WithBoolean("dry_run", mcp.Description("Classify without moving files")),
	)
	s.AddTool(sweepMemories, mh.handleSweep)

	return nil
}

func (mh *MemoryToolHandler) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start := time.Now()
	summaries, err := mh.svc.List(ctx, token)
	if err != nil {
		log.Error().Err(err).Str("token", token).Dur("elapsed", time.Since(start)).Msg("list_memories failed")
		return lenientEmptyOrError(err, `{"memories":[],"count":0}`), nil
	}

	payload, _ := json.Marshal(map[string]interface{}{"memories": summaries, "count": len(summaries)})
	log.Debug().Str("token", token).Int("count", len(summaries)).Dur("elapsed", time.Since(start)).Msg("list_memories completed")
	return mcp.NewToolResultText(string(payload)), nil
}

func (mh *MemoryToolHandler) handleRecall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query := req.GetString("query", "")

	start := time.Now()
	results, err := mh.svc.Read(ctx, token, query)
	if err != nil {
		log.Error().Err(err).Str("token", token).Dur("elapsed", time.Since(start)).Msg("recall_memories failed")
		return lenientEmptyOrError(err, "No memories found."), nil
	}

	log.Debug().Str("token", token).Str("query", query).Int("count", len(results)).Dur("elapsed", time.Since(start)).Msg("recall_memories completed")
	if len(results) == 0 {
		return mcp.NewToolResultText("No memories found."), nil
	}
	return mcp.NewToolResultText(strings.Join(results, "\n\n")), nil
}

func (mh *MemoryToolHandler) handleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	priority := req.GetString("priority", "")

	filename, err := mh.svc.Write(ctx, token, title, body, model.Priority(priority))
	if err != nil {
		log.Error().Err(err).Str("token", token).Msg("save_memory failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to save memory: %v", err)), nil
	}
	log.Debug().Str("token", token).Str("file", filename).Msg("save_memory completed")
	return mcp.NewToolResultText(fmt.Sprintf("Saved as %s", filename)), nil
}

func (mh *MemoryToolHandler) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var prio *model.Priority
	if p := req.GetString("priority", ""); p != "" {
		pv := model.Priority(p)
		prio = &pv
	}

	if err := mh.svc.Update(ctx, token, filename, title, body, prio); err != nil {
		log.Error().Err(err).Str("token", token).Str("file", filename).Msg("update_memory failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to update memory: %v", err)), nil
	}
	return mcp.NewToolResultText("Updated " + filename), nil
}

func (mh *MemoryToolHandler) handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := mh.svc.Delete(ctx, token, filename); err != nil {
		log.Error().Err(err).Str("token", token).Str("file", filename).Msg("delete_memory failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete memory: %v", err)), nil
	}
	return mcp.NewToolResultText("Deleted " + filename), nil
}

func (mh *MemoryToolHandler) handleArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := mh.svc.Archive(ctx, token, filename); err != nil {
		log.Error().Err(err).Str("token", token).Str("file", filename).Msg("archive_memory failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to archive memory: %v", err)), nil
	}
	return mcp.NewToolResultText("Archived " + filename), nil
}

func (mh *MemoryToolHandler) handleSearchArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query := req.GetString("query", "")

	results, err := mh.svc.SearchArchive(ctx, token, query)
	if err != nil {
		log.Error().Err(err).Str("token", token).Msg("search_archive failed")
		return lenientEmptyOrError(err, "No archived memories found."), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No archived memories found."), nil
	}
	return mcp.NewToolResultText(strings.Join(results, "\n\n")), nil
}

func (mh *MemoryToolHandler) handleSweep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dryRun := req.GetBool("dry_run", false)

	result, err := mh.svc.Sweep(ctx, token, dryRun, 0)
	if err != nil {
		log.Error().Err(err).Str("token", token).Msg("sweep_memories failed")
		return mcp.NewToolResultError(fmt.Sprintf("sweep failed: %v", err)), nil
	}
	payload, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(payload)), nil
}

// lenientEmptyOrError keeps read paths lenient: storage unavailability is
// reported as an empty result, anything else as a tool error.
func lenientEmptyOrError(err error, emptyPayload string) *mcp.CallToolResult {
	if errors.Is(err, model.ErrStorageUnavailable) {
		return mcp.NewToolResultText(emptyPayload)
	}
	return mcp.NewToolResultError(err.Error())
}
