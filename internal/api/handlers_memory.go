package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/zcf0508/mem-mcp/internal/api/respond"
	"github.com/zcf0508/mem-mcp/internal/model"
	"github.com/zcf0508/mem-mcp/internal/services"
)

// MemoryHandler is a thin HTTP transport over the MemoryService.
type MemoryHandler struct {
	svc *services.MemoryService
}

func NewMemoryHandler(svc *services.MemoryService) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

// writeOpError maps engine errors onto the lenient HTTP surface: bad
// identifiers are 400, missing targets 404, everything else 500.
func writeOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidIdentifier), errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}

// ListMemories GET /api/users/{token}/memories
func (h *MemoryHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	summaries, err := h.svc.List(r.Context(), token)
	if err != nil {
		if errors.Is(err, model.ErrStorageUnavailable) {
			// Read paths degrade to empty rather than failing the caller.
			log.Warn().Err(err).Str("token", token).Msg("list degraded to empty")
			respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"memories": []model.RecordSummary{}, "count": 0})
			return
		}
		writeOpError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"memories": summaries, "count": len(summaries)})
}

// RecallMemories GET /api/users/{token}/memories/recall?q=
func (h *MemoryHandler) RecallMemories(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	query := r.URL.Query().Get("q")
	results, err := h.svc.Read(r.Context(), token, query)
	if err != nil {
		if errors.Is(err, model.ErrStorageUnavailable) {
			log.Warn().Err(err).Str("token", token).Msg("recall degraded to empty")
			respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"results": []string{}, "count": 0})
			return
		}
		writeOpError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"results": results, "count": len(results)})
}

// SearchArchive GET /api/users/{token}/archive/recall?q=
func (h *MemoryHandler) SearchArchive(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	query := r.URL.Query().Get("q")
	results, err := h.svc.SearchArchive(r.Context(), token, query)
	if err != nil {
		if errors.Is(err, model.ErrStorageUnavailable) {
			log.Warn().Err(err).Str("token", token).Msg("archive search degraded to empty")
			respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"results": []string{}, "count": 0})
			return
		}
		writeOpError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"results": results, "count": len(results)})
}

// WriteMemory POST /api/users/{token}/memories
func (h *MemoryHandler) WriteMemory(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	var req struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		Priority string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Title == "" {
		respond.WriteBadRequest(w, "title is required")
		return
	}
	filename, err := h.svc.Write(r.Context(), token, req.Title, req.Body, model.Priority(req.Priority))
	if err != nil {
		writeOpError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]string{"filename": filename})
}

// UpdateMemory PUT /api/users/{token}/memories/{filename}
func (h *MemoryHandler) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Title    string  `json:"title"`
		Body     string  `json:"body"`
		Priority *string `json:"priority,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	var prio *model.Priority
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		prio = &p
	}
	if err := h.svc.Update(r.Context(), vars["token"], vars["filename"], req.Title, req.Body, prio); err != nil {
		writeOpError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteMemory DELETE /api/users/{token}/memories/{filename}
func (h *MemoryHandler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.Delete(r.Context(), vars["token"], vars["filename"]); err != nil {
		writeOpError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ArchiveMemory POST /api/users/{token}/memories/{filename}/archive
func (h *MemoryHandler) ArchiveMemory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.Archive(r.Context(), vars["token"], vars["filename"]); err != nil {
		writeOpError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SweepMemories POST /api/users/{token}/sweep
func (h *MemoryHandler) SweepMemories(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	var req struct {
		DryRun        bool `json:"dryRun"`
		MaxHotRecords int  `json:"maxHotRecords"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.WriteBadRequest(w, "Invalid JSON")
			return
		}
	}
	result, err := h.svc.Sweep(r.Context(), token, req.DryRun, req.MaxHotRecords)
	if err != nil {
		writeOpError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, result)
}
