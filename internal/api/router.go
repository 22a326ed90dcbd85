package api

import (
	"github.com/gorilla/mux"

	"github.com/zcf0508/mem-mcp/internal/api/recovery"
	"github.com/zcf0508/mem-mcp/internal/services"
)

// NewRouter creates the HTTP router for the memory service.
func NewRouter(svc *services.MemoryService) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	memoryHandler := NewMemoryHandler(svc)

	// Health endpoint
	router.HandleFunc("/api/health", CheckHealth).Methods("GET")

	// Memory endpoints, token-scoped
	router.HandleFunc("/api/users/{token}/memories", memoryHandler.ListMemories).Methods("GET")
	router.HandleFunc("/api/users/{token}/memories", memoryHandler.WriteMemory).Methods("POST")
	router.HandleFunc("/api/users/{token}/memories/recall", memoryHandler.RecallMemories).Methods("GET")
	router.HandleFunc("/api/users/{token}/memories/{filename}", memoryHandler.UpdateMemory).Methods("PUT")
	router.HandleFunc("/api/users/{token}/memories/{filename}", memoryHandler.DeleteMemory).Methods("DELETE")
	router.HandleFunc("/api/users/{token}/memories/{filename}/archive", memoryHandler.ArchiveMemory).Methods("POST")

	// Archive search
	router.HandleFunc("/api/users/{token}/archive/recall", memoryHandler.SearchArchive).Methods("GET")

	// Manual sweep
	router.HandleFunc("/api/users/{token}/sweep", memoryHandler.SweepMemories).Methods("POST")

	return router
}
