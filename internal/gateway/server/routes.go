package server

import (
	"net/http"

	"github.com/leon2m/cursoronline/internal/gateway/handler"
	"github.com/leon2m/cursoronline/internal/gateway/middleware"
)

func NewMux(
	authHandler *handler.AuthHandler,
	projectHandler *handler.ProjectHandler,
	runHandler *handler.RunHandler,
	assistHandler *handler.AssistHandler,
	previewHandler *handler.PreviewHandler,
) http.Handler {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", authHandler.Me)

	// Projects and files
	mux.HandleFunc("GET /api/projects", projectHandler.List)
	mux.HandleFunc("POST /api/projects", projectHandler.Create)
	mux.HandleFunc("DELETE /api/projects/{id}", projectHandler.Delete)
	mux.HandleFunc("POST /api/projects/{id}/open", projectHandler.Open)
	mux.HandleFunc("GET /api/projects/{id}/files", projectHandler.Files)
	mux.HandleFunc("POST /api/projects/{id}/files", projectHandler.Edit)
	mux.HandleFunc("GET /api/projects/{id}/export", projectHandler.Export)

	// Runs
	mux.HandleFunc("POST /api/projects/{id}/runs", runHandler.Start)
	mux.HandleFunc("GET /api/runs/{id}", runHandler.State)
	mux.HandleFunc("POST /api/runs/{id}/cancel", runHandler.Cancel)
	mux.HandleFunc("GET /api/agents", runHandler.Roles)
	mux.HandleFunc("GET /api/watch/ws", runHandler.WatchWS)
	mux.HandleFunc("GET /api/watch/{run_id}", runHandler.WatchSSE)

	// Assist and preview
	mux.HandleFunc("POST /api/assist/action", assistHandler.Action)
	mux.HandleFunc("POST /api/assist/apply", assistHandler.Apply)
	mux.HandleFunc("POST /api/assist/plan", assistHandler.Plan)
	mux.HandleFunc("POST /api/preview", previewHandler.Simulate)

	return middleware.CORS(mux)
}
