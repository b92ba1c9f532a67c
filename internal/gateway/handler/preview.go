package handler

import (
	"errors"
	"net/http"

	"github.com/leon2m/cursoronline/internal/gateway/service/workspace"
	"github.com/leon2m/cursoronline/internal/preview"
)

type PreviewHandler struct {
	auth       *AuthHandler
	workspaces *workspace.Service
	svc        *preview.Service
}

func NewPreviewHandler(auth *AuthHandler, workspaces *workspace.Service, svc *preview.Service) *PreviewHandler {
	return &PreviewHandler{auth: auth, workspaces: workspaces, svc: svc}
}

type previewRequest struct {
	ProjectID string `json:"projectId"`
	EntryID   string `json:"entryId,omitempty"`
}

func (h *PreviewHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	var req previewRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, ok := h.workspaces.Get(req.ProjectID)
	if !ok {
		writeError(w, http.StatusNotFound, workspace.ErrNotOpen)
		return
	}
	res, err := h.svc.Simulate(r.Context(), sess.Files.List(), req.EntryID)
	if err != nil {
		if errors.Is(err, preview.ErrNoFiles) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
