package handler

import (
	"archive/zip"
	"errors"
	"fmt"
	"net/http"

	"github.com/leon2m/cursoronline/internal/agent"
	"github.com/leon2m/cursoronline/internal/gateway/service/workspace"
	"github.com/leon2m/cursoronline/internal/project"
)

type ProjectHandler struct {
	auth       *AuthHandler
	workspaces *workspace.Service
}

func NewProjectHandler(auth *AuthHandler, workspaces *workspace.Service) *ProjectHandler {
	return &ProjectHandler{auth: auth, workspaces: workspaces}
}

type createProjectRequest struct {
	Name   string               `json:"name"`
	Config *agent.ProjectConfig `json:"config,omitempty"`
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.auth.RequireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.workspaces.List(user.ID))
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.auth.RequireUser(w, r)
	if !ok {
		return
	}
	var req createProjectRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := h.workspaces.Create(user.ID, req.Name, req.Config)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	if err := h.workspaces.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) Open(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	sess, err := h.workspaces.Open(r.PathValue("id"))
	if err != nil {
		writeError(w, projectStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projectId": sess.ProjectID,
		"name":      sess.Name,
		"config":    sess.Config,
		"files":     sess.Files.List(),
	})
}

func (h *ProjectHandler) Files(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	sess, ok := h.workspaces.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, workspace.ErrNotOpen)
		return
	}
	writeJSON(w, http.StatusOK, sess.Files.List())
}

type fileEditRequest struct {
	Op      string `json:"op"` // create | update | rename | delete
	FileID  string `json:"fileId,omitempty"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
}

// Edit applies one user edit operation to an open project.
func (h *ProjectHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	sess, ok := h.workspaces.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, workspace.ErrNotOpen)
		return
	}
	var req fileEditRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch req.Op {
	case "create":
		f, err := sess.CreateFile(req.Name, req.Content)
		if err != nil {
			writeError(w, projectStatus(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, f)
	case "update":
		if err := sess.UpdateFile(req.FileID, req.Content); err != nil {
			writeError(w, projectStatus(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "rename":
		if err := sess.RenameFile(req.FileID, req.Name); err != nil {
			writeError(w, projectStatus(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "delete":
		if err := sess.DeleteFile(req.FileID); err != nil {
			writeError(w, projectStatus(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown op %q", req.Op))
	}
}

// Export streams the open project's files as a zip archive.
func (h *ProjectHandler) Export(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	sess, ok := h.workspaces.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, workspace.ErrNotOpen)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sess.Name+".zip"))
	zw := zip.NewWriter(w)
	for _, f := range sess.Files.List() {
		fw, err := zw.Create(f.Name)
		if err != nil {
			return
		}
		if _, err := fw.Write([]byte(f.Content)); err != nil {
			return
		}
	}
	_ = zw.Close()
}

func projectStatus(err error) int {
	switch {
	case errors.Is(err, workspace.ErrUnknownProject), errors.Is(err, workspace.ErrNotOpen), errors.Is(err, project.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, project.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, project.ErrBadName):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
