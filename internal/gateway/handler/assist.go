package handler

import (
	"errors"
	"net/http"

	"github.com/leon2m/cursoronline/internal/assist"
)

type AssistHandler struct {
	auth *AuthHandler
	svc  *assist.Service
}

func NewAssistHandler(auth *AuthHandler, svc *assist.Service) *AssistHandler {
	return &AssistHandler{auth: auth, svc: svc}
}

type assistActionRequest struct {
	Action   string `json:"action"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (h *AssistHandler) Action(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	var req assistActionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := h.svc.RunAction(r.Context(), assist.Action(req.Action), req.Code, req.Language)
	if err != nil {
		writeError(w, assistStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": out})
}

type assistApplyRequest struct {
	Code        string `json:"code"`
	Language    string `json:"language"`
	Instruction string `json:"instruction"`
}

func (h *AssistHandler) Apply(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	var req assistApplyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := h.svc.ApplyModification(r.Context(), req.Code, req.Language, req.Instruction)
	if err != nil {
		writeError(w, assistStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": out})
}

type assistPlanRequest struct {
	Goal     string `json:"goal"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (h *AssistHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	var req assistPlanRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	steps, err := h.svc.PlanImplementation(r.Context(), req.Goal, req.Code, req.Language)
	if err != nil {
		writeError(w, assistStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"steps": steps})
}

func assistStatus(err error) int {
	switch {
	case errors.Is(err, assist.ErrUnknownAction),
		errors.Is(err, assist.ErrEmptyCode),
		errors.Is(err, assist.ErrEmptyGoal):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
