package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/leon2m/cursoronline/internal/agent"
	"github.com/leon2m/cursoronline/internal/gateway/run"
	"github.com/leon2m/cursoronline/internal/gateway/service/workspace"
)

type RunHandler struct {
	auth *AuthHandler
	runs *run.Service
}

func NewRunHandler(auth *AuthHandler, runs *run.Service) *RunHandler {
	return &RunHandler{auth: auth, runs: runs}
}

type startRunRequest struct {
	Goal   string               `json:"goal"`
	Config *agent.ProjectConfig `json:"config,omitempty"`
}

func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	var req startRunRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	runID, err := h.runs.Start(r.PathValue("id"), req.Goal, req.Config)
	if err != nil {
		writeError(w, runStatus(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"runId": runID})
}

func (h *RunHandler) State(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	view, err := h.runs.State(r.PathValue("id"))
	if err != nil {
		writeError(w, runStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RunHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.RequireUser(w, r); !ok {
		return
	}
	if err := h.runs.Cancel(r.PathValue("id")); err != nil {
		writeError(w, runStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WatchSSE streams a run's events as Server-Sent Events.
func (h *RunHandler) WatchSSE(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))
	if runID == "" {
		http.Error(w, "run_id required", http.StatusBadRequest)
		return
	}
	eventCh, ok := h.runs.Watch(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-eventCh:
			if !open {
				fmt.Fprintf(w, "event: close\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

const (
	watchWSWriteWait = 10 * time.Second
	watchWSPongWait  = 60 * time.Second
	watchWSPingEvery = (watchWSPongWait * 9) / 10
)

var watchWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// WatchWS streams a run's events over a websocket. The read side only
// services pings; the protocol is one-directional.
func (h *RunHandler) WatchWS(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.URL.Query().Get("run_id"))
	if runID == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}
	eventCh, ok := h.runs.Watch(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	conn, err := watchWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(watchWSPongWait)); err != nil {
		log.Printf("watch ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchWSPongWait))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(watchWSPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, open := <-eventCh:
			if !open {
				_ = conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Roles returns the fixed virtual-team catalog shown in the agent panel.
func (h *RunHandler) Roles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, agent.Roles)
}

func runStatus(err error) int {
	switch {
	case errors.Is(err, run.ErrUnknownRun), errors.Is(err, workspace.ErrNotOpen):
		return http.StatusNotFound
	case errors.Is(err, agent.ErrRunActive):
		return http.StatusConflict
	case errors.Is(err, agent.ErrEmptyGoal):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
