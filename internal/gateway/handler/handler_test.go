package handler_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leon2m/cursoronline/internal/agent"
	"github.com/leon2m/cursoronline/internal/assist"
	"github.com/leon2m/cursoronline/internal/gateway/handler"
	"github.com/leon2m/cursoronline/internal/gateway/repository/projectrepo"
	"github.com/leon2m/cursoronline/internal/gateway/repository/snapshot"
	"github.com/leon2m/cursoronline/internal/gateway/run"
	"github.com/leon2m/cursoronline/internal/gateway/server"
	"github.com/leon2m/cursoronline/internal/gateway/service/auth"
	"github.com/leon2m/cursoronline/internal/gateway/service/workspace"
	"github.com/leon2m/cursoronline/internal/llm"
	"github.com/leon2m/cursoronline/internal/preview"
	"github.com/leon2m/cursoronline/internal/project"
)

type fixedPlanner struct{ tasks []agent.Task }

func (p fixedPlanner) GeneratePlan(ctx context.Context, goal string, files []project.File, cfg *agent.ProjectConfig) ([]agent.Task, error) {
	out := make([]agent.Task, len(p.tasks))
	copy(out, p.tasks)
	return out, nil
}

type fixedCoder struct{}

func (fixedCoder) GenerateContent(ctx context.Context, task agent.Task, goal string, files []project.File, cfg *agent.ProjectConfig) (string, error) {
	return "content of " + task.TargetFile, nil
}

type apiStack struct {
	srv *httptest.Server
	ws  *workspace.Service
}

func newAPIStack(t *testing.T) *apiStack {
	t.Helper()
	repo := projectrepo.New(filepath.Join(t.TempDir(), "projects.json"))
	ws := workspace.NewService(repo)
	authSvc := auth.NewService(0)
	planner := fixedPlanner{tasks: []agent.Task{
		{ID: "t1", Operation: agent.OpCreate, Role: agent.RolePlanner, TargetFile: "index.html", Status: agent.TaskPending},
		{ID: "t2", Operation: agent.OpCreate, Role: agent.RoleFrontend, TargetFile: "app.js", Status: agent.TaskPending},
	}}
	runSvc := run.New(ws, planner, fixedCoder{}, snapshot.NewMemoryStore(), time.Second)
	cli := llm.NewFakeClient()

	authHandler := handler.NewAuthHandler(authSvc)
	mux := server.NewMux(
		authHandler,
		handler.NewProjectHandler(authHandler, ws),
		handler.NewRunHandler(authHandler, runSvc),
		handler.NewAssistHandler(authHandler, assist.NewService(cli)),
		handler.NewPreviewHandler(authHandler, ws, preview.NewService(cli, 8, time.Minute)),
	)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &apiStack{srv: srv, ws: ws}
}

func (s *apiStack) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// register signs up a fresh user and returns the session token.
func (s *apiStack) register(t *testing.T, email string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":       email,
		"password":    "hunter2",
		"displayName": "Ada Lovelace",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var session struct {
		User  auth.User `json:"user"`
		Token string    `json:"token"`
	}
	decodeBody(t, resp, &session)
	require.NotEmpty(t, session.Token)
	return session.Token
}

// createOpenProject creates a project over the API and opens it.
func (s *apiStack) createOpenProject(t *testing.T, token, name string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/projects", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rec projectrepo.Record
	decodeBody(t, resp, &rec)
	require.NotEmpty(t, rec.ProjectID)

	resp = s.do(t, http.MethodPost, "/api/projects/"+rec.ProjectID+"/open", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	return rec.ProjectID
}

func (s *apiStack) editFile(t *testing.T, token, projectID string, body map[string]string) *http.Response {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/projects/"+projectID+"/files", token, body)
}

func TestAuthFlow(t *testing.T) {
	s := newAPIStack(t)

	resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ada@example.com", "password": "hunter2", "displayName": "Ada Lovelace",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var session struct {
		User  auth.User `json:"user"`
		Token string    `json:"token"`
	}
	decodeBody(t, resp, &session)
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.Equal(t, "AL", session.User.Avatar)

	resp = s.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me auth.User
	decodeBody(t, resp, &me)
	assert.Equal(t, session.User.ID, me.ID)

	resp = s.do(t, http.MethodPost, "/api/auth/logout", session.Token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthRejections(t *testing.T) {
	s := newAPIStack(t)
	s.register(t, "ada@example.com")

	resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "Ada@Example.com", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedEndpointsRequireSession(t *testing.T) {
	s := newAPIStack(t)
	for _, path := range []string{"/api/projects", "/api/runs/r1", "/api/auth/me"} {
		resp := s.do(t, http.MethodGet, path, "", nil)
		assert.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "GET %s", path)
		resp.Body.Close()
	}
}

func TestProjectLifecycle(t *testing.T) {
	s := newAPIStack(t)
	token := s.register(t, "ada@example.com")
	projectID := s.createOpenProject(t, token, "Demo")

	resp := s.do(t, http.MethodGet, "/api/projects", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []projectrepo.Record
	decodeBody(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Demo", list[0].Name)

	resp = s.editFile(t, token, projectID, map[string]string{
		"op": "create", "name": "index.html", "content": "<html></html>",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created project.File
	decodeBody(t, resp, &created)
	assert.Equal(t, "html", created.Language)

	resp = s.editFile(t, token, projectID, map[string]string{
		"op": "update", "fileId": created.ID, "content": "<html><body/></html>",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.editFile(t, token, projectID, map[string]string{
		"op": "rename", "fileId": created.ID, "name": "main.html",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/projects/"+projectID+"/files", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var files []project.File
	decodeBody(t, resp, &files)
	require.Len(t, files, 1)
	assert.Equal(t, "main.html", files[0].Name)
	assert.Equal(t, "<html><body/></html>", files[0].Content)

	resp = s.editFile(t, token, projectID, map[string]string{"op": "delete", "fileId": created.ID})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.editFile(t, token, projectID, map[string]string{"op": "truncate"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/projects/ghost/files", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodDelete, "/api/projects/"+projectID, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/projects/"+projectID+"/open", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestProjectExportZip(t *testing.T) {
	s := newAPIStack(t)
	token := s.register(t, "ada@example.com")
	projectID := s.createOpenProject(t, token, "Demo")

	for name, content := range map[string]string{
		"index.html": "<html></html>",
		"app.js":     "console.log('hi')",
	} {
		resp := s.editFile(t, token, projectID, map[string]string{"op": "create", "name": name, "content": content})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := s.do(t, http.MethodGet, "/api/projects/"+projectID+"/export", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Demo.zip")

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	got := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		got[f.Name] = string(body)
	}
	assert.Equal(t, "<html></html>", got["index.html"])
	assert.Equal(t, "console.log('hi')", got["app.js"])
}

func (s *apiStack) waitRunStatus(t *testing.T, token, runID string, want agent.RunStatus) agent.RunView {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp := s.do(t, http.MethodGet, "/api/runs/"+runID, token, nil)
		var view agent.RunView
		if resp.StatusCode == http.StatusOK {
			decodeBody(t, resp, &view)
			if view.Status == want {
				return view
			}
		} else {
			resp.Body.Close()
		}
		if time.Now().After(deadline) {
			t.Fatalf("run %s never reached %s (last status %q)", runID, want, view.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunLifecycle(t *testing.T) {
	s := newAPIStack(t)
	token := s.register(t, "ada@example.com")
	projectID := s.createOpenProject(t, token, "Demo")

	resp := s.do(t, http.MethodPost, "/api/projects/"+projectID+"/runs", token, map[string]string{"goal": "Build a todo app"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var started struct {
		RunID string `json:"runId"`
	}
	decodeBody(t, resp, &started)
	require.NotEmpty(t, started.RunID)

	view := s.waitRunStatus(t, token, started.RunID, agent.StatusCompleted)
	assert.Equal(t, 1.0, view.Progress)
	require.Len(t, view.Tasks, 2)
	for _, task := range view.Tasks {
		assert.Equal(t, agent.TaskCompleted, task.Status)
	}

	sess, ok := s.ws.Get(projectID)
	require.True(t, ok)
	assert.Equal(t, 2, sess.Files.Len())

	// A finished run can no longer be cancelled.
	resp = s.do(t, http.MethodPost, "/api/runs/"+started.RunID+"/cancel", token, nil)
	assert.GreaterOrEqual(t, resp.StatusCode, http.StatusBadRequest)
	resp.Body.Close()
}

func TestRunStartRejections(t *testing.T) {
	s := newAPIStack(t)
	token := s.register(t, "ada@example.com")
	projectID := s.createOpenProject(t, token, "Demo")

	resp := s.do(t, http.MethodPost, "/api/projects/"+projectID+"/runs", token, map[string]string{"goal": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/projects/ghost/runs", token, map[string]string{"goal": "Build it"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/runs/ghost", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestWatchSSEStreamsUntilClose(t *testing.T) {
	s := newAPIStack(t)
	token := s.register(t, "ada@example.com")
	projectID := s.createOpenProject(t, token, "Demo")

	resp := s.do(t, http.MethodPost, "/api/projects/"+projectID+"/runs", token, map[string]string{"goal": "Build it"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var started struct {
		RunID string `json:"runId"`
	}
	decodeBody(t, resp, &started)

	resp = s.do(t, http.MethodGet, "/api/watch/"+started.RunID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "event: close")

	resp = s.do(t, http.MethodGet, "/api/watch/ghost", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAgentsCatalog(t *testing.T) {
	s := newAPIStack(t)
	resp := s.do(t, http.MethodGet, "/api/agents", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var roles []agent.RoleInfo
	decodeBody(t, resp, &roles)
	require.NotEmpty(t, roles)
	seen := map[agent.Role]bool{}
	for _, info := range roles {
		seen[info.Role] = true
		assert.NotEmpty(t, info.DisplayName)
	}
	assert.True(t, seen[agent.RolePlanner])
	assert.True(t, seen[agent.RoleFrontend])
}

func TestAssistEndpoints(t *testing.T) {
	s := newAPIStack(t)
	token := s.register(t, "ada@example.com")

	resp := s.do(t, http.MethodPost, "/api/assist/action", token, map[string]string{
		"action": "explain", "code": "let x = 1", "language": "javascript",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var action struct {
		Result string `json:"result"`
	}
	decodeBody(t, resp, &action)
	assert.NotEmpty(t, action.Result)

	resp = s.do(t, http.MethodPost, "/api/assist/action", token, map[string]string{
		"action": "shred", "code": "let x = 1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/assist/apply", token, map[string]string{
		"code": "let x = 1", "language": "javascript", "instruction": "rename x to y",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var apply struct {
		Code string `json:"code"`
	}
	decodeBody(t, resp, &apply)
	assert.NotEmpty(t, apply.Code)

	resp = s.do(t, http.MethodPost, "/api/assist/plan", token, map[string]string{
		"goal": "add dark mode", "code": "body {}", "language": "css",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var plan struct {
		Steps []assist.PlanStep `json:"steps"`
	}
	decodeBody(t, resp, &plan)
	require.NotEmpty(t, plan.Steps)
	for _, step := range plan.Steps {
		assert.Equal(t, assist.StepPending, step.Status)
	}

	resp = s.do(t, http.MethodPost, "/api/assist/plan", token, map[string]string{"goal": "", "code": "body {}"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestPreviewEndpoint(t *testing.T) {
	s := newAPIStack(t)
	token := s.register(t, "ada@example.com")
	projectID := s.createOpenProject(t, token, "Demo")

	resp := s.editFile(t, token, projectID, map[string]string{
		"op": "create", "name": "index.html", "content": "<html></html>",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/preview", token, map[string]string{"projectId": projectID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result preview.Result
	decodeBody(t, resp, &result)
	assert.Equal(t, "fake runtime output", result.Output)

	resp = s.do(t, http.MethodPost, "/api/preview", token, map[string]string{"projectId": "ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	empty := s.createOpenProject(t, token, "Empty")
	resp = s.do(t, http.MethodPost, "/api/preview", token, map[string]string{"projectId": empty})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCORSHeadersEchoOrigin(t *testing.T) {
	s := newAPIStack(t)
	req, err := http.NewRequest(http.MethodOptions, s.srv.URL+"/api/projects", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.True(t, resp.StatusCode < http.StatusMultipleChoices, fmt.Sprintf("preflight status %d", resp.StatusCode))
}

func TestWatchSSERequiresRunID(t *testing.T) {
	s := newAPIStack(t)
	resp := s.do(t, http.MethodGet, "/api/watch/%20", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
