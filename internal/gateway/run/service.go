// Package run bridges the agent orchestrator to the gateway: it owns one
// orchestrator per open project, fans events out to watchers, and archives
// the resulting file set when a run completes.
package run

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/leon2m/cursoronline/internal/agent"
	"github.com/leon2m/cursoronline/internal/gateway/repository/snapshot"
	"github.com/leon2m/cursoronline/internal/gateway/service/workspace"
	"github.com/leon2m/cursoronline/internal/project"
)

var ErrUnknownRun = errors.New("run: unknown run")

// Service starts, cancels and observes agent runs. Each project has at most
// one orchestrator and therefore at most one live run.
type Service struct {
	workspaces  *workspace.Service
	planner     agent.PlanGenerator
	coder       agent.ContentGenerator
	snapshots   snapshot.Store
	events      *EventBroker
	callTimeout time.Duration

	mu         sync.Mutex
	orchs      map[string]*projectRuns // by project id
	runProject map[string]string       // run id -> project id
}

type projectRuns struct {
	orch  *agent.Orchestrator
	files *project.Store
}

func New(workspaces *workspace.Service, planner agent.PlanGenerator, coder agent.ContentGenerator, snapshots snapshot.Store, callTimeout time.Duration) *Service {
	return &Service{
		workspaces:  workspaces,
		planner:     planner,
		coder:       coder,
		snapshots:   snapshots,
		events:      NewEventBroker(),
		callTimeout: callTimeout,
		orchs:       make(map[string]*projectRuns),
		runProject:  make(map[string]string),
	}
}

// Start launches a run for the project's open session. The goal and the
// optional config are handed to the orchestrator unchanged.
func (s *Service) Start(projectID, goal string, cfg *agent.ProjectConfig) (string, error) {
	sess, ok := s.workspaces.Get(projectID)
	if !ok {
		return "", fmt.Errorf("%w: %s", workspace.ErrNotOpen, projectID)
	}
	if cfg == nil {
		cfg = sess.Config
	}

	orch := s.orchestratorFor(projectID, sess)
	runID, err := orch.StartRun(goal, cfg)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.runProject[runID] = projectID
	s.mu.Unlock()
	return runID, nil
}

// Cancel stops the live run.
func (s *Service) Cancel(runID string) error {
	orch, ok := s.orchestratorByRun(runID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	if !orch.CancelRun() {
		return fmt.Errorf("run: %s is not live", runID)
	}
	return nil
}

// State returns the current projection of a run.
func (s *Service) State(runID string) (agent.RunView, error) {
	orch, ok := s.orchestratorByRun(runID)
	if !ok {
		return agent.RunView{}, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	view, ok := orch.View()
	if !ok || view.RunID != strings.TrimSpace(runID) {
		return agent.RunView{}, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return view, nil
}

// Watch returns the run's event channel. The channel closes when the run
// reaches a terminal state.
func (s *Service) Watch(runID string) (<-chan agent.Event, bool) {
	return s.events.Get(runID)
}

// orchestratorFor returns the project's orchestrator, rebuilding it when the
// session was reopened with a fresh file store.
func (s *Service) orchestratorFor(projectID string, sess *workspace.Session) *agent.Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pr, ok := s.orchs[projectID]; ok && pr.files == sess.Files {
		return pr.orch
	}
	orch := agent.NewOrchestrator(s.planner, s.coder, sess.Files, agent.Options{
		CallTimeout: s.callTimeout,
		OnEvent:     s.dispatch,
		OnComplete: func(view agent.RunView) {
			s.onComplete(projectID, view)
		},
	})
	s.orchs[projectID] = &projectRuns{orch: orch, files: sess.Files}
	return orch
}

func (s *Service) orchestratorByRun(runID string) (*agent.Orchestrator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	projectID, ok := s.runProject[strings.TrimSpace(runID)]
	if !ok {
		return nil, false
	}
	pr, ok := s.orchs[projectID]
	if !ok {
		return nil, false
	}
	return pr.orch, true
}

// dispatch forwards orchestrator events to watchers and closes the stream
// on terminal events.
func (s *Service) dispatch(ev agent.Event) {
	s.events.Publish(ev)
	if ev.Type == agent.EventComplete || ev.Type == agent.EventError {
		s.events.Finish(ev.RunID)
	}
}

// onComplete archives the run's file set and persists the session.
func (s *Service) onComplete(projectID string, view agent.RunView) {
	sess, ok := s.workspaces.Get(projectID)
	if !ok {
		return
	}
	if err := sess.Flush(); err != nil {
		log.Printf("run %s: sync after completion: %v", view.RunID, err)
	}
	if s.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := snapshot.Archive(ctx, s.snapshots, view.RunID, sess.Files.List()); err != nil {
		log.Printf("run %s: archive snapshot: %v", view.RunID, err)
	}
}
