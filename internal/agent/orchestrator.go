package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/leon2m/cursoronline/internal/project"
	"github.com/leon2m/cursoronline/internal/utils"
)

// EventType tags orchestrator events streamed to watchers.
type EventType string

const (
	EventLog      EventType = "log"
	EventTask     EventType = "task"
	EventStatus   EventType = "status"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one structured update about a run. Events are emitted in the
// causal order of the underlying state transitions.
type Event struct {
	Type     EventType `json:"eventType"`
	RunID    string    `json:"runId"`
	Message  string    `json:"message,omitempty"`
	Task     *Task     `json:"task,omitempty"`
	Status   RunStatus `json:"status,omitempty"`
	Progress float64   `json:"progress"`
}

// Options configures an Orchestrator.
type Options struct {
	// CallTimeout bounds each generator call. Zero disables the bound.
	CallTimeout time.Duration
	// OnEvent receives every structured update. Called from the run
	// goroutine without internal locks held; may be nil.
	OnEvent func(Event)
	// OnComplete fires exactly once when a run reaches completed.
	OnComplete func(RunView)
}

// Orchestrator drives the plan → sequential-execute → apply loop for one
// project. It owns the Run value; everything observable goes through View
// and the event stream. A single run is live at a time.
type Orchestrator struct {
	planner PlanGenerator
	coder   ContentGenerator
	files   *project.Store
	opts    Options

	mu     sync.Mutex
	run    *Run
	gen    int // run generation; results from a superseded run are discarded
	cancel context.CancelFunc
}

func NewOrchestrator(planner PlanGenerator, coder ContentGenerator, files *project.Store, opts Options) *Orchestrator {
	return &Orchestrator{planner: planner, coder: coder, files: files, opts: opts}
}

// StartRun begins a new run for the goal. It rejects concurrent starts while
// a run is planning or executing; a finished run is replaced wholesale.
func (o *Orchestrator) StartRun(goal string, cfg *ProjectConfig) (string, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return "", ErrEmptyGoal
	}

	o.mu.Lock()
	if o.run != nil && o.run.Status.Live() {
		o.mu.Unlock()
		return "", ErrRunActive
	}
	o.gen++
	gen := o.gen
	runCtx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.run = &Run{
		ID:        utils.RunID("agent"),
		Goal:      goal,
		Status:    StatusPlanning,
		Config:    cfg,
		StartedAt: time.Now(),
	}
	runID := o.run.ID
	o.mu.Unlock()

	o.emit(Event{Type: EventStatus, RunID: runID, Status: StatusPlanning})
	o.logf(gen, "", "Build started: %s", goal)

	go o.execute(runCtx, gen)
	return runID, nil
}

// CancelRun requests the live run to stop. A generator response that arrives
// after cancellation is discarded, never applied. In-flight calls are
// cancelled via context on a best-effort basis.
func (o *Orchestrator) CancelRun() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run == nil || !o.run.Status.Live() {
		return false
	}
	if o.cancel != nil {
		o.cancel()
	}
	return true
}

// View returns the current run projection, or ok=false when no run exists.
func (o *Orchestrator) View() (RunView, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run == nil {
		return RunView{}, false
	}
	return o.run.view(), true
}

// ---------------------------------------------------------------------------
// run loop
// ---------------------------------------------------------------------------

func (o *Orchestrator) execute(ctx context.Context, gen int) {
	runID, goal, cfg := o.runIdentity(gen)
	if runID == "" {
		return
	}

	o.logf(gen, "", "Assembling team and planning tasks...")
	tasks, err := o.plan(ctx, gen, goal, cfg)
	if err != nil {
		if o.stale(gen) {
			return
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			o.finishCancelled(gen, "")
			return
		}
		o.logf(gen, "", "Planning failed: %v", err)
		o.finishError(gen, err)
		return
	}
	if !o.beginExecuting(gen, tasks) {
		return
	}
	o.logf(gen, "", "Plan ready: %d tasks queued", len(tasks))

	for i := range tasks {
		if ctx.Err() != nil {
			o.finishCancelled(gen, "")
			return
		}
		task, ok := o.beginTask(gen, i)
		if !ok {
			return
		}
		o.logf(gen, task.ID, "[%s] %s %s: %s", strings.ToUpper(string(task.Role)), task.Operation, task.TargetFile, task.Description)

		content := ""
		if task.Operation != OpDelete {
			// Deletes require no generation step.
			if task.Operation == OpUpdate {
				if _, exists := o.files.Get(task.TargetFile); !exists {
					o.failTask(gen, i, fmt.Errorf("%w: %s", ErrFileVanished, task.TargetFile))
					return
				}
			}
			content, err = o.generate(ctx, gen, task, goal, cfg)
			if err != nil {
				if o.stale(gen) {
					return
				}
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					o.finishCancelled(gen, task.ID)
					return
				}
				o.failTask(gen, i, err)
				return
			}
		}
		// A response that raced with cancellation must not be applied.
		if ctx.Err() != nil {
			o.finishCancelled(gen, task.ID)
			return
		}
		if err := o.apply(task, content); err != nil {
			o.failTask(gen, i, err)
			return
		}
		if !o.completeTask(gen, i) {
			return
		}
		o.logf(gen, task.ID, "[%s] %s completed", strings.ToUpper(string(task.Role)), task.TargetFile)
	}

	o.finishCompleted(gen)
}

func (o *Orchestrator) plan(ctx context.Context, gen int, goal string, cfg *ProjectConfig) ([]Task, error) {
	ctx, cancel := o.callContext(ctx)
	defer cancel()
	return o.planner.GeneratePlan(ctx, goal, o.files.List(), cfg)
}

func (o *Orchestrator) generate(ctx context.Context, gen int, task Task, goal string, cfg *ProjectConfig) (string, error) {
	ctx, cancel := o.callContext(ctx)
	defer cancel()
	return o.coder.GenerateContent(ctx, task, goal, o.files.List(), cfg)
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, o.opts.CallTimeout)
	}
	return context.WithCancel(ctx)
}

// apply writes a task's result into the file store. Targets are re-resolved
// by name here, at apply time; a file the user removed mid-task surfaces as
// ErrFileVanished rather than a silent miss.
func (o *Orchestrator) apply(task Task, content string) error {
	switch task.Operation {
	case OpCreate:
		// Create is an upsert by contract; an existing name is overwritten.
		_, err := o.files.Create(task.TargetFile, content)
		return err
	case OpUpdate:
		if err := o.files.Update(task.TargetFile, content); err != nil {
			if errors.Is(err, project.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrFileVanished, task.TargetFile)
			}
			return err
		}
		return nil
	case OpDelete:
		if err := o.files.Delete(task.TargetFile); err != nil {
			if errors.Is(err, project.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrFileVanished, task.TargetFile)
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown operation %q", task.Operation)
}

// ---------------------------------------------------------------------------
// guarded state transitions
// ---------------------------------------------------------------------------

func (o *Orchestrator) runIdentity(gen int) (runID, goal string, cfg *ProjectConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen || o.run == nil {
		return "", "", nil
	}
	return o.run.ID, o.run.Goal, o.run.Config
}

func (o *Orchestrator) stale(gen int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gen != gen
}

func (o *Orchestrator) beginExecuting(gen int, tasks []Task) bool {
	o.mu.Lock()
	if o.gen != gen || o.run == nil {
		o.mu.Unlock()
		return false
	}
	o.run.Tasks = tasks
	o.run.Status = StatusExecuting
	if len(tasks) > 0 {
		o.run.ActiveRole = tasks[0].Role
	}
	ev := Event{Type: EventStatus, RunID: o.run.ID, Status: StatusExecuting}
	o.mu.Unlock()
	o.emit(ev)
	return true
}

func (o *Orchestrator) beginTask(gen int, i int) (Task, bool) {
	o.mu.Lock()
	if o.gen != gen || o.run == nil || i >= len(o.run.Tasks) {
		o.mu.Unlock()
		return Task{}, false
	}
	o.run.Tasks[i].Status = TaskInProgress
	o.run.ActiveRole = o.run.Tasks[i].Role
	task := o.run.Tasks[i]
	ev := Event{Type: EventTask, RunID: o.run.ID, Task: &task, Progress: progress(o.run.Tasks)}
	o.mu.Unlock()
	o.emit(ev)
	return task, true
}

func (o *Orchestrator) completeTask(gen int, i int) bool {
	o.mu.Lock()
	if o.gen != gen || o.run == nil || i >= len(o.run.Tasks) {
		o.mu.Unlock()
		return false
	}
	o.run.Tasks[i].Status = TaskCompleted
	task := o.run.Tasks[i]
	ev := Event{Type: EventTask, RunID: o.run.ID, Task: &task, Progress: progress(o.run.Tasks)}
	o.mu.Unlock()
	o.emit(ev)
	return true
}

func (o *Orchestrator) failTask(gen int, i int, cause error) {
	o.mu.Lock()
	if o.gen != gen || o.run == nil {
		o.mu.Unlock()
		return
	}
	var taskID string
	if i < len(o.run.Tasks) {
		o.run.Tasks[i].Status = TaskFailed
		taskID = o.run.Tasks[i].ID
	}
	o.mu.Unlock()
	o.logf(gen, taskID, "Task failed: %v", cause)
	o.finishError(gen, cause)
}

func (o *Orchestrator) finishError(gen int, cause error) {
	o.mu.Lock()
	if o.gen != gen || o.run == nil {
		o.mu.Unlock()
		return
	}
	o.run.Status = StatusError
	o.run.ActiveRole = ""
	o.run.Err = cause.Error()
	o.run.FinishedAt = time.Now()
	ev := Event{Type: EventError, RunID: o.run.ID, Message: cause.Error(), Status: StatusError, Progress: progress(o.run.Tasks)}
	o.mu.Unlock()
	o.emit(ev)
}

func (o *Orchestrator) finishCancelled(gen int, taskID string) {
	o.mu.Lock()
	if o.gen != gen || o.run == nil || !o.run.Status.Live() {
		o.mu.Unlock()
		return
	}
	for i := range o.run.Tasks {
		if o.run.Tasks[i].Status == TaskInProgress {
			o.run.Tasks[i].Status = TaskFailed
		}
	}
	o.run.Status = StatusCancelled
	o.run.ActiveRole = ""
	o.run.Err = ErrRunCancelled.Error()
	o.run.FinishedAt = time.Now()
	runID := o.run.ID
	prog := progress(o.run.Tasks)
	o.mu.Unlock()
	o.logf(gen, taskID, "Build cancelled")
	o.emit(Event{Type: EventError, RunID: runID, Message: ErrRunCancelled.Error(), Status: StatusCancelled, Progress: prog})
}

func (o *Orchestrator) finishCompleted(gen int) {
	o.mu.Lock()
	if o.gen != gen || o.run == nil {
		o.mu.Unlock()
		return
	}
	o.run.Status = StatusCompleted
	o.run.ActiveRole = ""
	o.run.FinishedAt = time.Now()
	view := o.run.view()
	o.mu.Unlock()
	o.logf(gen, "", "All tasks completed")
	o.emit(Event{Type: EventComplete, RunID: view.RunID, Status: StatusCompleted, Progress: view.Progress})
	if o.opts.OnComplete != nil {
		o.opts.OnComplete(view)
	}
}

// ---------------------------------------------------------------------------
// log / event plumbing
// ---------------------------------------------------------------------------

func (o *Orchestrator) logf(gen int, taskID, format string, args ...any) {
	o.mu.Lock()
	if o.gen != gen || o.run == nil {
		o.mu.Unlock()
		return
	}
	entry := LogEntry{Time: time.Now(), TaskID: taskID, Message: fmt.Sprintf(format, args...)}
	o.run.Logs = append(o.run.Logs, entry)
	ev := Event{Type: EventLog, RunID: o.run.ID, Message: entry.String(), Progress: progress(o.run.Tasks)}
	o.mu.Unlock()
	o.emit(ev)
}

func (o *Orchestrator) emit(ev Event) {
	if o.opts.OnEvent != nil {
		o.opts.OnEvent(ev)
	}
}
