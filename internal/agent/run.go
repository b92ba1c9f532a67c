package agent

import (
	"fmt"
	"time"
)

// RunStatus is the run lifecycle. planning and executing are the live
// states; completed, error and cancelled are terminal.
type RunStatus string

const (
	StatusIdle      RunStatus = "idle"
	StatusPlanning  RunStatus = "planning"
	StatusExecuting RunStatus = "executing"
	StatusCompleted RunStatus = "completed"
	StatusError     RunStatus = "error"
	StatusCancelled RunStatus = "cancelled"
)

// Live reports whether the status is a non-terminal, in-flight state.
func (s RunStatus) Live() bool {
	return s == StatusPlanning || s == StatusExecuting
}

// LogEntry is one timestamped console line. TaskID is empty for run-level
// entries. The log is append-only; the core never reorders or prunes it.
type LogEntry struct {
	Time    time.Time `json:"time"`
	TaskID  string    `json:"taskId,omitempty"`
	Message string    `json:"message"`
}

func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}

// Run is one end-to-end execution of the agent workflow for a single goal.
// It is owned and mutated exclusively by the Orchestrator.
type Run struct {
	ID         string
	Goal       string
	Status     RunStatus
	Tasks      []Task
	Logs       []LogEntry
	ActiveRole Role
	Config     *ProjectConfig
	StartedAt  time.Time
	FinishedAt time.Time
	Err        string
}

// RunView is the read-only projection a UI renders. It is recomputed on
// demand from the run; holding one never blocks or mutates the run.
type RunView struct {
	RunID      string    `json:"runId"`
	Goal       string    `json:"goal"`
	Status     RunStatus `json:"status"`
	Tasks      []Task    `json:"tasks"`
	Logs       []string  `json:"logs"`
	ActiveRole Role      `json:"activeAgent,omitempty"`
	Progress   float64   `json:"progress"`
	Summary    string    `json:"summary"`
	Err        string    `json:"error,omitempty"`
}

func (r *Run) view() RunView {
	tasks := make([]Task, len(r.Tasks))
	copy(tasks, r.Tasks)
	logs := make([]string, len(r.Logs))
	for i, e := range r.Logs {
		logs[i] = e.String()
	}
	return RunView{
		RunID:      r.ID,
		Goal:       r.Goal,
		Status:     r.Status,
		Tasks:      tasks,
		Logs:       logs,
		ActiveRole: r.ActiveRole,
		Progress:   progress(r.Tasks),
		Summary:    summarize(r),
		Err:        r.Err,
	}
}

func progress(tasks []Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status == TaskCompleted {
			done++
		}
	}
	return float64(done) / float64(len(tasks))
}

func summarize(r *Run) string {
	switch r.Status {
	case StatusPlanning:
		return "Generating plan..."
	case StatusExecuting:
		if r.ActiveRole != "" {
			return fmt.Sprintf("Agent working: %s", r.ActiveRole.DisplayName())
		}
		return "Agent working..."
	case StatusCompleted:
		return "Build complete"
	case StatusError:
		return "Build failed"
	case StatusCancelled:
		return "Build cancelled"
	}
	return "Idle"
}
