package agent

import (
	"path"
	"strings"
)

// Operation is the file-level action a task performs.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

func (o Operation) Valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Role labels which member of the virtual team a task is attributed to.
// It biases the content prompt and drives display; it has no enforcement
// semantics.
type Role string

const (
	RolePlanner  Role = "planner"
	RoleDesigner Role = "designer"
	RoleFrontend Role = "frontend"
	RoleBackend  Role = "backend"
	RoleLead     Role = "lead"
)

// RoleInfo carries the display metadata shown in the agent manager panel.
type RoleInfo struct {
	Role        Role   `json:"role"`
	DisplayName string `json:"name"`
	Description string `json:"description"`
}

// Roles is the fixed team catalog, in presentation order.
var Roles = []RoleInfo{
	{RolePlanner, "Architect", "Plans system architecture and file structure."},
	{RoleDesigner, "UI/UX Lead", "Handles styling, CSS, and component design."},
	{RoleFrontend, "Frontend Dev", "Implements client-side logic and components."},
	{RoleBackend, "Backend Dev", "Handles API, database, and server logic."},
	{RoleLead, "Tech Lead", "Reviews code, refactors, and merges changes."},
}

func (r Role) Valid() bool {
	for _, info := range Roles {
		if info.Role == r {
			return true
		}
	}
	return false
}

// DisplayName returns the human name for the role, or the raw value when the
// role is not in the catalog.
func (r Role) DisplayName() string {
	for _, info := range Roles {
		if info.Role == r {
			return info.DisplayName
		}
	}
	return string(r)
}

// InferRole repairs a missing or invalid role using the target file's shape.
func InferRole(fileName string) Role {
	name := strings.ToLower(strings.TrimSpace(fileName))
	switch path.Ext(name) {
	case ".css", ".scss", ".less":
		return RoleDesigner
	case ".sql", ".py", ".go", ".java":
		return RoleBackend
	case ".html":
		return RolePlanner
	}
	if strings.Contains(name, "server") || strings.Contains(name, "api") || strings.Contains(name, "db") {
		return RoleBackend
	}
	return RoleFrontend
}

// TaskStatus is the per-task lifecycle. Transitions are monotonic:
// pending → in-progress → {completed | failed}.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task is one file-level unit of work within a run.
type Task struct {
	ID          string     `json:"id"`
	Operation   Operation  `json:"type"`
	Role        Role       `json:"role"`
	TargetFile  string     `json:"fileName"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
}
