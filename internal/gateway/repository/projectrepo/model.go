package projectrepo

import (
	"strings"
	"time"

	"github.com/leon2m/cursoronline/internal/agent"
	"github.com/leon2m/cursoronline/internal/project"
)

// Record is one persisted project: its metadata plus the last synced file
// set. The in-memory project.Store stays authoritative while a project is
// open; Record is what survives a restart.
type Record struct {
	ProjectID string               `json:"project_id"`
	Name      string               `json:"name"`
	OwnerID   string               `json:"owner_id"`
	Config    *agent.ProjectConfig `json:"config,omitempty"`
	Files     []project.File       `json:"files,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func normalizeRecord(rec Record) Record {
	rec.ProjectID = strings.TrimSpace(rec.ProjectID)
	rec.Name = strings.TrimSpace(rec.Name)
	rec.OwnerID = strings.TrimSpace(rec.OwnerID)
	if rec.Name == "" {
		rec.Name = "Untitled Project"
	}
	return rec
}

type rowScanner interface {
	Scan(dest ...any) error
}
