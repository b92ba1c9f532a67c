package agent

import (
	"context"

	"github.com/leon2m/cursoronline/internal/project"
)

// ProjectConfig is the optional stack hint captured at run start and passed
// to every generation call for consistency.
type ProjectConfig struct {
	Type          string   `json:"type,omitempty"` // web, mobile, api, ...
	Languages     []string `json:"languages,omitempty"`
	Tools         []string `json:"tools,omitempty"`
	AIRecommended bool     `json:"isAiRecommended,omitempty"`
}

// PlanGenerator turns a free-text goal into an ordered task queue.
// Errors must wrap ErrPlanningFailed. Implementations read file names and
// content for context only; they have no side effects.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, goal string, files []project.File, cfg *ProjectConfig) ([]Task, error)
}

// ContentGenerator produces the full replacement text for one task's target
// file. Partial or diff output is a contract violation; the orchestrator
// always applies whole files. Errors must wrap ErrGenerationFailed.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, task Task, goal string, files []project.File, cfg *ProjectConfig) (string, error)
}
