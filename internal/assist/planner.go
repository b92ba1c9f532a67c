package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/leon2m/cursoronline/internal/llm"
	"github.com/leon2m/cursoronline/internal/llmtool"
	"github.com/leon2m/cursoronline/internal/utils"
)

// StepStatus is the per-step lifecycle of an implementation plan. Steps are
// applied one at a time by the caller.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepApplied StepStatus = "applied"
	StepFailed  StepStatus = "failed"
)

// PlanStep is one concise instruction within a single-file implementation
// plan.
type PlanStep struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
}

type stepsEnvelope struct {
	Steps []PlanStep `json:"steps"`
}

// PlanImplementation asks the model for a step-by-step plan to achieve the
// goal within one file. Steps come back pending; ApplyStep executes them.
func (s *Service) PlanImplementation(ctx context.Context, goal, code, language string) ([]PlanStep, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, ErrEmptyGoal
	}

	prompt, err := llmtool.BuildPrompt(llmtool.PromptSpec{
		Purpose: "You are an expert software engineer. Create a step-by-step implementation plan " +
			"to achieve the goal within the given file.",
		Background: "GOAL: " + goal,
		Input: map[string]any{
			"language": language,
			"code":     code,
		},
		OutputFields: []llmtool.PromptField{
			{Name: "steps", Type: "array", Required: true, Description: "ordered plan steps"},
			{Name: "steps[].id", Type: "string", Required: true, Description: "unique step id"},
			{Name: "steps[].description", Type: "string", Required: true, Description: "concise instruction for what to change"},
			{Name: "steps[].status", Type: "string", Required: true, Description: `must be "pending"`},
		},
		OutputFormat: `JSON object with a "steps" array and nothing else.`,
	})
	if err != nil {
		return nil, fmt.Errorf("assist: plan: %w", err)
	}

	raw, err := s.cli.GenerateJSON(llm.WithPhase(ctx, "steps"), prompt, nil)
	if err != nil {
		return nil, fmt.Errorf("assist: plan: %w", err)
	}
	var env stepsEnvelope
	if err := llmtool.Decode(raw, &env); err != nil {
		return nil, fmt.Errorf("assist: plan: %w", err)
	}

	out := make([]PlanStep, 0, len(env.Steps))
	seen := make(map[string]struct{}, len(env.Steps))
	for _, step := range env.Steps {
		step.Description = strings.TrimSpace(step.Description)
		if step.Description == "" {
			continue
		}
		if step.ID == "" {
			step.ID = utils.ShortID()
		}
		if _, dup := seen[step.ID]; dup {
			step.ID = utils.ShortID()
		}
		seen[step.ID] = struct{}{}
		step.Status = StepPending
		out = append(out, step)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("assist: plan contains no steps")
	}
	return out, nil
}

// ApplyStep executes one plan step against the code and returns the full
// modified body.
func (s *Service) ApplyStep(ctx context.Context, code, language string, step PlanStep) (string, error) {
	return s.ApplyModification(ctx, code, language, step.Description)
}
