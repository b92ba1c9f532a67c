// Package assist implements the single-file code actions of the editor:
// explain, fix, comments, refactor, free-form modification, and the
// step-by-step implementation planner.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leon2m/cursoronline/internal/llm"
	"github.com/leon2m/cursoronline/internal/llmtool"
)

// Action selects the canned prompt applied to a code selection.
type Action string

const (
	ActionExplain  Action = "explain"
	ActionFix      Action = "fix"
	ActionComments Action = "comments"
	ActionRefactor Action = "refactor"
)

func (a Action) Valid() bool {
	switch a {
	case ActionExplain, ActionFix, ActionComments, ActionRefactor:
		return true
	}
	return false
}

// ReturnsCode reports whether the action's reply is code to apply rather
// than prose to display.
func (a Action) ReturnsCode() bool {
	return a == ActionFix || a == ActionComments || a == ActionRefactor
}

var (
	ErrUnknownAction = errors.New("assist: unknown action")
	ErrEmptyCode     = errors.New("assist: code must not be empty")
	ErrEmptyGoal     = errors.New("assist: goal must not be empty")
)

// Service runs assist operations over the model boundary.
type Service struct {
	cli llm.Client
}

func NewService(cli llm.Client) *Service { return &Service{cli: cli} }

// RunAction applies one canned action to the code and returns the model's
// reply. For code-producing actions the reply is fence-stripped.
func (s *Service) RunAction(ctx context.Context, action Action, code, language string) (string, error) {
	if !action.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if strings.TrimSpace(code) == "" {
		return "", ErrEmptyCode
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[Target Code (%s)]:\n```%s\n%s\n```\n\n", language, language, code)
	switch action {
	case ActionFix:
		sb.WriteString("Analyze for bugs/errors. Provide fixed code.")
	case ActionComments:
		sb.WriteString("Add JSDoc/Docstring comments. Return commented code.")
	case ActionRefactor:
		sb.WriteString("Refactor for readability/performance.")
	case ActionExplain:
		sb.WriteString("Explain step-by-step.")
	}

	out, err := s.cli.GenerateText(llm.WithPhase(ctx, "assist"), sb.String())
	if err != nil {
		return "", fmt.Errorf("assist: %s: %w", action, err)
	}
	if action.ReturnsCode() {
		return llmtool.StripFences(out), nil
	}
	return out, nil
}

// ApplyModification rewrites code according to a free-form instruction and
// returns the full modified file body.
func (s *Service) ApplyModification(ctx context.Context, code, language, instruction string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrEmptyCode
	}
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "", ErrEmptyGoal
	}

	var sb strings.Builder
	sb.WriteString("You are an expert coding assistant.\n")
	fmt.Fprintf(&sb, "INSTRUCTION: %s\n\n", instruction)
	fmt.Fprintf(&sb, "ORIGINAL CODE (%s):\n```%s\n%s\n```\n\n", language, language, code)
	sb.WriteString("Apply the instruction to the code.\n")
	sb.WriteString("Return ONLY the full modified code.\n")
	sb.WriteString("Do not include markdown backticks.\n")
	sb.WriteString("Do not remove existing functionality unless asked.\n")

	out, err := s.cli.GenerateText(llm.WithPhase(ctx, "assist"), sb.String())
	if err != nil {
		return "", fmt.Errorf("assist: apply modification: %w", err)
	}
	return llmtool.StripFences(out), nil
}
