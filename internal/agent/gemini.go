package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/leon2m/cursoronline/internal/llm"
	"github.com/leon2m/cursoronline/internal/llmtool"
	"github.com/leon2m/cursoronline/internal/project"
	"github.com/leon2m/cursoronline/internal/utils"
)

// fileContextLimit bounds how much of each file body is quoted into the
// content prompt so large projects stay inside the model's input window.
const fileContextLimit = 1000

// LLMPlanner implements PlanGenerator over the model boundary.
type LLMPlanner struct {
	cli llm.Client
}

func NewLLMPlanner(cli llm.Client) *LLMPlanner { return &LLMPlanner{cli: cli} }

type planEnvelope struct {
	Tasks []planTask `json:"tasks"`
}

type planTask struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Role        string `json:"role"`
	FileName    string `json:"fileName"`
	Description string `json:"description"`
}

func (p *LLMPlanner) GeneratePlan(ctx context.Context, goal string, files []project.File, cfg *ProjectConfig) ([]Task, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("%w: %v", ErrPlanningFailed, ErrEmptyGoal)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}

	prompt, err := llmtool.BuildPrompt(llmtool.PromptSpec{
		Purpose: "You are an Autonomous Senior Software Architect leading a virtual team. " +
			"Create a complete implementation plan that achieves the goal by creating, updating, or deleting project files.",
		Background: "GOAL: " + goal,
		Input: map[string]any{
			"existing_files": names,
			"project_config": cfg,
		},
		OutputFields: []llmtool.PromptField{
			{Name: "tasks", Type: "array", Required: true, Description: "ordered list of file operations"},
			{Name: "tasks[].id", Type: "string", Required: true, Description: "unique task id"},
			{Name: "tasks[].type", Type: "string", Required: true, Description: "create | update | delete"},
			{Name: "tasks[].role", Type: "string", Required: true, Description: "planner | designer | frontend | backend | lead"},
			{Name: "tasks[].fileName", Type: "string", Required: true, Description: "target file, e.g. index.html"},
			{Name: "tasks[].description", Type: "string", Required: true, Description: "what exactly goes in this file"},
		},
		Rules: []string{
			"Tasks execute strictly in the given order; later tasks may rely on earlier files.",
			"For a new web application, create at least index.html, style.css and a main script file.",
			"Every fileName must be a plain relative file name.",
		},
		OutputFormat: `JSON object with a "tasks" array and nothing else.`,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanningFailed, err)
	}

	raw, err := p.cli.GenerateJSON(llm.WithPhase(ctx, "plan"), prompt, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanningFailed, err)
	}
	var env planEnvelope
	if err := llmtool.Decode(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanningFailed, err)
	}
	tasks, err := normalizePlan(env.Tasks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanningFailed, err)
	}
	return tasks, nil
}

// normalizePlan validates the model's plan and repairs what can be repaired:
// missing ids are assigned, unknown roles are inferred from the target file.
// Invalid operations or file names are hard errors.
func normalizePlan(in []planTask) ([]Task, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("plan contains no tasks")
	}
	out := make([]Task, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, pt := range in {
		op := Operation(strings.ToLower(strings.TrimSpace(pt.Type)))
		if !op.Valid() {
			return nil, fmt.Errorf("task %d: invalid operation %q", i+1, pt.Type)
		}
		name := strings.TrimSpace(pt.FileName)
		if !validFileName(name) {
			return nil, fmt.Errorf("task %d: invalid file name %q", i+1, pt.FileName)
		}
		id := strings.TrimSpace(pt.ID)
		if id == "" {
			id = utils.ShortID()
		}
		if _, dup := seen[id]; dup {
			id = utils.ShortID()
		}
		seen[id] = struct{}{}
		role := Role(strings.ToLower(strings.TrimSpace(pt.Role)))
		if !role.Valid() {
			role = InferRole(name)
		}
		out = append(out, Task{
			ID:          id,
			Operation:   op,
			Role:        role,
			TargetFile:  name,
			Description: strings.TrimSpace(pt.Description),
			Status:      TaskPending,
		})
	}
	return out, nil
}

func validFileName(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|' {
			return false
		}
	}
	return true
}

// LLMCoder implements ContentGenerator over the model boundary.
type LLMCoder struct {
	cli llm.Client
}

func NewLLMCoder(cli llm.Client) *LLMCoder { return &LLMCoder{cli: cli} }

func (c *LLMCoder) GenerateContent(ctx context.Context, task Task, goal string, files []project.File, cfg *ProjectConfig) (string, error) {
	var sb strings.Builder
	sb.WriteString("You are an Autonomous Coding Engine acting as the team's ")
	sb.WriteString(task.Role.DisplayName())
	sb.WriteString(".\n")
	fmt.Fprintf(&sb, "GLOBAL GOAL: %s\n", goal)
	fmt.Fprintf(&sb, "CURRENT TASK: %s file %q\n", task.Operation, task.TargetFile)
	fmt.Fprintf(&sb, "TASK DESCRIPTION: %s\n", task.Description)
	if cfg != nil {
		fmt.Fprintf(&sb, "PROJECT CONFIG: type=%s languages=%s tools=%s\n",
			cfg.Type, strings.Join(cfg.Languages, ","), strings.Join(cfg.Tools, ","))
	}

	sb.WriteString("\nCONTEXT OF OTHER FILES:\n")
	for _, f := range files {
		body := f.Content
		truncated := ""
		if len(body) > fileContextLimit {
			body = body[:fileContextLimit]
			truncated = "... (truncated)"
		}
		fmt.Fprintf(&sb, "--- FILE: %s ---\n%s%s\n", f.Name, body, truncated)
	}

	fmt.Fprintf(&sb, `
OUTPUT:
Write the FULL, COMPLETE content for %s.
Do not use placeholders like "// ...rest of code".
Write production-ready code.
If it is HTML, ensure it links to the CSS and JS files if they exist in the plan.

Return ONLY the code content. No markdown backticks.
`, task.TargetFile)

	out, err := c.cli.GenerateText(llm.WithPhase(ctx, "content"), sb.String())
	if err != nil {
		return "", fmt.Errorf("%w: task %s: %v", ErrGenerationFailed, task.ID, err)
	}
	return llmtool.StripFences(out), nil
}
