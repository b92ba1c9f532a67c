package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/leon2m/cursoronline/internal/llm"
	"github.com/leon2m/cursoronline/internal/tester"
)

func TestNormalizePlanRepairsIDsAndRoles(t *testing.T) {
	in := []planTask{
		{Type: "create", Role: "planner", FileName: "index.html", Description: "shell"},
		{ID: "t1", Type: "CREATE", Role: "wizard", FileName: "style.css", Description: "styles"},
		{ID: "t1", Type: "update", Role: "frontend", FileName: "script.js", Description: "logic"},
	}
	out, err := normalizePlan(in)
	tester.NoErr(t, err)
	tester.Eq(t, len(out), 3)

	seen := map[string]bool{}
	for _, task := range out {
		tester.True(t, task.ID != "", "every task gets an id")
		tester.False(t, seen[task.ID], "ids are unique")
		seen[task.ID] = true
		tester.Eq(t, task.Status, TaskPending)
	}
	tester.Eq(t, out[0].Operation, OpCreate)
	tester.Eq(t, out[1].Operation, OpCreate, "operation is case-insensitive")
	tester.Eq(t, out[1].Role, RoleDesigner, "unknown role inferred from .css target")
}

func TestNormalizePlanRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		in   []planTask
	}{
		{"empty plan", nil},
		{"bad operation", []planTask{{Type: "truncate", Role: "lead", FileName: "a.js"}}},
		{"traversal in name", []planTask{{Type: "create", Role: "lead", FileName: "../a.js"}}},
		{"absolute name", []planTask{{Type: "create", Role: "lead", FileName: "/etc/a"}}},
		{"empty name", []planTask{{Type: "create", Role: "lead", FileName: "  "}}},
		{"control char", []planTask{{Type: "create", Role: "lead", FileName: "a\x00.js"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := normalizePlan(tc.in); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestInferRole(t *testing.T) {
	tester.Eq(t, InferRole("style.css"), RoleDesigner)
	tester.Eq(t, InferRole("index.html"), RolePlanner)
	tester.Eq(t, InferRole("schema.sql"), RoleBackend)
	tester.Eq(t, InferRole("server.js"), RoleBackend)
	tester.Eq(t, InferRole("app.js"), RoleFrontend)
}

func TestRolesCatalogCoversAllRoles(t *testing.T) {
	byID := map[Role]bool{}
	for _, info := range Roles {
		tester.True(t, info.Role.Valid())
		tester.True(t, info.DisplayName != "")
		byID[info.Role] = true
	}
	for _, r := range []Role{RolePlanner, RoleDesigner, RoleFrontend, RoleBackend, RoleLead} {
		tester.True(t, byID[r], string(r))
	}
}

func TestLLMPlannerEndToEndWithFakeClient(t *testing.T) {
	planner := NewLLMPlanner(llm.NewFakeClient())
	tasks, err := planner.GeneratePlan(context.Background(), "Build a todo app", nil, nil)
	tester.NoErr(t, err)
	tester.True(t, len(tasks) >= 3, "fake plan carries the default web scaffold")
	tester.Eq(t, tasks[0].TargetFile, "index.html")
	for _, task := range tasks {
		tester.True(t, task.Operation.Valid())
		tester.True(t, task.Role.Valid())
	}
}

func TestLLMCoderStripsFences(t *testing.T) {
	coder := NewLLMCoder(scriptedText{out: "```js\nconsole.log(1)\n```"})
	task := Task{ID: "t1", Operation: OpCreate, Role: RoleFrontend, TargetFile: "app.js"}
	out, err := coder.GenerateContent(context.Background(), task, "goal", nil, nil)
	tester.NoErr(t, err)
	tester.Eq(t, out, "console.log(1)")
}

func TestLLMCoderTruncatesLargeFileContext(t *testing.T) {
	big := strings.Repeat("x", fileContextLimit+500)
	rec := &recordingText{out: "ok"}
	coder := NewLLMCoder(rec)
	task := Task{ID: "t1", Operation: OpUpdate, Role: RoleFrontend, TargetFile: "app.js"}
	_, err := coder.GenerateContent(context.Background(), task, "goal", testFileList("notes.txt", big), nil)
	tester.NoErr(t, err)
	tester.False(t, strings.Contains(rec.prompt, big), "full body must not be quoted")
	tester.True(t, strings.Contains(rec.prompt, "(truncated)"))
}
