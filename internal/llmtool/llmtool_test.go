package llmtool

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leon2m/cursoronline/internal/tester"
)

func TestBuildPromptSectionsInOrder(t *testing.T) {
	out, err := BuildPrompt(PromptSpec{
		Purpose:    "Plan the work.",
		Background: "GOAL: build a todo app",
		Input:      map[string]any{"existing_files": []string{"index.html"}},
		OutputFields: []PromptField{
			{Name: "tasks", Type: "array", Required: true, Description: "ordered operations"},
		},
		Rules:        []string{"Tasks execute in order."},
		OutputFormat: "JSON object only.",
	})
	tester.NoErr(t, err)

	want := []string{"[PURPOSE]", "[BACKGROUND]", "[INPUT]", "[OUTPUT]", "[RULES]", "[OUTPUT_FORMAT]"}
	pos := -1
	for _, section := range want {
		i := strings.Index(out, section)
		if i < 0 {
			t.Fatalf("missing section %s in:\n%s", section, out)
		}
		if i < pos {
			t.Fatalf("section %s out of order", section)
		}
		pos = i
	}
	tester.True(t, strings.Contains(out, "- tasks (array, required): ordered operations"))
	tester.True(t, strings.Contains(out, `"existing_files"`))
}

func TestBuildPromptSkipsEmptySections(t *testing.T) {
	out, err := BuildPrompt(PromptSpec{Purpose: "Do the thing."})
	tester.NoErr(t, err)
	tester.True(t, strings.Contains(out, "[PURPOSE]"))
	tester.False(t, strings.Contains(out, "[CONSTRAINTS]"))
	tester.False(t, strings.Contains(out, "[INPUT]"))
}

func TestBuildPromptRequiresPurpose(t *testing.T) {
	_, err := BuildPrompt(PromptSpec{Background: "no purpose"})
	tester.True(t, err != nil)
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain passthrough", "console.log(1)", "console.log(1)"},
		{"fenced with language", "```js\nconsole.log(1)\n```", "console.log(1)"},
		{"fenced bare", "```\n<html></html>\n```", "<html></html>"},
		{"fenced with padding", "  ```css\nbody {}\n```  ", "body {}"},
		{"unterminated fence", "```js\nconsole.log(1)", "console.log(1)"},
		{"fence mid-body untouched", "text\n```js\ncode\n```", "text\n```js\ncode\n```"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tester.Eq(t, StripFences(tc.in), tc.want)
		})
	}
}

func TestDecodeStrictRejectsUnknownFields(t *testing.T) {
	type payload struct {
		Output string `json:"output"`
	}
	var p payload
	raw := json.RawMessage(`{"output":"x","extra":1}`)
	tester.True(t, DecodeStrict(raw, &p) != nil)
	tester.NoErr(t, Decode(raw, &p))
	tester.Eq(t, p.Output, "x")
}
