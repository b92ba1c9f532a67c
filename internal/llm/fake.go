package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// FakeClient returns deterministic, minimal payloads per phase for
// offline development and tests. The plan it emits matches what the
// orchestrator expects for a greenfield web project.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	phase := PhaseFrom(ctx)
	var obj any
	switch phase {
	case "plan":
		obj = map[string]any{
			"tasks": []any{
				map[string]any{
					"id":          "t1",
					"type":        "create",
					"role":        "planner",
					"fileName":    "index.html",
					"description": "Base HTML shell linking style.css and script.js",
				},
				map[string]any{
					"id":          "t2",
					"type":        "create",
					"role":        "designer",
					"fileName":    "style.css",
					"description": "Base stylesheet",
				},
				map[string]any{
					"id":          "t3",
					"type":        "create",
					"role":        "frontend",
					"fileName":    "script.js",
					"description": "Client-side logic",
				},
			},
		}
	case "steps":
		obj = map[string]any{
			"steps": []any{
				map[string]any{"id": "s1", "description": "fake step one", "status": "pending"},
				map[string]any{"id": "s2", "description": "fake step two", "status": "pending"},
			},
		}
	case "preview":
		obj = map[string]any{
			"output": "fake runtime output",
			"error":  "",
		}
	default:
		obj = map[string]any{"notes": []string{"fake " + phase + " output"}}
	}
	return json.Marshal(obj)
}

func (f *FakeClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return fmt.Sprintf("// fake %s output\n", PhaseFrom(ctx)), nil
}
