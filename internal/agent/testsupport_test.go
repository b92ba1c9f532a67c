package agent

import (
	"context"
	"encoding/json"

	"github.com/leon2m/cursoronline/internal/project"
)

// scriptedText is an llm.Client whose GenerateText always returns out.
type scriptedText struct {
	out string
}

func (s scriptedText) Name() string { return "scripted" }
func (s scriptedText) Close() error { return nil }
func (s scriptedText) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}
func (s scriptedText) GenerateText(ctx context.Context, prompt string) (string, error) {
	return s.out, nil
}

// recordingText captures the last prompt it was asked to complete.
type recordingText struct {
	out    string
	prompt string
}

func (r *recordingText) Name() string { return "recording" }
func (r *recordingText) Close() error { return nil }
func (r *recordingText) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	r.prompt = prompt
	return json.RawMessage(`{}`), nil
}
func (r *recordingText) GenerateText(ctx context.Context, prompt string) (string, error) {
	r.prompt = prompt
	return r.out, nil
}

func testFileList(name, content string) []project.File {
	return []project.File{{ID: "f-" + name, Name: name, Language: project.DetectLanguage(name), Content: content}}
}
