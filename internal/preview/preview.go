// Package preview simulates running the project without a real runtime:
// the model is asked to act as the execution environment and report what
// the program would print.
package preview

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/leon2m/cursoronline/internal/llm"
	"github.com/leon2m/cursoronline/internal/llmtool"
	"github.com/leon2m/cursoronline/internal/project"
)

// bodyLimit bounds how much of each file is quoted into the simulation
// prompt.
const bodyLimit = 4000

var ErrNoFiles = errors.New("preview: project has no files")

// Result is the simulated console outcome. Error is empty on a clean run.
type Result struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Service runs execution simulations with an expiring result cache, keyed
// by the content of the file set so an unchanged project never pays for a
// second model call.
type Service struct {
	cli   llm.Client
	cache *expirable.LRU[string, Result]
}

// NewService builds a Service. cacheSize <= 0 disables caching.
func NewService(cli llm.Client, cacheSize int, ttl time.Duration) *Service {
	s := &Service{cli: cli}
	if cacheSize > 0 {
		s.cache = expirable.NewLRU[string, Result](cacheSize, nil, ttl)
	}
	return s
}

// ResolveEntry picks the file the simulation starts from: index.html, then
// any .html file, then a conventional main/app script, then the first file.
func ResolveEntry(files []project.File) (project.File, bool) {
	if len(files) == 0 {
		return project.File{}, false
	}
	for _, f := range files {
		if f.Name == "index.html" {
			return f, true
		}
	}
	for _, f := range files {
		if strings.HasSuffix(f.Name, ".html") {
			return f, true
		}
	}
	mains := []string{"main.py", "main.go", "main.js", "app.js", "script.js", "index.js"}
	for _, name := range mains {
		for _, f := range files {
			if f.Name == name {
				return f, true
			}
		}
	}
	return files[0], true
}

// Simulate asks the model to execute the project starting from the entry
// file. entryID may be empty; the entry is then resolved by convention.
func (s *Service) Simulate(ctx context.Context, files []project.File, entryID string) (Result, error) {
	if len(files) == 0 {
		return Result{}, ErrNoFiles
	}

	entry, ok := fileByID(files, entryID)
	if !ok {
		entry, _ = ResolveEntry(files)
	}

	key := cacheKey(files, entry.Name)
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			return res, nil
		}
	}

	type promptFile struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	in := make([]promptFile, 0, len(files))
	for _, f := range files {
		body := f.Content
		if len(body) > bodyLimit {
			body = body[:bodyLimit] + "... (truncated)"
		}
		in = append(in, promptFile{Name: f.Name, Content: body})
	}

	prompt, err := llmtool.BuildPrompt(llmtool.PromptSpec{
		Purpose: "You are a universal runtime environment. Mentally execute the given project " +
			"starting from the entry file and report exactly what it would print.",
		Background: "ENTRY FILE: " + entry.Name,
		Input: map[string]any{
			"files": in,
		},
		OutputFields: []llmtool.PromptField{
			{Name: "output", Type: "string", Required: true, Description: "stdout / console output, empty if none"},
			{Name: "error", Type: "string", Required: false, Description: "runtime error message, empty on a clean run"},
		},
		Rules: []string{
			"Do not invent output the program would not produce.",
			"If the program cannot run, leave output empty and explain in error.",
		},
		OutputFormat: `JSON object with "output" and "error" and nothing else.`,
	})
	if err != nil {
		return Result{}, fmt.Errorf("preview: %w", err)
	}

	raw, err := s.cli.GenerateJSON(llm.WithPhase(ctx, "preview"), prompt, nil)
	if err != nil {
		return Result{}, fmt.Errorf("preview: %w", err)
	}
	var res Result
	if err := llmtool.Decode(raw, &res); err != nil {
		return Result{}, fmt.Errorf("preview: %w", err)
	}

	if s.cache != nil {
		s.cache.Add(key, res)
	}
	return res, nil
}

func fileByID(files []project.File, id string) (project.File, bool) {
	if id == "" {
		return project.File{}, false
	}
	for _, f := range files {
		if f.ID == id {
			return f, true
		}
	}
	return project.File{}, false
}

// cacheKey hashes the entry name plus every file's name and content, so any
// edit invalidates the cached simulation.
func cacheKey(files []project.File, entry string) string {
	h := sha256.New()
	h.Write([]byte(entry))
	for _, f := range files {
		fmt.Fprintf(h, "\x00%s\x00%d\x00", f.Name, len(f.Content))
		h.Write([]byte(f.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}
