package project

import (
	"path"
	"strings"

	"github.com/leon2m/cursoronline/internal/utils"
)

// File is one in-memory project file. ID is the ownership key and is stable
// for the file's lifetime; Name is the addressing key of the agent-facing
// API and must be unique within a project.
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Content  string `json:"content"`
	Dirty    bool   `json:"isUnsaved,omitempty"`
}

var extensionLanguages = map[string]string{
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".html": "html",
	".css":  "css",
	".json": "json",
	".py":   "python",
	".java": "java",
	".md":   "markdown",
	".sql":  "sql",
	".txt":  "plaintext",
}

// DetectLanguage maps a file name to its editor language tag.
// Unknown extensions fall back to plaintext.
func DetectLanguage(name string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(name)))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return "plaintext"
}

func newFile(name, content string) File {
	return File{
		ID:       utils.ShortID(),
		Name:     name,
		Language: DetectLanguage(name),
		Content:  content,
		Dirty:    true,
	}
}
