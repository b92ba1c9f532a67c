package snapshot

import (
	"context"
	"testing"

	"github.com/leon2m/cursoronline/internal/project"
	"github.com/leon2m/cursoronline/internal/tester"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tester.NoErr(t, s.Put(ctx, "run-1", "index.html", []byte("<html></html>")))
	got, err := s.Get(ctx, "run-1", "index.html")
	tester.NoErr(t, err)
	tester.Eq(t, string(got), "<html></html>")

	_, err = s.Get(ctx, "run-1", "missing.js")
	tester.ErrIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "run-2", "index.html")
	tester.ErrIs(t, err, ErrNotFound)
}

func TestMemoryStoreListIsScopedAndSorted(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tester.NoErr(t, s.Put(ctx, "run-1", "script.js", nil))
	tester.NoErr(t, s.Put(ctx, "run-1", "index.html", nil))
	tester.NoErr(t, s.Put(ctx, "run-2", "other.js", nil))

	paths, err := s.List(ctx, "run-1")
	tester.NoErr(t, err)
	tester.Eq(t, paths, []string{"index.html", "script.js"})
}

func TestPutValidatesKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	tester.True(t, s.Put(ctx, "", "a", nil) != nil)
	tester.True(t, s.Put(ctx, "run-1", " ", nil) != nil)
}

func TestArchiveWritesEveryFile(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	files := []project.File{
		{ID: "f1", Name: "index.html", Content: "<html></html>"},
		{ID: "f2", Name: "style.css", Content: "body {}"},
	}
	tester.NoErr(t, Archive(ctx, s, "run-9", files))

	paths, err := s.List(ctx, "run-9")
	tester.NoErr(t, err)
	tester.Eq(t, paths, []string{"index.html", "style.css"})
	got, err := s.Get(ctx, "run-9", "style.css")
	tester.NoErr(t, err)
	tester.Eq(t, string(got), "body {}")
}
