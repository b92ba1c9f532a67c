package workspace

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/leon2m/cursoronline/internal/agent"
	"github.com/leon2m/cursoronline/internal/gateway/repository/projectrepo"
	"github.com/leon2m/cursoronline/internal/tester"
)

func testService(t *testing.T) (*Service, *projectrepo.Store) {
	t.Helper()
	repo := projectrepo.New(filepath.Join(t.TempDir(), "projects.json"))
	svc := NewService(repo)
	svc.debounce = 50 * time.Millisecond
	return svc, repo
}

func TestCreateAndOpen(t *testing.T) {
	svc, _ := testService(t)
	rec, err := svc.Create("u1", "Todo App", &agent.ProjectConfig{Type: "web"})
	tester.NoErr(t, err)
	tester.True(t, rec.ProjectID != "")

	sess, err := svc.Open(rec.ProjectID)
	tester.NoErr(t, err)
	tester.Eq(t, sess.Name, "Todo App")
	tester.Eq(t, sess.Config.Type, "web")
	tester.Eq(t, sess.Files.Len(), 0)

	// Opening again returns the same live session.
	again, err := svc.Open(rec.ProjectID)
	tester.NoErr(t, err)
	tester.True(t, again == sess)
}

func TestOpenUnknownProject(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.Open("ghost")
	tester.ErrIs(t, err, ErrUnknownProject)
}

func TestEditsDebounceIntoOneSync(t *testing.T) {
	svc, repo := testService(t)
	rec, err := svc.Create("u1", "P", nil)
	tester.NoErr(t, err)
	sess, err := svc.Open(rec.ProjectID)
	tester.NoErr(t, err)

	f, err := sess.CreateFile("index.html", "<html></html>")
	tester.NoErr(t, err)
	tester.NoErr(t, sess.UpdateFile(f.ID, "<html>v2</html>"))

	// Before the debounce window closes nothing is persisted yet.
	got, _ := repo.Load(rec.ProjectID)
	tester.Eq(t, len(got.Files), 0)

	deadline := time.Now().Add(time.Second)
	for {
		got, _ = repo.Load(rec.ProjectID)
		if len(got.Files) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("debounced sync never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	tester.Eq(t, got.Files[0].Content, "<html>v2</html>")

	// The sync also clears the unsaved markers.
	deadline = time.Now().Add(time.Second)
	for sess.Files.List()[0].Dirty {
		if time.Now().After(deadline) {
			t.Fatalf("dirty flag never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFlushSyncsImmediately(t *testing.T) {
	svc, repo := testService(t)
	rec, err := svc.Create("u1", "P", nil)
	tester.NoErr(t, err)
	sess, err := svc.Open(rec.ProjectID)
	tester.NoErr(t, err)

	_, err = sess.CreateFile("app.js", "x")
	tester.NoErr(t, err)
	tester.NoErr(t, sess.Flush())

	got, _ := repo.Load(rec.ProjectID)
	tester.Eq(t, len(got.Files), 1)
}

func TestCloseFlushesAndDropsSession(t *testing.T) {
	svc, repo := testService(t)
	rec, err := svc.Create("u1", "P", nil)
	tester.NoErr(t, err)
	sess, err := svc.Open(rec.ProjectID)
	tester.NoErr(t, err)
	_, err = sess.CreateFile("a.js", "v")
	tester.NoErr(t, err)

	tester.NoErr(t, svc.Close(rec.ProjectID))
	_, open := svc.Get(rec.ProjectID)
	tester.False(t, open)

	got, _ := repo.Load(rec.ProjectID)
	tester.Eq(t, len(got.Files), 1)

	// Reopening restores the persisted files as clean.
	sess, err = svc.Open(rec.ProjectID)
	tester.NoErr(t, err)
	tester.Eq(t, sess.Files.Len(), 1)
	tester.False(t, sess.Files.List()[0].Dirty)
}

func TestDeleteClosesSessionAndRemovesRecord(t *testing.T) {
	svc, repo := testService(t)
	rec, err := svc.Create("u1", "P", nil)
	tester.NoErr(t, err)
	_, err = svc.Open(rec.ProjectID)
	tester.NoErr(t, err)

	tester.NoErr(t, svc.Delete(rec.ProjectID))
	_, open := svc.Get(rec.ProjectID)
	tester.False(t, open)
	_, ok := repo.Load(rec.ProjectID)
	tester.False(t, ok)
}

func TestRenameAndDeleteFilePaths(t *testing.T) {
	svc, _ := testService(t)
	rec, err := svc.Create("u1", "P", nil)
	tester.NoErr(t, err)
	sess, err := svc.Open(rec.ProjectID)
	tester.NoErr(t, err)

	f, err := sess.CreateFile("a.js", "v")
	tester.NoErr(t, err)
	tester.NoErr(t, sess.RenameFile(f.ID, "b.ts"))
	got, ok := sess.Files.Get("b.ts")
	tester.True(t, ok)
	tester.Eq(t, got.Language, "typescript")

	tester.NoErr(t, sess.DeleteFile(f.ID))
	tester.Eq(t, sess.Files.Len(), 0)
}
