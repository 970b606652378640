package cmd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathportal/internal/progress"
	"github.com/abhisek/mathportal/internal/store"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	old := os.Stdout
	os.Stdout = w

	rootCmd.SetArgs(args)
	runErr := rootCmd.Execute()

	w.Close()
	os.Stdout = old
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out), runErr
}

func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("MATHPORTAL_TOKEN", "")
	t.Setenv("MATHPORTAL_CACHE", "")
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(dir, "test.db")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mathportal (devel)\n", out)
}

func TestLessons_Published(t *testing.T) {
	dbPath := testEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/lessons/published", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("grade"))
		io.WriteString(w, `[{"id": 3, "slug": "angles", "title": "Angles", "grade": 7, "duration": 20}]`)
	}))
	defer srv.Close()

	out, err := execute(t, "lessons", "--grade", "7", "--api", srv.URL+"/api", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "angles")
	assert.Contains(t, out, "Angles")
}

func TestCache_ListShowClear(t *testing.T) {
	dbPath := testEnv(t)

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	st := progress.NewState()
	st.Completed[0] = true
	st.Completed[1] = true
	st.Percent = 40
	st.TimeSpent = 65
	progress.NewCache(s.KVRepo(), zerolog.Nop()).Save(context.Background(), "", "angles", *st)
	require.NoError(t, s.Close())

	out, err := execute(t, "cache", "list", "--db", dbPath, "--cache", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "angles")
	assert.Contains(t, out, "40%")
	assert.Contains(t, out, "1:05")

	out, err = execute(t, "cache", "show", "angles", "--db", dbPath, "--cache", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "progress:guest:angles")
	assert.Contains(t, out, `"percent": 40`)
	assert.NotContains(t, out, "unreadable")

	_, err = execute(t, "cache", "clear", "angles", "--db", dbPath, "--cache", "sqlite")
	require.NoError(t, err)

	out, err = execute(t, "cache", "show", "angles", "--db", dbPath, "--cache", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing cached for angles.")
}

func TestStats_CountsEvents(t *testing.T) {
	dbPath := testEnv(t)

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	events := s.EventRepo()
	require.NoError(t, events.AppendSyncEvent(ctx, "angles", store.SyncEventData{LessonID: 3, Revision: 1, Percent: 20, LatencyMs: 12, Success: true}))
	require.NoError(t, events.AppendSyncEvent(ctx, "angles", store.SyncEventData{LessonID: 3, Revision: 2, Percent: 40, Success: false, Error: "backend down"}))
	require.NoError(t, events.AppendAttemptEvent(ctx, "quiz:9", store.AttemptEventData{QuizID: 9, Success: true, Score: 80, Passed: true}))
	require.NoError(t, s.Close())

	out, err := execute(t, "stats", "--db", dbPath, "--cache", "sqlite", "--kind", "", "--limit", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Progress syncs:    1 ok, 1 failed")
	assert.Contains(t, out, "Quiz submissions:  1 ok, 0 failed")
	assert.Contains(t, out, "backend down")
	assert.Contains(t, out, "quiz:9")
}

func TestAttempts_NeedsToken(t *testing.T) {
	dbPath := testEnv(t)
	_, err := execute(t, "attempts", "angles", "--db", dbPath, "--cache", "memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MATHPORTAL_TOKEN")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
