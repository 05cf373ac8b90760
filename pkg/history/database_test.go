package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/pkg/testutil"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := testutil.TempDBPath(t)
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)
}

func TestSaveAndRecent(t *testing.T) {
	db, path := openTestDB(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := Run{
		ID: "run-1", StartedAt: base, Duration: 1500 * time.Millisecond,
		Blueprint: "001", Target: "demo", Options: []string{"repository"},
		Files: 4, Skipped: 1, Status: StatusPartial,
	}
	newer := Run{
		ID: "run-2", StartedAt: base.Add(time.Hour), Blueprint: "002",
		Target: "other", Status: StatusCancelled, Error: "cancelled",
	}
	require.NoError(t, db.Save(older))
	require.NoError(t, db.Save(newer))

	runs, err := db.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, StatusCancelled, runs[0].Status)
	assert.Equal(t, "cancelled", runs[0].Error)
	assert.Empty(t, runs[0].Options)

	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, "001", runs[1].Blueprint)
	assert.Equal(t, "demo", runs[1].Target)
	assert.Equal(t, []string{"repository"}, runs[1].Options)
	assert.Equal(t, 4, runs[1].Files)
	assert.Equal(t, 1, runs[1].Skipped)
	assert.Equal(t, 1500*time.Millisecond, runs[1].Duration)
	assert.True(t, base.Equal(runs[1].StartedAt), "started_at %v", runs[1].StartedAt)

	helper := testutil.NewSQLiteTestHelper(t, path)
	assert.Equal(t, 2, helper.Count(t, "runs"))
	assert.True(t, helper.RowExists(t, "runs", "id = ? AND status = ?", "run-1", "partial"))
	assert.EqualValues(t, 2, helper.QuerySingle(t, "SELECT COUNT(*) FROM runs WHERE dry_run = 0"))
}

func TestRecent_Limit(t *testing.T) {
	db, _ := openTestDB(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		r := NewRun("001")
		r.StartedAt = base.Add(time.Duration(i) * time.Minute)
		r.Status = StatusCompleted
		require.NoError(t, db.Save(r))
	}

	runs, err := db.Recent(3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestSave_ReplacesExistingRun(t *testing.T) {
	db, path := openTestDB(t)

	r := NewRun("001")
	r.Status = StatusInterrupted
	require.NoError(t, db.Save(r))

	r.Status = StatusCompleted
	r.Files = 3
	require.NoError(t, db.Save(r))

	helper := testutil.NewSQLiteTestHelper(t, path)
	assert.Equal(t, 1, helper.Count(t, "runs"))
	assert.True(t, helper.RowExists(t, "runs", "id = ? AND status = ? AND files = 3", r.ID, "completed"))
}

func TestStats(t *testing.T) {
	db, _ := openTestDB(t)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	save := func(id, bp string, status Status, offset time.Duration, dryRun bool) {
		require.NoError(t, db.Save(Run{
			ID: id, StartedAt: base.Add(offset), Blueprint: bp, Status: status, DryRun: dryRun,
		}))
	}
	save("a", "001", StatusCompleted, 0, false)
	save("b", "001", StatusPartial, time.Minute, false)
	save("c", "001", StatusCompleted, 2*time.Minute, false)
	save("d", "002", StatusCompleted, 3*time.Minute, false)
	save("e", "002", StatusCompleted, 4*time.Minute, true)

	stats, err := db.Stats()
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "001", stats[0].Blueprint)
	assert.Equal(t, 3, stats[0].Runs)
	assert.Equal(t, 2, stats[0].Completed)
	assert.True(t, base.Add(2*time.Minute).Equal(stats[0].LastRun), "last run %v", stats[0].LastRun)

	assert.Equal(t, "002", stats[1].Blueprint)
	assert.Equal(t, 1, stats[1].Runs)
}

func TestPrune(t *testing.T) {
	db, path := openTestDB(t)

	now := time.Now()
	old := NewRun("001")
	old.StartedAt = now.AddDate(0, 0, -40)
	old.Status = StatusCompleted
	recent := NewRun("001")
	recent.StartedAt = now.AddDate(0, 0, -1)
	recent.Status = StatusCompleted
	require.NoError(t, db.Save(old))
	require.NoError(t, db.Save(recent))

	removed, err := db.Prune(now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	helper := testutil.NewSQLiteTestHelper(t, path)
	assert.False(t, helper.RowExists(t, "runs", "id = ?", old.ID))
	assert.True(t, helper.RowExists(t, "runs", "id = ?", recent.ID))
}

func TestNewRun(t *testing.T) {
	a := NewRun("001")
	b := NewRun("001")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "001", a.Blueprint)
	assert.WithinDuration(t, time.Now(), a.StartedAt, time.Second)
}

func TestRecent_CorruptOptions(t *testing.T) {
	db, path := openTestDB(t)

	r := NewRun("001")
	r.Options = []string{"repository"}
	r.Status = StatusCompleted
	require.NoError(t, db.Save(r))

	helper := testutil.NewSQLiteTestHelper(t, path)
	helper.Exec(t, "UPDATE runs SET options = ? WHERE id = ?", "{not json", r.ID)

	_, err := db.Recent(10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), r.ID)
	assert.Contains(t, err.Error(), "failed to decode options")
}
