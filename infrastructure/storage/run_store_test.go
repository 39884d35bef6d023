package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form_filler/domain/entities"
)

func TestSaveAndLoadReport(t *testing.T) {
	store, err := NewRunStore(t.TempDir())
	require.NoError(t, err)

	started := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	report := &entities.Report{
		ID:        "run-1",
		URL:       "https://example.com",
		Status:    entities.RunStatusCompleted,
		Total:     2,
		StartedAt: started,
	}
	report.Record(entities.RowOutcome{Entry: 1, ElementRange: entities.ElementRange(0), Success: true, Attempts: 1})
	report.Record(entities.RowOutcome{Entry: 2, ElementRange: entities.ElementRange(1), Attempts: 3, Error: "timeout"})

	path, err := store.SaveReport(report)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.NoFileExists(t, path+".tmp")

	loaded, err := store.LoadReport("run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Succeeded)
	assert.Equal(t, 1, loaded.Failed)
	assert.Equal(t, "element_6-element_10", loaded.Outcomes[1].ElementRange)
	assert.True(t, started.Equal(loaded.StartedAt))
}

func TestSaveReportRequiresID(t *testing.T) {
	store, err := NewRunStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveReport(&entities.Report{})
	assert.Error(t, err)
}

func TestLatestReport(t *testing.T) {
	dir := t.TempDir()
	store, err := NewRunStore(dir)
	require.NoError(t, err)

	latest, err := store.LatestReport()
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = store.SaveReport(&entities.Report{ID: "older"})
	require.NoError(t, err)
	_, err = store.SaveReport(&entities.Report{ID: "newer"})
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "runs", "older.json"), past, past))

	latest, err = store.LatestReport()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "newer", latest.ID)
}

func TestLoadReportMissing(t *testing.T) {
	store, err := NewRunStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.LoadReport("nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReportIDMustStayInRunsDir(t *testing.T) {
	base := t.TempDir()
	store, err := NewRunStore(base)
	require.NoError(t, err)

	// a report-shaped file outside the runs directory
	require.NoError(t, os.WriteFile(filepath.Join(base, "outside.json"), []byte(`{"id":"outside"}`), 0o600))

	for _, id := range []string{"../outside", "..", ".", "a/b", `a\b`, ""} {
		_, err := store.LoadReport(id)
		assert.ErrorContains(t, err, "invalid run id", id)
	}

	_, err = store.SaveReport(&entities.Report{ID: "../escape"})
	assert.ErrorContains(t, err, "invalid run id")
	_, statErr := os.Stat(filepath.Join(base, "escape.json"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}
