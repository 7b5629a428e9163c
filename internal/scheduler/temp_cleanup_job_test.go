package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeTempFile(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestCleanupTempFiles(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-48 * time.Hour)
	fresh := time.Now()

	oldCustom := writeTempFile(t, dir, "custom_tts_abc123.wav", old)
	oldPiper := writeTempFile(t, dir, "piper_tts_def456.wav", old)
	freshCustom := writeTempFile(t, dir, "custom_tts_fresh.wav", fresh)
	// Посторонний файл не должен удаляться, даже старый
	foreign := writeTempFile(t, dir, "notes.wav", old)

	deleted, err := CleanupTempFiles(dir, time.Now().Add(-24*time.Hour), false, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	assert.NoFileExists(t, oldCustom)
	assert.NoFileExists(t, oldPiper)
	assert.FileExists(t, freshCustom)
	assert.FileExists(t, foreign)
}

func TestCleanupTempFiles_DryRun(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-48 * time.Hour)

	path := writeTempFile(t, dir, "custom_tts_abc123.wav", old)

	deleted, err := CleanupTempFiles(dir, time.Now().Add(-24*time.Hour), true, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.FileExists(t, path)
}

func TestCleanupTempFiles_MissingDir(t *testing.T) {
	deleted, err := CleanupTempFiles(filepath.Join(t.TempDir(), "nope"), time.Now(), false, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestTempCleanupJob_Run(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "custom_tts_old.wav", time.Now().Add(-2*time.Hour))

	job := NewTempCleanupJob(zap.NewNop(), dir, time.Hour)
	assert.Equal(t, "temp_cleanup", job.Name())

	require.NoError(t, job.Run(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
