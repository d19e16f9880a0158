package main

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaakapp/yaaksync/internal/models"
	"github.com/yaakapp/yaaksync/internal/sync"
)

var workspaceIDRE = regexp.MustCompile(`wk_[0-9a-f]+`)

func createWorkspace(t *testing.T, dataDir, name string) string {
	t.Helper()
	out, err := runCLI(t, dataDir, "workspace", "create", "--name", name)
	require.NoError(t, err)
	id := workspaceIDRE.FindString(out)
	require.NotEmpty(t, id, out)
	return id
}

func TestCLI_WorkspaceLinkSyncStatus(t *testing.T) {
	dataDir := t.TempDir()
	syncDir := filepath.Join(t.TempDir(), "api")

	wsID := createWorkspace(t, dataDir, "My API")

	out, err := runCLI(t, dataDir, "workspace", "list")
	require.NoError(t, err)
	assert.Contains(t, out, wsID)
	assert.Contains(t, out, "My API")

	out, err = runCLI(t, dataDir, "link", "-w", wsID, "--dir", syncDir)
	require.NoError(t, err)
	assert.Contains(t, out, "linked")

	out, err = runCLI(t, dataDir, "link", "-w", wsID, "--dir", syncDir)
	require.NoError(t, err)
	assert.Contains(t, out, "already linked")

	out, err = runCLI(t, dataDir, "sync", "-w", wsID, "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, string(sync.OpFsCreate))
	assert.FileExists(t, filepath.Join(syncDir, "yaak."+wsID+".yaml"))

	out, err = runCLI(t, dataDir, "sync", "-w", wsID)
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	out, err = runCLI(t, dataDir, "status", "-w", wsID)
	require.NoError(t, err)
	assert.Contains(t, out, syncDir)
	assert.Contains(t, out, "yaak."+wsID+".yaml")

	out, err = runCLI(t, dataDir, "workspace", "list")
	require.NoError(t, err)
	assert.Contains(t, out, syncDir)
}

func TestCLI_SyncImportsFilesFromDirectory(t *testing.T) {
	dataDir := t.TempDir()
	syncDir := t.TempDir()

	wsID := createWorkspace(t, dataDir, "Imported")
	_, err := runCLI(t, dataDir, "link", "-w", wsID, "--dir", syncDir)
	require.NoError(t, err)

	req := &models.HttpRequest{
		Base:        models.Base{ID: "rq_imported"},
		WorkspaceID: wsID,
		Name:        "Health",
		Method:      "GET",
		URL:         "https://example.com/health",
	}
	data, err := models.Marshal(req, models.FormatYAML)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(syncDir, "health.yaml"), data, 0o644))

	out, err := runCLI(t, dataDir, "sync", "-w", wsID, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, string(sync.OpDbCreate))
	assert.Contains(t, out, "rq_imported")
}

func TestCLI_SyncAll(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCLI(t, dataDir, "sync", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "no linked workspaces")

	first := createWorkspace(t, dataDir, "First")
	second := createWorkspace(t, dataDir, "Second")
	firstDir := t.TempDir()
	secondDir := t.TempDir()
	_, err = runCLI(t, dataDir, "link", "-w", first, "--dir", firstDir)
	require.NoError(t, err)
	_, err = runCLI(t, dataDir, "link", "-w", second, "--dir", secondDir)
	require.NoError(t, err)

	out, err = runCLI(t, dataDir, "sync", "--all", "--concurrency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, first)
	assert.Contains(t, out, second)
	assert.FileExists(t, filepath.Join(firstDir, "yaak."+first+".yaml"))
	assert.FileExists(t, filepath.Join(secondDir, "yaak."+second+".yaml"))
}

func TestCLI_FlagValidation(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCLI(t, dataDir, "sync")
	assert.ErrorContains(t, err, "exactly one of")

	_, err = runCLI(t, dataDir, "sync", "-w", "wk_1", "--all")
	assert.ErrorContains(t, err, "exactly one of")

	_, err = runCLI(t, dataDir, "sync", "--all", "--dir", t.TempDir())
	assert.ErrorContains(t, err, "--dir")

	_, err = runCLI(t, dataDir, "sync", "--all", "--concurrency", "0")
	assert.ErrorContains(t, err, "--concurrency")

	_, err = runCLI(t, dataDir, "link", "-w", "wk_1")
	assert.ErrorContains(t, err, "required")

	_, err = runCLI(t, dataDir, "link", "-w", "wk_missing", "--dir", t.TempDir())
	assert.Error(t, err)

	_, err = runCLI(t, dataDir, "workspace", "create")
	assert.ErrorContains(t, err, "--name")

	wsID := createWorkspace(t, dataDir, "Unlinked")
	_, err = runCLI(t, dataDir, "sync", "-w", wsID)
	assert.ErrorContains(t, err, "not linked")

	out, err := runCLI(t, dataDir, "status", "-w", wsID)
	require.NoError(t, err)
	assert.Contains(t, out, "not linked")
}

func TestCLI_LockedWorkspaceIsRejected(t *testing.T) {
	dataDir := t.TempDir()
	wsID := createWorkspace(t, dataDir, "Locked")
	syncDir := t.TempDir()
	_, err := runCLI(t, dataDir, "link", "-w", wsID, "--dir", syncDir)
	require.NoError(t, err)

	locks := filepath.Join(dataDir, "locks")
	require.NoError(t, os.MkdirAll(locks, 0o755))
	lock := flock.New(filepath.Join(locks, wsID+".lock"))
	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer lock.Unlock()

	_, err = runCLI(t, dataDir, "sync", "-w", wsID)
	assert.ErrorIs(t, err, sync.ErrSyncAlreadyRunning)
}
