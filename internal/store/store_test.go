package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaakapp/yaaksync/internal/db"
	"github.com/yaakapp/yaaksync/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.NewSqliteDB(db.WithPath(filepath.Join(t.TempDir(), "yaak.db")))
	require.NoError(t, err)
	s, err := New(database)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func seedWorkspace(t *testing.T, s *Store, id string) *models.Workspace {
	t.Helper()
	ws := &models.Workspace{Base: models.Base{ID: id}, Name: "Workspace " + id}
	_, err := s.UpsertResource(ws, UpdateSourceUser)
	require.NoError(t, err)
	return ws
}

func TestUpsertAndGetResource(t *testing.T) {
	s := newTestStore(t)
	seedWorkspace(t, s, "wk_1")

	req := &models.HttpRequest{Base: models.Base{ID: "rq_1"}, WorkspaceID: "wk_1", Name: "Users", Method: "GET", URL: "https://example.com"}
	_, err := s.UpsertResource(req, UpdateSourceUser)
	require.NoError(t, err)

	got, err := s.GetResource(models.KindHttpRequest, "rq_1")
	require.NoError(t, err)
	httpReq, ok := got.(*models.HttpRequest)
	require.True(t, ok)
	assert.Equal(t, "Users", httpReq.Name)
	assert.Equal(t, "https://example.com", httpReq.URL)
	assert.False(t, httpReq.CreatedAt.IsZero())

	_, err = s.GetResource(models.KindHttpRequest, "rq_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListResources_DependencyOrderAndWorkspaceScope(t *testing.T) {
	s := newTestStore(t)
	seedWorkspace(t, s, "wk_1")
	seedWorkspace(t, s, "wk_2")

	batch := NewBatch()
	batch.Add(&models.GrpcRequest{Base: models.Base{ID: "gr_1"}, WorkspaceID: "wk_1", Name: "g"})
	batch.Add(&models.Folder{Base: models.Base{ID: "fl_1"}, WorkspaceID: "wk_1", Name: "f"})
	batch.Add(&models.Environment{Base: models.Base{ID: "ev_1"}, WorkspaceID: "wk_1", Name: "e"})
	batch.Add(&models.HttpRequest{Base: models.Base{ID: "rq_2"}, WorkspaceID: "wk_2", Name: "other"})
	_, err := s.BatchUpsert(batch, UpdateSourceUser)
	require.NoError(t, err)

	resources, err := s.ListResources("wk_1")
	require.NoError(t, err)
	var ids []string
	for _, r := range resources {
		ids = append(ids, r.GetID())
	}
	assert.Equal(t, []string{"wk_1", "ev_1", "fl_1", "gr_1"}, ids)

	workspaces, err := s.ListWorkspaces()
	require.NoError(t, err)
	assert.Len(t, workspaces, 2)
}

func TestBatchUpsert_NestedFoldersParentsFirst(t *testing.T) {
	s := newTestStore(t)
	seedWorkspace(t, s, "wk_1")

	batch := NewBatch()
	batch.Add(&models.HttpRequest{Base: models.Base{ID: "rq_1"}, WorkspaceID: "wk_1", FolderID: strPtr("fl_c")})
	batch.Add(&models.Folder{Base: models.Base{ID: "fl_c"}, WorkspaceID: "wk_1", FolderID: strPtr("fl_b")})
	batch.Add(&models.Folder{Base: models.Base{ID: "fl_a"}, WorkspaceID: "wk_1"})
	batch.Add(&models.Folder{Base: models.Base{ID: "fl_b"}, WorkspaceID: "wk_1", FolderID: strPtr("fl_a")})

	var order []string
	for _, r := range batch.Ordered() {
		order = append(order, r.GetID())
	}
	assert.Equal(t, []string{"fl_a", "fl_b", "fl_c", "rq_1"}, order)

	_, err := s.BatchUpsert(batch, UpdateSourceSync)
	require.NoError(t, err)
}

func TestBatchUpsert_AllOrNothing(t *testing.T) {
	s := newTestStore(t)
	seedWorkspace(t, s, "wk_1")

	batch := NewBatch()
	batch.Add(&models.Folder{Base: models.Base{ID: "fl_1"}, WorkspaceID: "wk_1"})
	// references a folder that does not exist
	batch.Add(&models.HttpRequest{Base: models.Base{ID: "rq_1"}, WorkspaceID: "wk_1", FolderID: strPtr("fl_missing")})

	_, err := s.BatchUpsert(batch, UpdateSourceSync)
	require.Error(t, err)

	_, err = s.GetResource(models.KindFolder, "fl_1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteWorkspace_Cascades(t *testing.T) {
	s := newTestStore(t)
	ws := seedWorkspace(t, s, "wk_1")

	batch := NewBatch()
	batch.Add(&models.Environment{Base: models.Base{ID: "ev_1"}, WorkspaceID: "wk_1"})
	batch.Add(&models.Folder{Base: models.Base{ID: "fl_1"}, WorkspaceID: "wk_1"})
	batch.Add(&models.HttpRequest{Base: models.Base{ID: "rq_1"}, WorkspaceID: "wk_1", FolderID: strPtr("fl_1")})
	_, err := s.BatchUpsert(batch, UpdateSourceUser)
	require.NoError(t, err)

	var deleted []string
	unsubscribe := s.Subscribe(func(c ModelChange) {
		if c.Deleted {
			deleted = append(deleted, c.ID)
		}
	})
	defer unsubscribe()

	require.NoError(t, s.DeleteResource(ws, UpdateSourceUser))

	resources, err := s.ListResources("wk_1")
	require.NoError(t, err)
	assert.Empty(t, resources)
	assert.ElementsMatch(t, []string{"wk_1", "ev_1", "fl_1", "rq_1"}, deleted)

	// deleting again is a no-op
	assert.NoError(t, s.DeleteResource(ws, UpdateSourceUser))
}

func TestDeleteFolder_CascadesToNestedChildren(t *testing.T) {
	s := newTestStore(t)
	seedWorkspace(t, s, "wk_1")

	batch := NewBatch()
	parent := &models.Folder{Base: models.Base{ID: "fl_1"}, WorkspaceID: "wk_1"}
	batch.Add(parent)
	batch.Add(&models.Folder{Base: models.Base{ID: "fl_2"}, WorkspaceID: "wk_1", FolderID: strPtr("fl_1")})
	batch.Add(&models.WebsocketRequest{Base: models.Base{ID: "wr_1"}, WorkspaceID: "wk_1", FolderID: strPtr("fl_2")})
	batch.Add(&models.HttpRequest{Base: models.Base{ID: "rq_root"}, WorkspaceID: "wk_1"})
	_, err := s.BatchUpsert(batch, UpdateSourceUser)
	require.NoError(t, err)

	require.NoError(t, s.DeleteResource(parent, UpdateSourceSync))

	resources, err := s.ListResources("wk_1")
	require.NoError(t, err)
	var ids []string
	for _, r := range resources {
		ids = append(ids, r.GetID())
	}
	assert.Equal(t, []string{"wk_1", "rq_root"}, ids)
}

func TestUpdatedAtBySource(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	seedWorkspace(t, s, "wk_1")

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	synced := &models.Folder{Base: models.Base{ID: "fl_1", UpdatedAt: old}, WorkspaceID: "wk_1"}
	_, err := s.UpsertResource(synced, UpdateSourceSync)
	require.NoError(t, err)

	got, err := s.GetResource(models.KindFolder, "fl_1")
	require.NoError(t, err)
	assert.True(t, old.Equal(got.GetUpdatedAt()), "sync writes keep updated_at")

	_, err = s.UpsertResource(got, UpdateSourceUser)
	require.NoError(t, err)
	got, err = s.GetResource(models.KindFolder, "fl_1")
	require.NoError(t, err)
	assert.True(t, fixed.Equal(got.GetUpdatedAt()), "user writes bump updated_at")
}

func TestSubscribe_ReceivesSource(t *testing.T) {
	s := newTestStore(t)

	var changes []ModelChange
	unsubscribe := s.Subscribe(func(c ModelChange) { changes = append(changes, c) })

	seedWorkspace(t, s, "wk_1")
	_, err := s.UpsertResource(&models.Folder{Base: models.Base{ID: "fl_1"}, WorkspaceID: "wk_1"}, UpdateSourceSync)
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, UpdateSourceUser, changes[0].Source)
	assert.Equal(t, ModelChange{Kind: models.KindFolder, ID: "fl_1", WorkspaceID: "wk_1", Source: UpdateSourceSync}, changes[1])

	unsubscribe()
	_, err = s.UpsertResource(&models.Folder{Base: models.Base{ID: "fl_2"}, WorkspaceID: "wk_1"}, UpdateSourceUser)
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}
