package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/yaakapp/yaaksync/internal/models"
)

type table struct {
	name      string
	hasFolder bool
}

var tables = map[models.Kind]table{
	models.KindWorkspace:        {name: "workspaces"},
	models.KindEnvironment:      {name: "environments"},
	models.KindFolder:           {name: "folders", hasFolder: true},
	models.KindHttpRequest:      {name: "http_requests", hasFolder: true},
	models.KindGrpcRequest:      {name: "grpc_requests", hasFolder: true},
	models.KindWebsocketRequest: {name: "websocket_requests", hasFolder: true},
}

func tableFor(kind models.Kind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, fmt.Errorf("no table for resource model %q", kind)
	}
	return t, nil
}

func (t table) selectQuery(where string) string {
	folderCol := "NULL"
	if t.hasFolder {
		folderCol = "folder_id"
	}
	return fmt.Sprintf(
		"SELECT id, workspace_id, %s AS folder_id, name, created_at, updated_at, payload FROM %s WHERE %s ORDER BY created_at, id",
		folderCol, t.name, where)
}

func (t table) upsertQuery() string {
	if t.hasFolder {
		return fmt.Sprintf(`INSERT INTO %s (id, workspace_id, folder_id, name, created_at, updated_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			workspace_id = excluded.workspace_id,
			folder_id = excluded.folder_id,
			name = excluded.name,
			updated_at = excluded.updated_at,
			payload = excluded.payload`, t.name)
	}
	return fmt.Sprintf(`INSERT INTO %s (id, workspace_id, name, created_at, updated_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			workspace_id = excluded.workspace_id,
			name = excluded.name,
			updated_at = excluded.updated_at,
			payload = excluded.payload`, t.name)
}

// resourceRow is used for scanning, the payload column is authoritative.
type resourceRow struct {
	ID          string         `db:"id"`
	WorkspaceID string         `db:"workspace_id"`
	FolderID    sql.NullString `db:"folder_id"`
	Name        string         `db:"name"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
	Payload     string         `db:"payload"`
}

func (row resourceRow) decode(kind models.Kind) (models.Resource, error) {
	r, err := models.UnmarshalPayload(kind, []byte(row.Payload))
	if err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", kind, row.ID, err)
	}
	return r, nil
}

func resourceName(r models.Resource) string {
	switch v := r.(type) {
	case *models.Workspace:
		return v.Name
	case *models.Environment:
		return v.Name
	case *models.Folder:
		return v.Name
	case *models.HttpRequest:
		return v.Name
	case *models.GrpcRequest:
		return v.Name
	case *models.WebsocketRequest:
		return v.Name
	}
	return ""
}

// ListResources returns every live resource of a workspace in dependency order.
func (s *Store) ListResources(workspaceID string) ([]models.Resource, error) {
	var resources []models.Resource
	for _, kind := range models.AllKinds {
		t := tables[kind]
		where := "workspace_id = ?"
		if kind == models.KindWorkspace {
			where = "id = ?"
		}

		var rows []resourceRow
		if err := s.db.Select(&rows, s.db.Rebind(t.selectQuery(where)), workspaceID); err != nil {
			return nil, fmt.Errorf("list %s for workspace %s: %w", t.name, workspaceID, err)
		}
		for _, row := range rows {
			r, err := row.decode(kind)
			if err != nil {
				return nil, err
			}
			resources = append(resources, r)
		}
	}
	return resources, nil
}

// GetResource loads one resource, returning ErrNotFound if it does not exist.
func (s *Store) GetResource(kind models.Kind, id string) (models.Resource, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	var row resourceRow
	if err := s.db.Get(&row, s.db.Rebind(t.selectQuery("id = ?")), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return row.decode(kind)
}

func (s *Store) ListWorkspaces() ([]*models.Workspace, error) {
	t := tables[models.KindWorkspace]
	var rows []resourceRow
	if err := s.db.Select(&rows, t.selectQuery("1 = 1")); err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	workspaces := make([]*models.Workspace, 0, len(rows))
	for _, row := range rows {
		r, err := row.decode(models.KindWorkspace)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, r.(*models.Workspace))
	}
	return workspaces, nil
}

// UpsertResource writes a single resource.
func (s *Store) UpsertResource(r models.Resource, source UpdateSource) (models.Resource, error) {
	batch := NewBatch()
	batch.Add(r)
	committed, err := s.BatchUpsert(batch, source)
	if err != nil {
		return nil, err
	}
	return committed[0], nil
}

// BatchUpsert writes every resource in the batch inside one transaction, in
// dependency order. Nothing is written if any resource fails.
func (s *Store) BatchUpsert(batch *Batch, source UpdateSource) ([]models.Resource, error) {
	if batch == nil || batch.Len() == 0 {
		return nil, nil
	}

	now := s.now()
	ordered := batch.Ordered()
	err := s.withTx(func(tx *sqlx.Tx) error {
		for _, r := range ordered {
			if source == UpdateSourceSync {
				if r.GetUpdatedAt().IsZero() {
					models.Touch(r, now)
				} else if created := createdAt(r); created.IsZero() {
					setCreatedAt(r, r.GetUpdatedAt())
				}
			} else {
				models.Touch(r, now)
			}
			if err := upsertTx(tx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	changes := make([]ModelChange, 0, len(ordered))
	for _, r := range ordered {
		changes = append(changes, changeFor(r, false, source))
	}
	s.emit(changes)
	return ordered, nil
}

func upsertTx(tx *sqlx.Tx, r models.Resource) error {
	t, err := tableFor(r.Kind())
	if err != nil {
		return err
	}
	if r.GetID() == "" {
		return fmt.Errorf("upsert %s: missing id", r.Kind())
	}
	payload, err := models.MarshalPayload(r)
	if err != nil {
		return fmt.Errorf("encode %s: %w", models.Describe(r), err)
	}

	args := []any{r.GetID(), r.GetWorkspaceID()}
	if t.hasFolder {
		var folderID sql.NullString
		if parent := models.ParentFolderID(r); parent != "" {
			folderID = sql.NullString{String: parent, Valid: true}
		}
		args = append(args, folderID)
	}
	args = append(args, resourceName(r), formatTime(createdAt(r)), formatTime(r.GetUpdatedAt()), string(payload))

	if _, err := tx.Exec(tx.Rebind(t.upsertQuery()), args...); err != nil {
		return fmt.Errorf("upsert %s: %w", models.Describe(r), err)
	}
	return nil
}

// DeleteResource removes r and, through the schema's cascades, everything
// beneath it. Deleting a missing resource is not an error.
func (s *Store) DeleteResource(r models.Resource, source UpdateSource) error {
	t, err := tableFor(r.Kind())
	if err != nil {
		return err
	}

	descendants, err := s.descendants(r)
	if err != nil {
		return err
	}

	var deleted []models.Resource
	err = s.withTx(func(tx *sqlx.Tx) error {
		res, err := tx.Exec(tx.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name)), r.GetID())
		if err != nil {
			return fmt.Errorf("delete %s: %w", models.Describe(r), err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			deleted = append([]models.Resource{r}, descendants...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(deleted) > 0 {
		slog.Debug("store delete", "resource", models.Describe(r), "cascaded", len(deleted)-1)
	}
	changes := make([]ModelChange, 0, len(deleted))
	for _, d := range deleted {
		changes = append(changes, changeFor(d, true, source))
	}
	s.emit(changes)
	return nil
}

// descendants lists the resources the database will cascade-delete with r.
func (s *Store) descendants(r models.Resource) ([]models.Resource, error) {
	switch r.Kind() {
	case models.KindWorkspace:
		all, err := s.ListResources(r.GetID())
		if err != nil {
			return nil, err
		}
		out := make([]models.Resource, 0, len(all))
		for _, child := range all {
			if child.Kind() != models.KindWorkspace {
				out = append(out, child)
			}
		}
		return out, nil
	case models.KindFolder:
		all, err := s.ListResources(r.GetWorkspaceID())
		if err != nil {
			return nil, err
		}
		doomed := map[string]bool{r.GetID(): true}
		var out []models.Resource
		// folders are listed before requests, repeat until no new folder joins
		for changed := true; changed; {
			changed = false
			for _, child := range all {
				if doomed[child.GetID()] {
					continue
				}
				if doomed[models.ParentFolderID(child)] {
					doomed[child.GetID()] = true
					out = append(out, child)
					changed = true
				}
			}
		}
		return out, nil
	default:
		return nil, nil
	}
}

func createdAt(r models.Resource) time.Time {
	return models.BaseOf(r).CreatedAt
}

func setCreatedAt(r models.Resource, t time.Time) {
	models.BaseOf(r).CreatedAt = t.UTC()
}

// Batch groups resources by kind for an ordered upsert.
type Batch struct {
	buckets map[models.Kind][]models.Resource
	n       int
}

func NewBatch() *Batch {
	return &Batch{buckets: make(map[models.Kind][]models.Resource)}
}

func (b *Batch) Add(r models.Resource) {
	b.buckets[r.Kind()] = append(b.buckets[r.Kind()], r)
	b.n++
}

func (b *Batch) Len() int {
	return b.n
}

// Ordered flattens the batch in bucket order: workspaces, environments,
// folders with parents first, then each request kind.
func (b *Batch) Ordered() []models.Resource {
	out := make([]models.Resource, 0, b.n)
	for _, kind := range models.AllKinds {
		bucket := b.buckets[kind]
		if kind == models.KindFolder {
			bucket = parentsFirst(bucket)
		}
		out = append(out, bucket...)
	}
	return out
}

func parentsFirst(folders []models.Resource) []models.Resource {
	byID := make(map[string]models.Resource, len(folders))
	ids := make([]string, 0, len(folders))
	for _, f := range folders {
		if _, ok := byID[f.GetID()]; !ok {
			ids = append(ids, f.GetID())
		}
		byID[f.GetID()] = f
	}
	sort.Strings(ids)

	out := make([]models.Resource, 0, len(folders))
	state := make(map[string]int, len(ids)) // 1 visiting, 2 done
	var visit func(id string)
	visit = func(id string) {
		f, ok := byID[id]
		if !ok || state[id] != 0 {
			return
		}
		state[id] = 1
		visit(models.ParentFolderID(f))
		state[id] = 2
		out = append(out, f)
	}
	for _, id := range ids {
		visit(id)
	}
	return out
}
