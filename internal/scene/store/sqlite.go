package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scene-editor/internal/scene/models"

	"github.com/google/uuid"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when no scene has the requested id.
var ErrNotFound = models.ErrSceneNotFound

// ============================================================
// SQLite Scene Store
// ============================================================

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Init applies the embedded migrations.
func (r *Repository) Init(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	for _, e := range entries {
		data, err := migrations.ReadFile("migrations/" + e.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Insert stores a new scene. An empty id is assigned; updated_at is set to now.
func (r *Repository) Insert(ctx context.Context, s models.SavedScene) (*models.SavedScene, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.UpdatedAt = r.stamp()
	objects, err := encodeObjects(s.Objects)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO scenes (id, owner_id, name, objects, updated_at)
        VALUES (?, ?, ?, ?, ?)
    `, s.ID, s.OwnerID, s.Name, objects, formatTime(s.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert scene: %w", err)
	}
	if s.Objects == nil {
		s.Objects = []models.Object{}
	}
	return &s, nil
}

// Update replaces the name and objects of an existing scene.
func (r *Repository) Update(ctx context.Context, id, name string, objects []models.Object) error {
	data, err := encodeObjects(objects)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE scenes SET name = ?, objects = ?, updated_at = ?
        WHERE id = ?
    `, name, data, formatTime(r.stamp()), id)
	if err != nil {
		return fmt.Errorf("update scene: %w", err)
	}
	return expectRow(res)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.SavedScene, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, owner_id, name, objects, updated_at
        FROM scenes
        WHERE id = ?
    `, id)

	var (
		s         models.SavedScene
		objects   string
		updatedAt string
	)
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &objects, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(objects), &s.Objects); err != nil {
		return nil, fmt.Errorf("decode scene objects: %w", err)
	}
	if s.Objects == nil {
		s.Objects = []models.Object{}
	}
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

// ListByOwner returns the owner's scenes, most recently updated first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]models.SceneSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, updated_at
        FROM scenes
        WHERE owner_id = ?
        ORDER BY updated_at DESC, id
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	out := []models.SceneSummary{}
	for rows.Next() {
		var (
			s         models.SceneSummary
			updatedAt string
		)
		if err := rows.Scan(&s.ID, &s.Name, &updatedAt); err != nil {
			return nil, err
		}
		s.UpdatedAt = parseTime(updatedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scene: %w", err)
	}
	return expectRow(res)
}

// ============================================================
// Helpers
// ============================================================

// stamp returns a UTC time rounded to what the text column keeps.
func (r *Repository) stamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeObjects(objects []models.Object) (string, error) {
	if objects == nil {
		objects = []models.Object{}
	}
	data, err := json.Marshal(objects)
	if err != nil {
		return "", fmt.Errorf("encode scene objects: %w", err)
	}
	return string(data), nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
