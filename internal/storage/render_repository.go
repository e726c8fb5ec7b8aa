package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/og-service/internal/model"
)

// ErrNotFound is returned when a file or record doesn't exist.
// Go uses sentinel errors (predefined error values) instead of exception types.
// Callers check with errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("not found")

// RenderRepository defines the interface for render log persistence.
// Go interfaces are implicit — any struct that has these methods satisfies it.
type RenderRepository interface {
	Create(ctx context.Context, record *model.RenderRecord) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.RenderStatus) (int64, error)
	CountByProvenance(ctx context.Context, provenance model.Provenance) (int64, error)
	Recent(ctx context.Context, limit int) ([]model.RenderRecord, error)
}

// sqliteRenderRepository is the SQLite implementation of RenderRepository.
// The struct is unexported (lowercase first letter) — only the interface is public.
type sqliteRenderRepository struct {
	db *sqlx.DB
}

// NewRenderRepository creates a new SQLite-backed RenderRepository.
func NewRenderRepository(db *sqlx.DB) RenderRepository {
	return &sqliteRenderRepository{db: db}
}

func (r *sqliteRenderRepository) Create(ctx context.Context, record *model.RenderRecord) error {
	// NamedExecContext uses the struct's `db:` tags to map fields to :named placeholders.
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO render_log (blood_group, provenance, status, stage, duration_ms, bytes)
		VALUES (:blood_group, :provenance, :status, :stage, :duration_ms, :bytes)
	`, record)
	if err != nil {
		return fmt.Errorf("creating render record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	record.ID = id
	return nil
}

func (r *sqliteRenderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM render_log")
	return count, err
}

func (r *sqliteRenderRepository) CountByStatus(ctx context.Context, status model.RenderStatus) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM render_log WHERE status = ?", status)
	return count, err
}

func (r *sqliteRenderRepository) CountByProvenance(ctx context.Context, provenance model.Provenance) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM render_log WHERE provenance = ?", provenance)
	return count, err
}

// Recent returns the newest records first.
func (r *sqliteRenderRepository) Recent(ctx context.Context, limit int) ([]model.RenderRecord, error) {
	records := []model.RenderRecord{}
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM render_log ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent renders: %w", err)
	}
	return records, nil
}
