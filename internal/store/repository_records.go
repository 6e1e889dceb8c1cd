package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/enotebook/eln-sync/internal/logger"
	"github.com/enotebook/eln-sync/models"
)

type recordRepository struct {
	*DB
	logger *logger.Logger
}

// NewRecordRepository constructs the sqlite-backed [RecordRepository].
func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	return &recordRepository{DB: db, logger: logger}
}

// upsertRecord applies last-writer-wins by version number in a single
// statement: the update branch only fires when the incoming version is
// strictly greater, so concurrent pulls cannot regress a record.
const upsertRecord = `INSERT INTO records (entity_type, entity_id, version, updated_at, data)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(entity_type, entity_id) DO UPDATE SET
		version = excluded.version,
		updated_at = excluded.updated_at,
		data = excluded.data
	WHERE excluded.version > records.version;`

func (r *recordRepository) Upsert(ctx context.Context, rec models.EntityRecord) (bool, error) {
	res, err := r.DB.ExecContext(ctx, upsertRecord,
		rec.EntityType,
		rec.EntityID,
		rec.Version,
		rec.UpdatedAt.UTC(),
		[]byte(rec.Data),
	)
	if err != nil {
		r.logger.Err(err).
			Str("entity_type", rec.EntityType).
			Str("entity_id", rec.EntityID).
			Msg("failed to upsert record")
		return false, fmt.Errorf("upsert record %s/%s: %w", rec.EntityType, rec.EntityID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *recordRepository) Get(ctx context.Context, entityType, entityID string) (models.EntityRecord, error) {
	query, args, err := sq.Select("entity_type", "entity_id", "version", "updated_at", "data").
		From("records").
		Where(sq.Eq{"entity_type": entityType}).
		Where(sq.Eq{"entity_id": entityID}).
		ToSql()
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("%w: %s", ErrBuildingSQLQuery, err)
	}

	var rec models.EntityRecord
	var data []byte
	row := r.DB.QueryRowContext(ctx, query, args...)
	if err = row.Scan(&rec.EntityType, &rec.EntityID, &rec.Version, &rec.UpdatedAt, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EntityRecord{}, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, entityType, entityID)
		}
		return models.EntityRecord{}, fmt.Errorf("%w: %s", ErrScanningRow, err)
	}

	rec.Data = data
	return rec, nil
}

func (r *recordRepository) Version(ctx context.Context, entityType, entityID string) (int64, bool, error) {
	query, args, err := sq.Select("version").
		From("records").
		Where(sq.Eq{"entity_type": entityType}).
		Where(sq.Eq{"entity_id": entityID}).
		ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s", ErrBuildingSQLQuery, err)
	}

	var version int64
	row := r.DB.QueryRowContext(ctx, query, args...)
	if err = row.Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: %s", ErrScanningRow, err)
	}

	return version, true, nil
}

func (r *recordRepository) ChangedSince(ctx context.Context, entityType string, since time.Time) ([]models.EntityRecord, error) {
	query, args, err := sq.Select("entity_type", "entity_id", "version", "updated_at", "data").
		From("records").
		Where(sq.Eq{"entity_type": entityType}).
		Where(sq.Gt{"updated_at": since.UTC()}).
		OrderBy("updated_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.EntityRecord
	for rows.Next() {
		var rec models.EntityRecord
		var data []byte
		if err = rows.Scan(&rec.EntityType, &rec.EntityID, &rec.Version, &rec.UpdatedAt, &data); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrScanningRow, err)
		}
		rec.Data = data
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExecutingQuery, err)
	}

	return records, nil
}

func (r *recordRepository) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	row := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM records;")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrScanningRow, err)
	}
	return count, nil
}
