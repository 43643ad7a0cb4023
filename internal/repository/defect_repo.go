package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"trackmonitor/internal/models"
)

// ErrNotFound is returned when a row lookup by id matches nothing.
var ErrNotFound = errors.New("repository: not found")

type DefectSQLite struct {
	db *sql.DB
}

func NewDefectSQLite(db *sql.DB) *DefectSQLite { return &DefectSQLite{db: db} }

const insertDefectSQL = `
		INSERT INTO defects (chainage, defect_type, severity, description, measurement_id, generated_at, reviewed)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`

// Save inserts a defect event and returns the generated row id.
// A zero GeneratedAt is set to UTC now.
func (r *DefectSQLite) Save(ctx context.Context, d models.DefectEvent) (int64, error) {
	generated := d.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	} else {
		generated = generated.UTC()
	}

	var measurementID any
	if d.MeasurementID != 0 {
		measurementID = d.MeasurementID
	}

	res, err := r.db.ExecContext(ctx, insertDefectSQL,
		d.Chainage,
		string(d.DefectType),
		int(d.Severity),
		d.Description,
		measurementID,
		generated.Format(sqliteTimeFormat),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns defects matching the filter, newest first.
func (r *DefectSQLite) List(ctx context.Context, f DefectFilter) ([]models.DefectEvent, error) {
	var (
		conds []string
		args  []any
	)

	if f.Severity != 0 {
		conds = append(conds, "severity = ?")
		args = append(args, int(f.Severity))
	}
	if f.Type != "" {
		conds = append(conds, "defect_type = ?")
		args = append(args, string(f.Type))
	}
	if f.Reviewed != nil {
		conds = append(conds, "reviewed = ?")
		args = append(args, *f.Reviewed)
	}
	if !f.From.IsZero() {
		conds = append(conds, "generated_at >= ?")
		args = append(args, f.From.UTC().Format(sqliteTimeFormat))
	}
	if !f.To.IsZero() {
		conds = append(conds, "generated_at <= ?")
		args = append(args, f.To.UTC().Format(sqliteTimeFormat))
	}

	q := `SELECT id, chainage, defect_type, severity, description, measurement_id, generated_at, reviewed, reviewed_by, reviewed_at FROM defects`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY generated_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	q += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.DefectEvent, 0, 64)
	for rows.Next() {
		var (
			d             models.DefectEvent
			typ           string
			severity      int
			description   sql.NullString
			measurementID sql.NullInt64
			reviewedBy    sql.NullString
			reviewedAt    sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.Chainage, &typ, &severity, &description, &measurementID,
			&d.GeneratedAt, &d.Reviewed, &reviewedBy, &reviewedAt); err != nil {
			return nil, err
		}
		d.DefectType = models.DefectType(typ)
		d.Severity = models.Severity(severity)
		d.GeneratedAt = d.GeneratedAt.UTC()
		if description.Valid {
			d.Description = description.String
		}
		if measurementID.Valid {
			d.MeasurementID = measurementID.Int64
		}
		if reviewedBy.Valid {
			d.ReviewedBy = reviewedBy.String
		}
		if reviewedAt.Valid {
			t := reviewedAt.Time.UTC()
			d.ReviewedAt = &t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const reviewDefectSQL = `
		UPDATE defects SET reviewed = 1, reviewed_by = ?, reviewed_at = ? WHERE id = ?
	`

// Review marks a defect as reviewed. Returns ErrNotFound for an unknown id.
func (r *DefectSQLite) Review(ctx context.Context, id int64, reviewer string) error {
	res, err := r.db.ExecContext(ctx, reviewDefectSQL,
		reviewer,
		time.Now().UTC().Format(sqliteTimeFormat),
		id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
