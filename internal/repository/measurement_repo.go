package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"trackmonitor/internal/models"
)

// sqliteTimeFormat matches the TIMESTAMP layout SQLite compares lexically.
const sqliteTimeFormat = "2006-01-02 15:04:05"

const defaultListLimit = 1000

type MeasurementSQLite struct {
	db *sql.DB
}

func NewMeasurementSQLite(db *sql.DB) *MeasurementSQLite { return &MeasurementSQLite{db: db} }

const insertMeasurementSQL = `
		INSERT INTO measurements (chainage, ts, type, value, sensor_id, quality, speed_kmh)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

// Save inserts a measurement and returns the generated row id.
// A zero Timestamp is set to UTC now.
func (r *MeasurementSQLite) Save(ctx context.Context, m models.Measurement) (int64, error) {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	res, err := r.db.ExecContext(ctx, insertMeasurementSQL,
		m.Chainage,
		ts.Format(sqliteTimeFormat),
		string(m.Type),
		m.Value,
		m.SensorID,
		nullFloat(m.Quality),
		nullFloat(m.SpeedKmh),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns measurements matching the filter, newest first.
func (r *MeasurementSQLite) List(ctx context.Context, f MeasurementFilter) ([]models.Measurement, error) {
	var (
		conds []string
		args  []any
	)

	if f.StartChainage != nil {
		conds = append(conds, "chainage >= ?")
		args = append(args, *f.StartChainage)
	}
	if f.EndChainage != nil {
		conds = append(conds, "chainage <= ?")
		args = append(args, *f.EndChainage)
	}
	if !f.From.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, f.From.UTC().Format(sqliteTimeFormat))
	}
	if !f.To.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, f.To.UTC().Format(sqliteTimeFormat))
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.SensorID != "" {
		conds = append(conds, "sensor_id = ?")
		args = append(args, f.SensorID)
	}

	q := `SELECT id, chainage, ts, type, value, sensor_id, quality, speed_kmh FROM measurements`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY ts DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	q += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	return r.query(ctx, q, args...)
}

// Latest returns the most recent measurements, optionally for one sensor.
func (r *MeasurementSQLite) Latest(ctx context.Context, sensorID string, limit int) ([]models.Measurement, error) {
	if limit <= 0 {
		limit = 100
	}

	q := `SELECT id, chainage, ts, type, value, sensor_id, quality, speed_kmh FROM measurements`
	var args []any
	if sensorID != "" {
		q += " WHERE sensor_id = ?"
		args = append(args, sensorID)
	}
	q += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	return r.query(ctx, q, args...)
}

// Sensors lists distinct sensor ids that have recorded measurements.
func (r *MeasurementSQLite) Sensors(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT sensor_id FROM measurements ORDER BY sensor_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 16)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *MeasurementSQLite) query(ctx context.Context, q string, args ...any) ([]models.Measurement, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Measurement, 0, 64)
	for rows.Next() {
		var (
			m       models.Measurement
			typ     string
			quality sql.NullFloat64
			speed   sql.NullFloat64
		)
		if err := rows.Scan(&m.ID, &m.Chainage, &m.Timestamp, &typ, &m.Value, &m.SensorID, &quality, &speed); err != nil {
			return nil, err
		}
		m.Type = models.MeasurementType(typ)
		m.Timestamp = m.Timestamp.UTC()
		if quality.Valid {
			v := quality.Float64
			m.Quality = &v
		}
		if speed.Valid {
			v := speed.Float64
			m.SpeedKmh = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
