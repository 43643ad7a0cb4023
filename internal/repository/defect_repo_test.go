package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"trackmonitor/internal/models"
)

func TestDefectSQLite_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewDefectSQLite(db)

	generated := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	d := models.DefectEvent{
		Chainage:      1542.5,
		DefectType:    models.DefectGaugeExcess,
		Severity:      models.SeverityCritical,
		Description:   "gauge deviation 0.124 m over tolerance",
		MeasurementID: 7,
		GeneratedAt:   generated,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO defects")).
		WithArgs(d.Chainage, "gauge_excess", 4, d.Description, int64(7), generated.Format(sqliteTimeFormat)).
		WillReturnResult(sqlmock.NewResult(3, 1))

	id, err := repo.Save(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 3 {
		t.Errorf("id: want 3, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDefectSQLite_SaveWithoutMeasurement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewDefectSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO defects")).
		WithArgs(10.0, "rail_wear", 2, "", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err = repo.Save(context.Background(), models.DefectEvent{
		Chainage:   10.0,
		DefectType: models.DefectRailWear,
		Severity:   models.SeverityMedium,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDefectSQLite_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewDefectSQLite(db)

	generated := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	reviewedAt := generated.Add(time.Hour)
	unreviewed := false

	rows := sqlmock.NewRows([]string{
		"id", "chainage", "defect_type", "severity", "description",
		"measurement_id", "generated_at", "reviewed", "reviewed_by", "reviewed_at",
	}).
		AddRow(int64(2), 200.0, "twist_fault", 3, "twist 6.2 mm", int64(12), generated, true, "inspector_7", reviewedAt).
		AddRow(int64(1), 100.0, "gauge_excess", 4, nil, nil, generated.Add(-time.Minute), false, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, chainage, defect_type, severity, description, measurement_id, generated_at, reviewed, reviewed_by, reviewed_at FROM defects"+
			" WHERE severity = ? AND reviewed = ? ORDER BY generated_at DESC LIMIT ? OFFSET ?")).
		WithArgs(4, false, 20, 0).
		WillReturnRows(rows)

	_, err = repo.List(context.Background(), DefectFilter{
		Severity: models.SeverityCritical,
		Reviewed: &unreviewed,
		Limit:    20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDefectSQLite_ListScansNullableColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewDefectSQLite(db)

	generated := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	reviewedAt := generated.Add(time.Hour)

	rows := sqlmock.NewRows([]string{
		"id", "chainage", "defect_type", "severity", "description",
		"measurement_id", "generated_at", "reviewed", "reviewed_by", "reviewed_at",
	}).
		AddRow(int64(2), 200.0, "twist_fault", 3, "twist 6.2 mm", int64(12), generated, true, "inspector_7", reviewedAt).
		AddRow(int64(1), 100.0, "gauge_excess", 4, nil, nil, generated, false, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM defects ORDER BY generated_at DESC LIMIT ? OFFSET ?")).
		WithArgs(defaultListLimit, 0).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), DefectFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].ReviewedBy != "inspector_7" || got[0].ReviewedAt == nil || !got[0].Reviewed {
		t.Errorf("reviewed row: %+v", got[0])
	}
	if got[1].ReviewedBy != "" || got[1].ReviewedAt != nil || got[1].Reviewed {
		t.Errorf("unreviewed row: %+v", got[1])
	}
	if got[1].MeasurementID != 0 || got[1].Description != "" {
		t.Errorf("null columns not defaulted: %+v", got[1])
	}
	if got[0].Severity != models.SeverityHigh || got[0].DefectType != models.DefectTwistFault {
		t.Errorf("enum mapping: %+v", got[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDefectSQLite_Review(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewDefectSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE defects SET reviewed = 1, reviewed_by = ?, reviewed_at = ? WHERE id = ?")).
		WithArgs("inspector_7", sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Review(context.Background(), 5, "inspector_7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDefectSQLite_ReviewUnknownID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewDefectSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE defects SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Review(context.Background(), 999, "inspector_7")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDefectSQLite_ReviewExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewDefectSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE defects SET")).
		WillReturnError(errors.New("database is locked"))

	if err := repo.Review(context.Background(), 5, "inspector_7"); err == nil {
		t.Fatal("expected error")
	}
}
