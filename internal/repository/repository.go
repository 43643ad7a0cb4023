package repository

import (
	"context"
	"database/sql"
	"time"

	"trackmonitor/internal/models"
	"trackmonitor/internal/repository/db"
)

// MeasurementFilter narrows measurement queries. Zero values mean "no filter".
type MeasurementFilter struct {
	StartChainage *float64
	EndChainage   *float64
	From          time.Time
	To            time.Time
	Type          models.MeasurementType
	SensorID      string
	Limit         int
	Offset        int
}

// DefectFilter narrows defect queries. Zero values mean "no filter".
type DefectFilter struct {
	Severity   models.Severity
	Type       models.DefectType
	Reviewed   *bool
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

type MeasurementRepo interface {
	Save(ctx context.Context, m models.Measurement) (int64, error)
	List(ctx context.Context, f MeasurementFilter) ([]models.Measurement, error)
	Latest(ctx context.Context, sensorID string, limit int) ([]models.Measurement, error)
	Sensors(ctx context.Context) ([]string, error)
}

type DefectRepo interface {
	Save(ctx context.Context, d models.DefectEvent) (int64, error)
	List(ctx context.Context, f DefectFilter) ([]models.DefectEvent, error)
	Review(ctx context.Context, id int64, reviewer string) error
}

type Repository struct {
	Measurements MeasurementRepo
	Defects      DefectRepo
}

func NewRepository(database *sql.DB) *Repository {
	return &Repository{
		Measurements: NewMeasurementSQLite(database),
		Defects:      NewDefectSQLite(database),
	}
}

// InitDB opens the SQLite database and applies the schema.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
