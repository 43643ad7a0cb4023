package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"trackmonitor/internal/hub"
	"trackmonitor/internal/logger"
	"trackmonitor/internal/models"
	"trackmonitor/internal/repository"
	"trackmonitor/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockIngest struct {
	result       service.IngestResult
	err          error
	batchResults []service.IngestResult

	gotMeasurement models.Measurement
	gotBatch       []models.Measurement
}

func (m *mockIngest) Ingest(ctx context.Context, in models.Measurement) (service.IngestResult, error) {
	m.gotMeasurement = in
	return m.result, m.err
}

func (m *mockIngest) IngestBatch(ctx context.Context, in []models.Measurement) []service.IngestResult {
	m.gotBatch = in
	return m.batchResults
}

type mockReadings struct {
	measurements []models.Measurement
	sensors      []string
	err          error

	gotFilter repository.MeasurementFilter
	gotSensor string
	gotLimit  int
}

func (m *mockReadings) List(ctx context.Context, f repository.MeasurementFilter) ([]models.Measurement, error) {
	m.gotFilter = f
	return m.measurements, m.err
}

func (m *mockReadings) Latest(ctx context.Context, sensorID string, limit int) ([]models.Measurement, error) {
	m.gotSensor = sensorID
	m.gotLimit = limit
	return m.measurements, m.err
}

func (m *mockReadings) Sensors(ctx context.Context) ([]string, error) {
	return m.sensors, m.err
}

type mockDefects struct {
	defects   []models.DefectEvent
	listErr   error
	reviewErr error

	gotFilter   repository.DefectFilter
	gotID       int64
	gotReviewer string
}

func (m *mockDefects) List(ctx context.Context, f repository.DefectFilter) ([]models.DefectEvent, error) {
	m.gotFilter = f
	return m.defects, m.listErr
}

func (m *mockDefects) Review(ctx context.Context, id int64, reviewer string) error {
	m.gotID = id
	m.gotReviewer = reviewer
	return m.reviewErr
}

type mockStatus struct {
	snapshot models.HealthSnapshot
}

func (m *mockStatus) Snapshot() models.HealthSnapshot          { return m.snapshot }
func (m *mockStatus) Run(ctx context.Context, _ time.Duration) {}

func newTestHandler(svc *service.Service) (*Handler, *hub.Hub) {
	log := logger.Get(logger.ErrorLevel)
	h := hub.New(log, time.Hour)
	return NewHandler(svc, h, log), h
}
