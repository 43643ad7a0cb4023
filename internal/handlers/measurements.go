package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"trackmonitor/internal/models"
	"trackmonitor/internal/repository"
	"trackmonitor/internal/service"
)

const (
	errInvalidBodyPref = "invalid body: "
	errListFailed      = "failed to list measurements"
	errIngestFailed    = "failed to ingest measurement"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// MeasurementRequest is the ingest payload.
type MeasurementRequest struct {
	// Distance along the track in meters
	Chainage float64 `json:"chainage" example:"1250.5"`
	// Measurement timestamp; defaults to now when omitted
	Timestamp time.Time `json:"timestamp,omitempty"`
	// One of: gauge, alignment, acceleration, profile, vertical, lateral, twist, cant, level
	Type string `json:"type" binding:"required" example:"gauge"`
	// Measured value
	Value float64 `json:"value" example:"1.678"`
	// Reporting sensor
	SensorID string `json:"sensor_id" binding:"required" example:"laser_front"`
	// Optional data quality score in [0,1]
	Quality *float64 `json:"quality,omitempty" example:"0.98"`
	// Optional sensor-reported speed in km/h
	SpeedKmh *float64 `json:"speed_kmh,omitempty" example:"120"`
}

func (r MeasurementRequest) toModel() models.Measurement {
	return models.Measurement{
		Chainage:  r.Chainage,
		Timestamp: r.Timestamp,
		Type:      models.MeasurementType(r.Type),
		Value:     r.Value,
		SensorID:  r.SensorID,
		Quality:   r.Quality,
		SpeedKmh:  r.SpeedKmh,
	}
}

// @Summary      Ingest a measurement
// @Description  Validates, evaluates thresholds, persists, and broadcasts the reading
// @Tags         measurements
// @Accept       json
// @Produce      json
// @Param        body  body   MeasurementRequest  true  "Measurement payload"
// @Success      200   {object}  service.IngestResult
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/measurements [post]
func (h *Handler) createMeasurement(c *gin.Context) {
	var req MeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	result, err := h.services.Ingest.Ingest(c.Request.Context(), req.toModel())
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errIngestFailed, "ingest_failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary      Ingest a batch of measurements
// @Tags         measurements
// @Accept       json
// @Produce      json
// @Param        body  body   []MeasurementRequest  true  "Measurement payloads"
// @Success      200   {array}  service.IngestResult
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/measurements/batch [post]
func (h *Handler) createMeasurementBatch(c *gin.Context) {
	var reqs []MeasurementRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	measurements := make([]models.Measurement, len(reqs))
	for i, r := range reqs {
		measurements[i] = r.toModel()
	}

	results := h.services.Ingest.IngestBatch(c.Request.Context(), measurements)
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// @Summary      List measurements
// @Tags         measurements
// @Produce      json
// @Param        start_chainage  query  number  false  "Start chainage in meters"
// @Param        end_chainage    query  number  false  "End chainage in meters"
// @Param        from            query  string  false  "Start timestamp (RFC3339)"
// @Param        to              query  string  false  "End timestamp (RFC3339)"
// @Param        type            query  string  false  "Measurement type"
// @Param        sensor_id       query  string  false  "Sensor id"
// @Param        limit           query  int     false  "Max rows (default 1000)"
// @Param        offset          query  int     false  "Rows to skip"
// @Success      200  {array}  models.Measurement
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/measurements [get]
func (h *Handler) listMeasurements(c *gin.Context) {
	f, err := parseMeasurementFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.services.Readings.List(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListFailed, "measurements_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Latest measurements
// @Tags         measurements
// @Produce      json
// @Param        sensor_id  query  string  false  "Sensor id"
// @Param        limit      query  int     false  "Rows to return (default 100)"
// @Success      200  {array}  models.Measurement
// @Router       /api/v1/measurements/latest [get]
func (h *Handler) latestMeasurements(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 100)
	out, err := h.services.Readings.Latest(c.Request.Context(), c.Query("sensor_id"), limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListFailed, "measurements_latest_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      List known sensors
// @Tags         measurements
// @Produce      json
// @Success      200  {array}  string
// @Router       /api/v1/sensors [get]
func (h *Handler) listSensors(c *gin.Context) {
	out, err := h.services.Readings.Sensors(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to list sensors", "sensors_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func parseMeasurementFilter(c *gin.Context) (repository.MeasurementFilter, error) {
	var f repository.MeasurementFilter

	if v, ok, err := parseFloatQuery(c, "start_chainage"); err != nil {
		return f, err
	} else if ok {
		f.StartChainage = &v
	}
	if v, ok, err := parseFloatQuery(c, "end_chainage"); err != nil {
		return f, err
	} else if ok {
		f.EndChainage = &v
	}
	if t, err := parseTimeQuery(c, "from"); err != nil {
		return f, err
	} else {
		f.From = t
	}
	if t, err := parseTimeQuery(c, "to"); err != nil {
		return f, err
	} else {
		f.To = t
	}

	f.Type = models.MeasurementType(c.Query("type"))
	f.SensorID = c.Query("sensor_id")
	f.Limit = parseIntQuery(c, "limit", 0)
	f.Offset = parseIntQuery(c, "offset", 0)
	return f, nil
}

func parseFloatQuery(c *gin.Context, name string) (float64, bool, error) {
	s := c.Query(name)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, errors.New("invalid " + name)
	}
	return v, true, nil
}

func parseTimeQuery(c *gin.Context, name string) (time.Time, error) {
	s := c.Query(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("invalid " + name + ": expected RFC3339")
	}
	return t, nil
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	s := c.Query(name)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
