package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trackmonitor/internal/models"
	"trackmonitor/internal/repository"
)

// ReviewRequest marks a defect as inspected.
type ReviewRequest struct {
	// Name of the reviewer
	ReviewedBy string `json:"reviewed_by" binding:"required" example:"inspector_1"`
}

// @Summary      List defects
// @Tags         defects
// @Produce      json
// @Param        severity  query  int     false  "Severity (1-4)"
// @Param        type      query  string  false  "Defect type"
// @Param        reviewed  query  bool    false  "Review state"
// @Param        from      query  string  false  "Start timestamp (RFC3339)"
// @Param        to        query  string  false  "End timestamp (RFC3339)"
// @Param        limit     query  int     false  "Max rows (default 1000)"
// @Param        offset    query  int     false  "Rows to skip"
// @Success      200  {array}  models.DefectEvent
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/defects [get]
func (h *Handler) listDefects(c *gin.Context) {
	f, err := parseDefectFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.services.Defects.List(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to list defects", "defects_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Review a defect
// @Tags         defects
// @Accept       json
// @Produce      json
// @Param        id    path   int            true  "Defect id"
// @Param        body  body   ReviewRequest  true  "Reviewer"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/defects/{id}/review [post]
func (h *Handler) reviewDefect(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid defect id"})
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	if err := h.services.Defects.Review(c.Request.Context(), id, req.ReviewedBy); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "defect not found"})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to review defect", "defect_review_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reviewed"})
}

func parseDefectFilter(c *gin.Context) (repository.DefectFilter, error) {
	var f repository.DefectFilter

	if s := c.Query("severity"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < int(models.SeverityLow) || v > int(models.SeverityCritical) {
			return f, errors.New("invalid severity: expected 1-4")
		}
		f.Severity = models.Severity(v)
	}
	if s := c.Query("reviewed"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return f, errors.New("invalid reviewed: expected bool")
		}
		f.Reviewed = &v
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

	f.Type = models.DefectType(c.Query("type"))
	f.Limit = parseIntQuery(c, "limit", 0)
	f.Offset = parseIntQuery(c, "offset", 0)
	return f, nil
}
