package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/suportedesk/backend/internal/ai"
	"github.com/suportedesk/backend/internal/db"
	"github.com/suportedesk/backend/internal/models"
	"github.com/suportedesk/backend/internal/scheduler"
)

// ReportTrigger starts a report run on demand, honoring the scheduler's
// overlap guard.
type ReportTrigger interface {
	TriggerNow(ctx context.Context, reference time.Time) (models.RunSummary, error)
	Running() bool
}

type Handler struct {
	Store     *db.Store
	AI        ai.Adapter
	Trigger   ReportTrigger
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

// @Summary Service health
// @Description Database connectivity plus AI gateway availability
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}

	aiStatus := "ok"
	if _, err := h.AI.ListModels(ctx); err != nil {
		aiStatus = "unavailable"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ai": aiStatus})
}

// @Summary Latest report run
// @Tags reports
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/reports/latest [get]
func (h *Handler) ReportsLatest(c *gin.Context) {
	result, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No report runs found", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

type runRequest struct {
	// ReferenceDate anchors the report window; the run covers the seven
	// full days before it. Empty means today.
	ReferenceDate string `json:"reference_date" validate:"omitempty,datetime=2006-01-02"`
}

// @Summary Trigger a report run
// @Description Runs the weekly report pipeline immediately
// @Tags reports
// @Accept json
// @Produce json
// @Param body body runRequest false "optional reference date"
// @Success 200 {object} models.RunSummary
// @Failure 400 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router /api/reports/run [post]
func (h *Handler) ReportsRun(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err.Error())
			return
		}
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "reference_date must be YYYY-MM-DD", err.Error())
		return
	}

	reference := time.Now()
	if req.ReferenceDate != "" {
		reference, _ = time.Parse("2006-01-02", req.ReferenceDate)
	}

	summary, err := h.Trigger.TriggerNow(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, scheduler.ErrRunInFlight) {
			writeError(c, http.StatusConflict, "RUN_IN_FLIGHT", "A report run is already executing", nil)
			return
		}
		h.Logger.Error().Err(err).Msg("manual report run failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "RUN_FAILED",
				"message": "Report run failed",
				"details": err.Error(),
			},
			"summary": summary,
		})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
