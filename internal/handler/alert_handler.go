package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shikshalaya/attendance-api/internal/service"
	appErrors "github.com/shikshalaya/attendance-api/pkg/errors"
	"github.com/shikshalaya/attendance-api/pkg/response"
)

// AlertHandler exposes attendance percentage and low-attendance checks.
type AlertHandler struct {
	alerts *service.AlertService
}

// NewAlertHandler constructs AlertHandler.
func NewAlertHandler(alerts *service.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// Percentage godoc
// @Summary Get a student's attendance percentage
// @Tags Alerts
// @Produce json
// @Param studentId path string true "Student ID"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/attendance/percentage [get]
func (h *AlertHandler) Percentage(c *gin.Context) {
	rng, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	percentage, err := h.alerts.CalculateAttendancePercentage(c.Request.Context(), c.Param("studentId"), rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"attendance_percentage": percentage}, nil)
}

// CheckLowAttendance godoc
// @Summary Evaluate a student against the low-attendance threshold
// @Tags Alerts
// @Produce json
// @Param studentId path string true "Student ID"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/attendance/low-check [post]
func (h *AlertHandler) CheckLowAttendance(c *gin.Context) {
	rng, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.alerts.CheckAndAlertLowAttendance(c.Request.Context(), c.Param("studentId"), rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

type batchCheckRequest struct {
	StudentIDs []string `json:"student_ids" binding:"required,min=1"`
	From       *string  `json:"from"`
	To         *string  `json:"to"`
}

// BatchCheck godoc
// @Summary Evaluate a set of students against the low-attendance threshold
// @Tags Alerts
// @Accept json
// @Produce json
// @Param payload body batchCheckRequest true "Student IDs and optional range"
// @Success 200 {object} response.Envelope
// @Router /attendance/low-check [post]
func (h *AlertHandler) BatchCheck(c *gin.Context) {
	var req batchCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rng, err := rangeFromStrings(req.From, req.To)
	if err != nil {
		response.Error(c, err)
		return
	}
	results := h.alerts.BatchCheckLowAttendance(c.Request.Context(), req.StudentIDs, rng)
	response.JSON(c, http.StatusOK, results, nil)
}
