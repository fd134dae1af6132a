package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shikshalaya/attendance-api/internal/middleware"
	"github.com/shikshalaya/attendance-api/internal/models"
	"github.com/shikshalaya/attendance-api/internal/service"
	appErrors "github.com/shikshalaya/attendance-api/pkg/errors"
	"github.com/shikshalaya/attendance-api/pkg/response"
)

// AttendanceHandler exposes marking, correction and sync endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	reports    *service.ReportService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, reports *service.ReportService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, reports: reports}
}

func actingUserID(c *gin.Context) string {
	if v, exists := c.Get(middleware.ContextUserKey); exists {
		if claims, ok := v.(*models.JWTClaims); ok {
			return claims.UserID
		}
	}
	return ""
}

// Mark godoc
// @Summary Mark or correct a student's attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.MarkAttendance(c.Request.Context(), req, actingUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.reports.InvalidateStudentSummary(c.Request.Context(), record.StudentID)
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete an attendance record inside the deletion window
// @Tags Attendance
// @Produce json
// @Param id path string true "Record ID"
// @Success 204 {object} nil
// @Router /attendance/{id} [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	deleted, err := h.attendance.DeleteAttendance(c.Request.Context(), c.Param("id"), actingUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !deleted {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found"))
		return
	}
	response.NoContent(c)
}

// CanCorrect godoc
// @Summary Pre-check whether a record marked at the given time is editable
// @Tags Attendance
// @Produce json
// @Param markedAt query string true "Original marked-at timestamp, RFC 3339"
// @Success 200 {object} response.Envelope
// @Router /attendance/can-correct [get]
func (h *AttendanceHandler) CanCorrect(c *gin.Context) {
	raw := c.Query("markedAt")
	markedAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid markedAt, expected RFC 3339"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"can_correct": h.attendance.CanCorrectAttendance(markedAt)}, nil)
}

// BulkMarkPresent godoc
// @Summary Mark a whole class present
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.BulkMarkPresentRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/bulk-present [post]
func (h *AttendanceHandler) BulkMarkPresent(c *gin.Context) {
	var req service.BulkMarkPresentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.attendance.MarkAllPresent(c.Request.Context(), req, actingUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	for _, record := range result.Records {
		h.reports.InvalidateStudentSummary(c.Request.Context(), record.StudentID)
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListClass godoc
// @Summary List attendance records for a class on a date
// @Tags Attendance
// @Produce json
// @Param classId query string true "Class ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param period query int false "Period number (omit for day-wise)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) ListClass(c *gin.Context) {
	var period *int
	if raw := c.Query("period"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid period number"))
			return
		}
		period = &parsed
	}
	records, err := h.attendance.ListClassAttendance(c.Request.Context(), c.Query("classId"), c.Query("date"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ListPendingSync godoc
// @Summary List records awaiting offline sync
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/sync/pending [get]
func (h *AttendanceHandler) ListPendingSync(c *gin.Context) {
	records, err := h.attendance.ListPendingSync(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ListErrorSync godoc
// @Summary List records whose sync attempt failed
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/sync/errors [get]
func (h *AttendanceHandler) ListErrorSync(c *gin.Context) {
	records, err := h.attendance.ListErrorSync(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

type updateSyncRequest struct {
	SyncStatus string `json:"sync_status"`
}

// UpdateSync godoc
// @Summary Set the sync flag on one record
// @Tags Sync
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body updateSyncRequest true "New sync status"
// @Success 204 {object} nil
// @Router /attendance/{id}/sync [patch]
func (h *AttendanceHandler) UpdateSync(c *gin.Context) {
	var req updateSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.attendance.UpdateSyncStatus(c.Request.Context(), c.Param("id"), req.SyncStatus); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type markSyncedRequest struct {
	IDs []string `json:"ids"`
}

// MarkSynced godoc
// @Summary Flag a batch of records as reconciled
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body markSyncedRequest true "Record IDs"
// @Success 204 {object} nil
// @Router /attendance/sync [patch]
func (h *AttendanceHandler) MarkSynced(c *gin.Context) {
	var req markSyncedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.attendance.MarkRecordsSynced(c.Request.Context(), req.IDs); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
