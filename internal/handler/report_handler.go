package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shikshalaya/attendance-api/internal/models"
	"github.com/shikshalaya/attendance-api/internal/service"
	appErrors "github.com/shikshalaya/attendance-api/pkg/errors"
	"github.com/shikshalaya/attendance-api/pkg/response"
)

// ReportHandler exposes class reports, student history and summaries.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func parseDateRange(c *gin.Context) (models.DateRange, error) {
	from := c.Query("from")
	to := c.Query("to")
	var fromPtr, toPtr *string
	if from != "" {
		fromPtr = &from
	}
	if to != "" {
		toPtr = &to
	}
	return rangeFromStrings(fromPtr, toPtr)
}

func rangeFromStrings(from, to *string) (models.DateRange, error) {
	var rng models.DateRange
	if from != nil {
		parsed, err := time.Parse("2006-01-02", *from)
		if err != nil {
			return rng, appErrors.Clone(appErrors.ErrValidation, "invalid from date, expected YYYY-MM-DD")
		}
		rng.From = &parsed
	}
	if to != nil {
		parsed, err := time.Parse("2006-01-02", *to)
		if err != nil {
			return rng, appErrors.Clone(appErrors.ErrValidation, "invalid to date, expected YYYY-MM-DD")
		}
		rng.To = &parsed
	}
	return rng, nil
}

func parseSession(c *gin.Context) (time.Time, models.AttendanceSession, error) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		return time.Time{}, models.AttendanceSession{}, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}
	session := models.DayWise()
	if raw := c.Query("period"); raw != "" {
		period, err := strconv.Atoi(raw)
		if err != nil {
			return time.Time{}, models.AttendanceSession{}, appErrors.Clone(appErrors.ErrValidation, "invalid period number")
		}
		session = models.PeriodWise(period)
	}
	return date, session, nil
}

// ClassReport godoc
// @Summary Class attendance report with student names
// @Tags Reports
// @Produce json
// @Param classId path string true "Class ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param period query int false "Period number (omit for day-wise)"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/attendance/report [get]
func (h *ReportHandler) ClassReport(c *gin.Context) {
	date, session, err := parseSession(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.reports.ClassReport(c.Request.Context(), c.Param("classId"), date, session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// ExportClassReport godoc
// @Summary Download the class report as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param classId path string true "Class ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param period query int false "Period number (omit for day-wise)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /classes/{classId}/attendance/report/export [get]
func (h *ReportHandler) ExportClassReport(c *gin.Context) {
	date, session, err := parseSession(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	content, filename, err := h.reports.ExportClassReport(c.Request.Context(), c.Param("classId"), date, session, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := "text/csv"
	if c.Query("format") == "pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, content)
}

// StudentHistory godoc
// @Summary A student's attendance history
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/attendance/history [get]
func (h *ReportHandler) StudentHistory(c *gin.Context) {
	rng, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.reports.StudentHistory(c.Request.Context(), c.Param("studentId"), rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// StudentSummary godoc
// @Summary A student's attendance counts and percentage
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/attendance/summary [get]
func (h *ReportHandler) StudentSummary(c *gin.Context) {
	rng, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.reports.StudentSummary(c.Request.Context(), c.Param("studentId"), rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
