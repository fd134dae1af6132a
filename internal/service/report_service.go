package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shikshalaya/attendance-api/internal/models"
	appErrors "github.com/shikshalaya/attendance-api/pkg/errors"
	"github.com/shikshalaya/attendance-api/pkg/export"
)

type reportRepository interface {
	ClassReportRows(ctx context.Context, classID string, date time.Time, session models.AttendanceSession) ([]models.ClassAttendanceRow, error)
	StudentHistory(ctx context.Context, studentID string, rng models.DateRange) ([]models.AttendanceHistoryRow, error)
	CountByStatusForStudent(ctx context.Context, studentID string, rng models.DateRange) (models.AttendanceStatusCounts, error)
}

// ReportService renders class and student attendance views, with optional
// summary caching and CSV/PDF export.
type ReportService struct {
	repo    reportRepository
	cache   *CacheService
	metrics *MetricsService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewReportService constructs the report service. cache and metrics may be
// nil.
func NewReportService(repo reportRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// ClassReport lists the class records with student names for a date.
func (s *ReportService) ClassReport(ctx context.Context, classID string, date time.Time, session models.AttendanceSession) ([]models.ClassAttendanceRow, error) {
	start := time.Now()
	rows, err := s.repo.ClassReportRows(ctx, classID, date, session)
	s.metrics.ObserveDBQuery("class_report", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class report")
	}
	return rows, nil
}

// StudentHistory returns a student's attendance entries.
func (s *ReportService) StudentHistory(ctx context.Context, studentID string, rng models.DateRange) ([]models.AttendanceHistoryRow, error) {
	rows, err := s.repo.StudentHistory(ctx, studentID, rng)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	return rows, nil
}

// StudentSummary aggregates counts and percentage for a student. Unbounded
// summaries are cached; ranged queries always hit the store.
func (s *ReportService) StudentSummary(ctx context.Context, studentID string, rng models.DateRange) (*models.AttendanceSummary, error) {
	cacheable := rng.From == nil && rng.To == nil
	cacheKey := fmt.Sprintf("attendance:summary:%s", studentID)

	if cacheable {
		var cached models.AttendanceSummary
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	start := time.Now()
	counts, err := s.repo.CountByStatusForStudent(ctx, studentID, rng)
	s.metrics.ObserveDBQuery("student_summary", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise attendance")
	}

	summary := &models.AttendanceSummary{AttendanceStatusCounts: counts}
	if counts.Total > 0 {
		summary.Percent = float64(counts.CountedPresent()) / float64(counts.Total) * 100
	}

	if cacheable {
		_ = s.cache.Set(ctx, cacheKey, summary, 0)
	}
	return summary, nil
}

// InvalidateStudentSummary drops the cached summary after a mutation.
func (s *ReportService) InvalidateStudentSummary(ctx context.Context, studentID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("attendance:summary:%s", studentID)); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

// ExportClassReport renders the class report as CSV or PDF bytes.
func (s *ReportService) ExportClassReport(ctx context.Context, classID string, date time.Time, session models.AttendanceSession, format string) ([]byte, string, error) {
	rows, err := s.ClassReport(ctx, classID, date, session)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Student Code", "Student Name", "Status", "Remarks"},
		Rows:    make([]map[string]string, len(rows)),
	}
	for i, row := range rows {
		remarks := ""
		if row.Remarks != nil {
			remarks = *row.Remarks
		}
		dataset.Rows[i] = map[string]string{
			"Student Code": row.StudentCode,
			"Student Name": row.StudentName,
			"Status":       string(row.Status),
			"Remarks":      remarks,
		}
	}

	day := date.Format("2006-01-02")
	switch strings.ToLower(format) {
	case "", "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return content, fmt.Sprintf("attendance-%s-%s.csv", classID, day), nil
	case "pdf":
		title := fmt.Sprintf("Class Attendance %s", day)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return content, fmt.Sprintf("attendance-%s-%s.pdf", classID, day), nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format, expected csv or pdf")
	}
}
