package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshalaya/attendance-api/internal/models"
	appErrors "github.com/shikshalaya/attendance-api/pkg/errors"
)

type mockReportRepo struct {
	rows    []models.ClassAttendanceRow
	history []models.AttendanceHistoryRow
	counts  models.AttendanceStatusCounts

	countCalls int
}

func (m *mockReportRepo) ClassReportRows(ctx context.Context, classID string, date time.Time, session models.AttendanceSession) ([]models.ClassAttendanceRow, error) {
	return m.rows, nil
}

func (m *mockReportRepo) StudentHistory(ctx context.Context, studentID string, rng models.DateRange) ([]models.AttendanceHistoryRow, error) {
	return m.history, nil
}

func (m *mockReportRepo) CountByStatusForStudent(ctx context.Context, studentID string, rng models.DateRange) (models.AttendanceStatusCounts, error) {
	m.countCalls++
	return m.counts, nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestStudentSummaryComputesPercent(t *testing.T) {
	repo := &mockReportRepo{counts: models.AttendanceStatusCounts{Present: 6, Late: 2, Absent: 2, Total: 10}}
	svc := NewReportService(repo, nil, nil, nil)

	summary, err := svc.StudentSummary(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.InDelta(t, 80.0, summary.Percent, 0.001)
	assert.Equal(t, 8, summary.CountedPresent())
}

func TestStudentSummaryZeroRecords(t *testing.T) {
	svc := NewReportService(&mockReportRepo{}, nil, nil, nil)

	summary, err := svc.StudentSummary(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.Percent)
	assert.Equal(t, 0, summary.Total)
}

func TestStudentSummaryCachesUnboundedQueries(t *testing.T) {
	repo := &mockReportRepo{counts: models.AttendanceStatusCounts{Present: 10, Total: 10}}
	cacheRepo := &memoryCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewReportService(repo, cache, nil, nil)

	_, err := svc.StudentSummary(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	_, err = svc.StudentSummary(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.countCalls)

	// Ranged queries bypass the cache.
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.StudentSummary(context.Background(), "s1", models.DateRange{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.countCalls)
}

func TestInvalidateStudentSummaryDropsCachedEntry(t *testing.T) {
	repo := &mockReportRepo{counts: models.AttendanceStatusCounts{Present: 10, Total: 10}}
	cacheRepo := &memoryCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewReportService(repo, cache, nil, nil)

	_, err := svc.StudentSummary(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	svc.InvalidateStudentSummary(context.Background(), "s1")

	_, err = svc.StudentSummary(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.countCalls)
}

func TestExportClassReportCSV(t *testing.T) {
	remarks := "sick leave"
	repo := &mockReportRepo{rows: []models.ClassAttendanceRow{
		{StudentID: "s1", StudentCode: "STU-001", StudentName: "Asha Sharma", Status: models.AttendanceStatusExcused, Remarks: &remarks},
		{StudentID: "s2", StudentCode: "STU-002", StudentName: "Bibek Thapa", Status: models.AttendanceStatusPresent},
	}}
	svc := NewReportService(repo, nil, nil, nil)

	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	content, filename, err := svc.ExportClassReport(context.Background(), "c1", date, models.DayWise(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "attendance-c1-2026-04-10.csv", filename)

	out := string(content)
	assert.Contains(t, out, "Student Code")
	assert.Contains(t, out, "Asha Sharma")
	assert.Contains(t, out, "EXCUSED")
	assert.Contains(t, out, "sick leave")
}

func TestExportClassReportPDF(t *testing.T) {
	repo := &mockReportRepo{rows: []models.ClassAttendanceRow{
		{StudentID: "s1", StudentCode: "STU-001", StudentName: "Asha Sharma", Status: models.AttendanceStatusPresent},
	}}
	svc := NewReportService(repo, nil, nil, nil)

	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	content, filename, err := svc.ExportClassReport(context.Background(), "c1", date, models.DayWise(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "attendance-c1-2026-04-10.pdf", filename)
	assert.NotEmpty(t, content)
}

func TestExportClassReportUnsupportedFormat(t *testing.T) {
	svc := NewReportService(&mockReportRepo{}, nil, nil, nil)

	_, _, err := svc.ExportClassReport(context.Background(), "c1", time.Now(), models.DayWise(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
