package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshalaya/attendance-api/internal/models"
	appErrors "github.com/shikshalaya/attendance-api/pkg/errors"
)

func TestMarkAllPresentEmptyBatch(t *testing.T) {
	svc := newTestAttendanceService(&mockAttendanceRepo{}, time.Now().UTC())

	_, err := svc.MarkAllPresent(context.Background(), BulkMarkPresentRequest{
		ClassID: "c1",
		Date:    "2026-04-10",
	}, "teacher-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrEmptyBatch))
}

func TestMarkAllPresentCreatesMissingRecords(t *testing.T) {
	repo := &mockAttendanceRepo{}
	now := time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)
	svc := newTestAttendanceService(repo, now)

	result, err := svc.MarkAllPresent(context.Background(), BulkMarkPresentRequest{
		ClassID:    "c1",
		StudentIDs: []string{"s1", "s2", "s3"},
		Date:       "2026-04-10",
	}, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, result.Skipped)
	assert.Empty(t, result.AlreadyPresent)
	assert.Len(t, result.Records, 3)
	for _, rec := range result.Records {
		assert.Equal(t, models.AttendanceStatusPresent, rec.Status)
		assert.Equal(t, now, rec.MarkedAt)
	}
}

func TestMarkAllPresentDeduplicatesStudentIDs(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newTestAttendanceService(repo, time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC))

	result, err := svc.MarkAllPresent(context.Background(), BulkMarkPresentRequest{
		ClassID:    "c1",
		StudentIDs: []string{"s1", "s1", " s1 ", "s2", ""},
		Date:       "2026-04-10",
	}, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Len(t, repo.records, 2)
}

func TestMarkAllPresentCorrectsAbsentWithinWindow(t *testing.T) {
	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	markedAt := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	repo := &mockAttendanceRepo{}
	repo.store(models.AttendanceRecord{
		ID: "rec-1", StudentID: "s1", ClassID: "c1", Date: date,
		Status: models.AttendanceStatusAbsent, MarkedAt: markedAt,
	})

	now := markedAt.Add(2 * time.Hour)
	svc := newTestAttendanceService(repo, now)

	result, err := svc.MarkAllPresent(context.Background(), BulkMarkPresentRequest{
		ClassID:    "c1",
		StudentIDs: []string{"s1", "s2"},
		Date:       "2026-04-10",
	}, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, models.AttendanceStatusPresent, repo.records["rec-1"].Status)
	assert.Equal(t, now, repo.records["rec-1"].MarkedAt)
}

func TestMarkAllPresentSkipsRecordsOutsideWindow(t *testing.T) {
	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	markedAt := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	repo := &mockAttendanceRepo{}
	repo.store(models.AttendanceRecord{
		ID: "rec-1", StudentID: "s1", ClassID: "c1", Date: date,
		Status: models.AttendanceStatusAbsent, MarkedAt: markedAt,
	})

	svc := newTestAttendanceService(repo, markedAt.Add(48*time.Hour))

	result, err := svc.MarkAllPresent(context.Background(), BulkMarkPresentRequest{
		ClassID:    "c1",
		StudentIDs: []string{"s1"},
		Date:       "2026-04-10",
	}, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, result.Skipped)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Updated)
	// The stale record keeps its original status.
	assert.Equal(t, models.AttendanceStatusAbsent, repo.records["rec-1"].Status)
}

func TestMarkAllPresentIsIdempotent(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newTestAttendanceService(repo, time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC))

	req := BulkMarkPresentRequest{
		ClassID:    "c1",
		StudentIDs: []string{"s1", "s2"},
		Date:       "2026-04-10",
	}

	first, err := svc.MarkAllPresent(context.Background(), req, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := svc.MarkAllPresent(context.Background(), req, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)
	assert.ElementsMatch(t, []string{"s1", "s2"}, second.AlreadyPresent)
	assert.Len(t, repo.records, 2)
}

func TestMarkAllPresentPeriodWiseDoesNotTouchDayWise(t *testing.T) {
	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	markedAt := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	repo := &mockAttendanceRepo{}
	repo.store(models.AttendanceRecord{
		ID: "rec-day", StudentID: "s1", ClassID: "c1", Date: date,
		Status: models.AttendanceStatusAbsent, MarkedAt: markedAt,
	})

	period := 2
	svc := newTestAttendanceService(repo, markedAt.Add(time.Hour))

	result, err := svc.MarkAllPresent(context.Background(), BulkMarkPresentRequest{
		ClassID:      "c1",
		StudentIDs:   []string{"s1"},
		Date:         "2026-04-10",
		PeriodNumber: &period,
	}, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, models.AttendanceStatusAbsent, repo.records["rec-day"].Status)
	assert.Len(t, repo.records, 2)
}

func TestMarkAllPresentInvalidDate(t *testing.T) {
	svc := newTestAttendanceService(&mockAttendanceRepo{}, time.Now().UTC())

	_, err := svc.MarkAllPresent(context.Background(), BulkMarkPresentRequest{
		ClassID:    "c1",
		StudentIDs: []string{"s1"},
		Date:       "10/04/2026",
	}, "teacher-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
