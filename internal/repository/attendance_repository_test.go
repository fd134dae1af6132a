package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshalaya/attendance-api/internal/models"
)

func newAttendanceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceRows(rec models.AttendanceRecord) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "class_id", "date", "period_number", "status", "marked_by", "marked_at", "sync_status", "remarks", "bs_date", "created_at", "updated_at"}).
		AddRow(rec.ID, rec.StudentID, rec.ClassID, rec.Date, rec.PeriodNumber, rec.Status, rec.MarkedBy, rec.MarkedAt, rec.SyncStatus, rec.Remarks, rec.BSDate, rec.CreatedAt, rec.UpdatedAt)
}

func sampleRecord() models.AttendanceRecord {
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	return models.AttendanceRecord{
		ID:         "rec-1",
		StudentID:  "s1",
		ClassID:    "c1",
		Date:       time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Status:     models.AttendanceStatusPresent,
		MarkedBy:   "teacher-1",
		MarkedAt:   now,
		SyncStatus: models.SyncStatusSynced,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestAttendanceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rec := sampleRecord()
	rec.ID = ""
	mock.ExpectQuery("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "s1", "c1", rec.Date, nil, models.AttendanceStatusPresent, "teacher-1", rec.MarkedAt, models.SyncStatusSynced, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(attendanceRows(sampleRecord()))

	stored, err := repo.Create(context.Background(), &rec)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("SELECT .* FROM attendance_records WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	record, err := repo.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindByStudentAndDateDayWise(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rec := sampleRecord()
	mock.ExpectQuery("SELECT .* FROM attendance_records\\s+WHERE student_id = \\$1 AND date = \\$2 AND period_number IS NOT DISTINCT FROM \\$3").
		WithArgs("s1", rec.Date, nil).
		WillReturnRows(attendanceRows(rec))

	found, err := repo.FindByStudentAndDate(context.Background(), "s1", rec.Date, models.DayWise())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "rec-1", found.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindByStudentAndDatePeriodWise(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rec := sampleRecord()
	period := 3
	rec.PeriodNumber = &period
	mock.ExpectQuery("SELECT .* FROM attendance_records\\s+WHERE student_id = \\$1 AND date = \\$2 AND period_number IS NOT DISTINCT FROM \\$3").
		WithArgs("s1", rec.Date, sqlmock.AnyArg()).
		WillReturnRows(attendanceRows(rec))

	found, err := repo.FindByStudentAndDate(context.Background(), "s1", rec.Date, models.PeriodWise(3))
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.PeriodNumber)
	assert.Equal(t, 3, *found.PeriodNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("UPDATE attendance_records").
		WithArgs("missing", models.AttendanceStatusPresent, nil, "teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	updated, err := repo.Update(context.Background(), "missing", models.AttendancePatch{
		Status:   models.AttendanceStatusPresent,
		MarkedBy: "teacher-1",
		MarkedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("DELETE FROM attendance_records").
		WithArgs("rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("DELETE FROM attendance_records").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkCreateSkipsConflicts(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	first := sampleRecord()
	second := sampleRecord()
	second.ID = "rec-2"
	second.StudentID = "s2"

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO attendance_records").
		WillReturnRows(attendanceRows(first))
	// Conflicting key: ON CONFLICT DO NOTHING returns no row.
	mock.ExpectQuery("INSERT INTO attendance_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	created, err := repo.BulkCreate(context.Background(), []models.AttendanceRecord{first, second})
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Equal(t, "rec-1", created[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"status", "cnt"}).
		AddRow("PRESENT", 6).
		AddRow("LATE", 2).
		AddRow("ABSENT", 2)
	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS cnt FROM attendance_records WHERE student_id = \\$1 GROUP BY status").
		WithArgs("s1").
		WillReturnRows(rows)

	counts, err := repo.CountByStatusForStudent(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 6, counts.Present)
	assert.Equal(t, 2, counts.Late)
	assert.Equal(t, 2, counts.Absent)
	assert.Equal(t, 10, counts.Total)
	assert.Equal(t, 8, counts.CountedPresent())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCountByStatusWithRange(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS cnt FROM attendance_records WHERE student_id = \\$1 AND date >= \\$2 AND date <= \\$3 GROUP BY status").
		WithArgs("s1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"status", "cnt"}).AddRow("PRESENT", 20))

	counts, err := repo.CountByStatusForStudent(context.Background(), "s1", models.DateRange{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 20, counts.Present)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkUpdateSyncStatus(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("UPDATE attendance_records SET sync_status").
		WithArgs(sqlmock.AnyArg(), models.SyncStatusSynced, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.BulkUpdateSyncStatus(context.Background(), []string{"rec-1", "rec-2"}, models.SyncStatusSynced)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindPendingSync(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rec := sampleRecord()
	rec.SyncStatus = models.SyncStatusPending
	mock.ExpectQuery("SELECT .* FROM attendance_records WHERE sync_status = \\$1 ORDER BY marked_at").
		WithArgs(models.SyncStatusPending).
		WillReturnRows(attendanceRows(rec))

	records, err := repo.FindPendingSync(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.SyncStatusPending, records[0].SyncStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
