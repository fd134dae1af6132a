package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shikshalaya/attendance-api/internal/models"
)

const attendanceColumns = `id, student_id, class_id, date, period_number, status, marked_by, marked_at, sync_status, remarks, bs_date, created_at, updated_at`

// AttendanceRepository handles persistence for attendance records. It is a
// thin record mapper: no business validation happens here. The table
// carries a unique constraint on (student_id, class_id, date,
// period_number) so natural-key lookups are authoritative.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts a new record, stamping server-observed timestamps.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO attendance_records (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING %s`, attendanceColumns, attendanceColumns)
	var stored models.AttendanceRecord
	err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.StudentID, record.ClassID, record.Date, record.PeriodNumber,
		record.Status, record.MarkedBy, record.MarkedAt, record.SyncStatus,
		record.Remarks, record.BSDate, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create attendance record: %w", err)
	}
	return &stored, nil
}

// FindByID returns the record or nil when absent.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE id = $1`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendance by id: %w", err)
	}
	return &record, nil
}

// FindByStudentAndDate looks a record up by student, date and session
// variant. Nil when no record exists for that key.
func (r *AttendanceRepository) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time, session models.AttendanceSession) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
WHERE student_id = $1 AND date = $2 AND period_number IS NOT DISTINCT FROM $3`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, date, session.PeriodNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendance by student and date: %w", err)
	}
	return &record, nil
}

// FindByClassAndDate returns every record for a class on a date, scoped to
// the session variant.
func (r *AttendanceRepository) FindByClassAndDate(ctx context.Context, classID string, date time.Time, session models.AttendanceSession) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
WHERE class_id = $1 AND date = $2 AND period_number IS NOT DISTINCT FROM $3
ORDER BY student_id`, attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, classID, date, session.PeriodNumber); err != nil {
		return nil, fmt.Errorf("find attendance by class and date: %w", err)
	}
	return records, nil
}

// BulkCreate inserts many records inside one transaction. Conflicting
// natural keys are skipped rather than duplicated, so a retried batch never
// produces two records for the same key.
func (r *AttendanceRepository) BulkCreate(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk attendance create: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`INSERT INTO attendance_records (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (student_id, class_id, date, period_number) DO NOTHING
RETURNING %s`, attendanceColumns, attendanceColumns)

	now := time.Now().UTC()
	created := make([]models.AttendanceRecord, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.CreatedAt = now
		rec.UpdatedAt = now
		var stored models.AttendanceRecord
		err := tx.QueryRowxContext(ctx, query,
			rec.ID, rec.StudentID, rec.ClassID, rec.Date, rec.PeriodNumber,
			rec.Status, rec.MarkedBy, rec.MarkedAt, rec.SyncStatus,
			rec.Remarks, rec.BSDate, rec.CreatedAt, rec.UpdatedAt).StructScan(&stored)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("bulk create attendance: %w", err)
		}
		created = append(created, stored)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk attendance create: %w", err)
	}
	commit = true
	return created, nil
}

// Update applies a correction patch and returns the updated record, or nil
// when the id is absent.
func (r *AttendanceRepository) Update(ctx context.Context, id string, patch models.AttendancePatch) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`UPDATE attendance_records
SET status = $2, remarks = $3, marked_by = $4, marked_at = $5, updated_at = $6
WHERE id = $1
RETURNING %s`, attendanceColumns)
	var updated models.AttendanceRecord
	err := r.db.GetContext(ctx, &updated, query, id, patch.Status, patch.Remarks, patch.MarkedBy, patch.MarkedAt, time.Now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("update attendance record: %w", err)
	}
	return &updated, nil
}

// Delete removes the record, reporting whether a row was deleted.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete attendance record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete attendance record: %w", err)
	}
	return affected > 0, nil
}

// CountByStatusForStudent aggregates per-status counts for a student,
// optionally bounded by a date range.
func (r *AttendanceRepository) CountByStatusForStudent(ctx context.Context, studentID string, rng models.DateRange) (models.AttendanceStatusCounts, error) {
	where := []string{"student_id = $1"}
	args := []interface{}{studentID}
	if rng.From != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *rng.From)
	}
	if rng.To != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *rng.To)
	}
	query := fmt.Sprintf(`SELECT status, COUNT(*) AS cnt FROM attendance_records WHERE %s GROUP BY status`, strings.Join(where, " AND "))

	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return models.AttendanceStatusCounts{}, fmt.Errorf("count attendance by status: %w", err)
	}

	counts := models.AttendanceStatusCounts{}
	for _, row := range rows {
		switch models.AttendanceStatus(row.Status) {
		case models.AttendanceStatusPresent:
			counts.Present += row.Count
		case models.AttendanceStatusAbsent:
			counts.Absent += row.Count
		case models.AttendanceStatusLate:
			counts.Late += row.Count
		case models.AttendanceStatusExcused:
			counts.Excused += row.Count
		}
		counts.Total += row.Count
	}
	return counts, nil
}

// FindPendingSync lists records still waiting for offline reconciliation.
func (r *AttendanceRepository) FindPendingSync(ctx context.Context) ([]models.AttendanceRecord, error) {
	return r.findBySyncStatus(ctx, models.SyncStatusPending)
}

// FindErrorSync lists records whose last sync attempt failed.
func (r *AttendanceRepository) FindErrorSync(ctx context.Context) ([]models.AttendanceRecord, error) {
	return r.findBySyncStatus(ctx, models.SyncStatusError)
}

func (r *AttendanceRepository) findBySyncStatus(ctx context.Context, status models.SyncStatus) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE sync_status = $1 ORDER BY marked_at`, attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, status); err != nil {
		return nil, fmt.Errorf("find attendance by sync status: %w", err)
	}
	return records, nil
}

// UpdateSyncStatus sets the sync flag for one record.
func (r *AttendanceRepository) UpdateSyncStatus(ctx context.Context, id string, status models.SyncStatus) error {
	query := `UPDATE attendance_records SET sync_status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update sync status: %w", err)
	}
	return nil
}

// BulkUpdateSyncStatus sets the sync flag for many records in one call.
func (r *AttendanceRepository) BulkUpdateSyncStatus(ctx context.Context, ids []string, status models.SyncStatus) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE attendance_records SET sync_status = $2, updated_at = $3 WHERE id = ANY($1)`
	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids), status, time.Now().UTC()); err != nil {
		return fmt.Errorf("bulk update sync status: %w", err)
	}
	return nil
}

// ClassReportRows joins class records with student metadata for reports.
func (r *AttendanceRepository) ClassReportRows(ctx context.Context, classID string, date time.Time, session models.AttendanceSession) ([]models.ClassAttendanceRow, error) {
	query := `SELECT s.id AS student_id, s.student_code, s.full_name AS student_name, a.status, a.remarks, a.marked_at
FROM attendance_records a
JOIN students s ON s.id = a.student_id
WHERE a.class_id = $1 AND a.date = $2 AND a.period_number IS NOT DISTINCT FROM $3
ORDER BY s.full_name`
	var rows []models.ClassAttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, classID, date, session.PeriodNumber); err != nil {
		return nil, fmt.Errorf("class attendance report: %w", err)
	}
	return rows, nil
}

// StudentHistory returns a student's attendance entries, newest first.
func (r *AttendanceRepository) StudentHistory(ctx context.Context, studentID string, rng models.DateRange) ([]models.AttendanceHistoryRow, error) {
	where := []string{"student_id = $1"}
	args := []interface{}{studentID}
	if rng.From != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *rng.From)
	}
	if rng.To != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *rng.To)
	}
	query := fmt.Sprintf(`SELECT date, period_number, status, remarks
FROM attendance_records
WHERE %s
ORDER BY date DESC, period_number NULLS FIRST`, strings.Join(where, " AND "))
	var rows []models.AttendanceHistoryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("student attendance history: %w", err)
	}
	return rows, nil
}
