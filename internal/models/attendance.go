package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// CountsAsPresent reports whether the status counts as presence when
// computing percentages. Late arrivals still attended, so only literal
// status comparisons treat LATE differently from PRESENT.
func (s AttendanceStatus) CountsAsPresent() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusLate
}

// SyncStatus is the offline-first bookkeeping flag on a record.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "PENDING"
	SyncStatusSynced  SyncStatus = "SYNCED"
	SyncStatusError   SyncStatus = "ERROR"
)

// Valid returns true when the sync status is a supported value.
func (s SyncStatus) Valid() bool {
	switch s {
	case SyncStatusPending, SyncStatusSynced, SyncStatusError:
		return true
	default:
		return false
	}
}

// AttendanceSession distinguishes day-wise attendance from a single
// teaching period. A nil period number denotes the day-wise variant.
type AttendanceSession struct {
	PeriodNumber *int
}

// DayWise builds the whole-day session variant.
func DayWise() AttendanceSession {
	return AttendanceSession{}
}

// PeriodWise builds the session variant for one teaching period.
func PeriodWise(period int) AttendanceSession {
	return AttendanceSession{PeriodNumber: &period}
}

// IsDayWise reports whether the session covers the whole day.
func (s AttendanceSession) IsDayWise() bool {
	return s.PeriodNumber == nil
}

// AttendanceRecord is one student's attendance for a date (and optional
// period). At most one record exists per (student, class, date, period).
type AttendanceRecord struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	ClassID      string           `db:"class_id" json:"class_id"`
	Date         time.Time        `db:"date" json:"date"`
	PeriodNumber *int             `db:"period_number" json:"period_number,omitempty"`
	Status       AttendanceStatus `db:"status" json:"status"`
	MarkedBy     string           `db:"marked_by" json:"marked_by"`
	MarkedAt     time.Time        `db:"marked_at" json:"marked_at"`
	SyncStatus   SyncStatus       `db:"sync_status" json:"sync_status"`
	Remarks      *string          `db:"remarks" json:"remarks,omitempty"`
	BSDate       *string          `db:"bs_date" json:"bs_date,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// Session returns the tagged day-wise/period-wise variant for the record.
func (r *AttendanceRecord) Session() AttendanceSession {
	return AttendanceSession{PeriodNumber: r.PeriodNumber}
}

// AttendancePatch carries the mutable fields applied during a correction.
// MarkedAt always advances to the correction time.
type AttendancePatch struct {
	Status   AttendanceStatus
	Remarks  *string
	MarkedBy string
	MarkedAt time.Time
}

// DateRange bounds aggregate queries; nil endpoints are unbounded.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// AttendanceStatusCounts aggregates per-status totals for a student.
type AttendanceStatusCounts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
	Total   int `json:"total"`
}

// CountedPresent returns the presence total used by percentage math.
func (c AttendanceStatusCounts) CountedPresent() int {
	return c.Present + c.Late
}

// AttendanceSummary is the counts plus the derived percentage.
type AttendanceSummary struct {
	AttendanceStatusCounts
	Percent float64 `json:"percent"`
}

// ClassAttendanceRow joins a class record with student metadata for reports.
type ClassAttendanceRow struct {
	StudentID   string           `db:"student_id" json:"student_id"`
	StudentCode string           `db:"student_code" json:"student_code"`
	StudentName string           `db:"student_name" json:"student_name"`
	Status      AttendanceStatus `db:"status" json:"status"`
	Remarks     *string          `db:"remarks" json:"remarks,omitempty"`
	MarkedAt    time.Time        `db:"marked_at" json:"marked_at"`
}

// AttendanceHistoryRow captures one entry of a student's history.
type AttendanceHistoryRow struct {
	Date         time.Time        `db:"date" json:"date"`
	PeriodNumber *int             `db:"period_number" json:"period_number,omitempty"`
	Status       AttendanceStatus `db:"status" json:"status"`
	Remarks      *string          `db:"remarks" json:"remarks,omitempty"`
}

// LowAttendanceResult is the outcome of a threshold check for one student.
type LowAttendanceResult struct {
	StudentID            string        `json:"student_id"`
	AttendancePercentage float64       `json:"attendance_percentage"`
	BelowThreshold       bool          `json:"below_threshold"`
	AlertSent            bool          `json:"alert_sent"`
	AlertDetails         *AlertDetails `json:"alert_details,omitempty"`
}

// AlertDetails records the observed success of each notification path.
type AlertDetails struct {
	ParentNotified bool `json:"parent_notified"`
	AdminNotified  bool `json:"admin_notified"`
}
