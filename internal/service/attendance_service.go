package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shikshalaya/attendance-api/internal/models"
	appErrors "github.com/shikshalaya/attendance-api/pkg/errors"
)

type attendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	FindByStudentAndDate(ctx context.Context, studentID string, date time.Time, session models.AttendanceSession) (*models.AttendanceRecord, error)
	FindByClassAndDate(ctx context.Context, classID string, date time.Time, session models.AttendanceSession) ([]models.AttendanceRecord, error)
	BulkCreate(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error)
	Update(ctx context.Context, id string, patch models.AttendancePatch) (*models.AttendanceRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindPendingSync(ctx context.Context) ([]models.AttendanceRecord, error)
	FindErrorSync(ctx context.Context) ([]models.AttendanceRecord, error)
	UpdateSyncStatus(ctx context.Context, id string, status models.SyncStatus) error
	BulkUpdateSyncStatus(ctx context.Context, ids []string, status models.SyncStatus) error
}

type dateConverter interface {
	ToBS(ctx context.Context, date time.Time) (string, error)
}

// AttendanceService owns marking, correction and deletion of attendance
// records, gated by the correction window policy.
type AttendanceService struct {
	repo      attendanceRepository
	policy    CorrectionPolicy
	converter dateConverter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service. converter may be
// nil when the BS calendar service is disabled.
func NewAttendanceService(repo attendanceRepository, policy CorrectionPolicy, converter dateConverter, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, policy: policy, converter: converter, validator: validate, logger: logger, now: time.Now}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	svc.validator.RegisterValidation("sync_status", func(fl validator.FieldLevel) bool {
		return models.SyncStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// MarkAttendanceRequest describes the payload for marking one student.
type MarkAttendanceRequest struct {
	StudentID    string  `json:"student_id" validate:"required"`
	ClassID      string  `json:"class_id" validate:"required"`
	Date         string  `json:"date" validate:"required"`
	PeriodNumber *int    `json:"period_number" validate:"omitempty,min=1"`
	Status       string  `json:"status" validate:"required,attendance_status"`
	Remarks      *string `json:"remarks"`
	SyncStatus   *string `json:"sync_status" validate:"omitempty,sync_status"`
	BSDate       *string `json:"bs_date"`
}

func (req MarkAttendanceRequest) session() models.AttendanceSession {
	if req.PeriodNumber == nil {
		return models.DayWise()
	}
	return models.PeriodWise(*req.PeriodNumber)
}

// MarkAttendance records or corrects one student's attendance. When a
// record already exists for the natural key, the mutation is permitted only
// inside the correction window measured from the record's most recent
// marking; a successful correction advances marked_at to now.
func (s *AttendanceService) MarkAttendance(ctx context.Context, req MarkAttendanceRequest, actorID string) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	session := req.session()
	now := s.now().UTC()

	existing, err := s.repo.FindByStudentAndDate(ctx, req.StudentID, date, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up attendance")
	}

	status := models.AttendanceStatus(strings.ToUpper(req.Status))

	if existing == nil {
		record := &models.AttendanceRecord{
			StudentID:    req.StudentID,
			ClassID:      req.ClassID,
			Date:         date,
			PeriodNumber: session.PeriodNumber,
			Status:       status,
			MarkedBy:     actorID,
			MarkedAt:     now,
			SyncStatus:   resolveSyncStatus(req.SyncStatus),
			Remarks:      req.Remarks,
			BSDate:       s.resolveBSDate(ctx, req.BSDate, date),
		}
		stored, err := s.repo.Create(ctx, record)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
		}
		s.logger.Info("attendance marked",
			zap.String("student_id", req.StudentID),
			zap.String("class_id", req.ClassID),
			zap.String("status", string(status)))
		return stored, nil
	}

	if !s.policy.CanCorrect(existing.MarkedAt, now) {
		return nil, windowExceededError(appErrors.ErrCorrectionWindow, "correction", s.policy.Window(), existing.MarkedAt)
	}

	updated, err := s.repo.Update(ctx, existing.ID, models.AttendancePatch{
		Status:   status,
		Remarks:  req.Remarks,
		MarkedBy: actorID,
		MarkedAt: now,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to correct attendance")
	}
	if updated == nil {
		// Record vanished between lookup and update.
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record no longer exists")
	}
	s.logger.Info("attendance corrected",
		zap.String("record_id", updated.ID),
		zap.String("status", string(status)),
		zap.String("marked_by", actorID))
	return updated, nil
}

// DeleteAttendance removes a record when the deletion window permits.
// A missing id returns false rather than an error.
func (s *AttendanceService) DeleteAttendance(ctx context.Context, id string, actorID string) (bool, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if record == nil {
		return false, nil
	}

	if !s.policy.CanCorrect(record.MarkedAt, s.now().UTC()) {
		return false, windowExceededError(appErrors.ErrDeletionWindow, "deletion", s.policy.Window(), record.MarkedAt)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance")
	}
	if deleted {
		s.logger.Info("attendance deleted", zap.String("record_id", id), zap.String("deleted_by", actorID))
	}
	return deleted, nil
}

// CanCorrectAttendance exposes the window policy for pre-checks without
// attempting a mutation. It agrees exactly with the gate used by
// MarkAttendance and DeleteAttendance.
func (s *AttendanceService) CanCorrectAttendance(markedAt time.Time) bool {
	return s.policy.CanCorrect(markedAt, s.now().UTC())
}

// ListClassAttendance returns the records for a class, date and session.
func (s *AttendanceService) ListClassAttendance(ctx context.Context, classID string, date string, periodNumber *int) ([]models.AttendanceRecord, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id required")
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	session := models.DayWise()
	if periodNumber != nil {
		session = models.PeriodWise(*periodNumber)
	}
	records, err := s.repo.FindByClassAndDate(ctx, classID, parsed, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class attendance")
	}
	return records, nil
}

// ListPendingSync returns records queued by offline clients.
func (s *AttendanceService) ListPendingSync(ctx context.Context) ([]models.AttendanceRecord, error) {
	records, err := s.repo.FindPendingSync(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending sync records")
	}
	return records, nil
}

// ListErrorSync returns records whose last sync attempt failed.
func (s *AttendanceService) ListErrorSync(ctx context.Context) ([]models.AttendanceRecord, error) {
	records, err := s.repo.FindErrorSync(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list errored sync records")
	}
	return records, nil
}

// UpdateSyncStatus reconciles one record's sync flag.
func (s *AttendanceService) UpdateSyncStatus(ctx context.Context, id string, status string) error {
	sync := models.SyncStatus(strings.ToUpper(status))
	if !sync.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "invalid sync status")
	}
	if err := s.repo.UpdateSyncStatus(ctx, id, sync); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update sync status")
	}
	return nil
}

// MarkRecordsSynced flags a batch of records as reconciled.
func (s *AttendanceService) MarkRecordsSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.repo.BulkUpdateSyncStatus(ctx, ids, models.SyncStatusSynced); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark records synced")
	}
	return nil
}

// resolveSyncStatus defaults to SYNCED; only an explicit PENDING takes the
// offline path.
func resolveSyncStatus(raw *string) models.SyncStatus {
	if raw != nil && models.SyncStatus(strings.ToUpper(*raw)) == models.SyncStatusPending {
		return models.SyncStatusPending
	}
	return models.SyncStatusSynced
}

// resolveBSDate prefers the caller-supplied BS date and otherwise asks the
// calendar service. Conversion is display-only, so failures are logged and
// the field stays empty.
func (s *AttendanceService) resolveBSDate(ctx context.Context, supplied *string, date time.Time) *string {
	if supplied != nil && *supplied != "" {
		return supplied
	}
	if s.converter == nil {
		return nil
	}
	bs, err := s.converter.ToBS(ctx, date)
	if err != nil {
		s.logger.Debug("bs date conversion failed", zap.Error(err))
		return nil
	}
	return &bs
}

// windowExceededError builds the window-exceeded error. The original
// marked-at timestamp is embedded in RFC 3339 so callers can parse it back
// out of the message; that format is part of the API contract.
func windowExceededError(base *appErrors.Error, action string, window time.Duration, markedAt time.Time) *appErrors.Error {
	return appErrors.Clone(base, fmt.Sprintf("%s window of %s has elapsed; record was marked at %s",
		action, window, markedAt.UTC().Format(time.RFC3339)))
}
