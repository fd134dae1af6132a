package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shikshalaya/attendance-api/internal/models"
	appErrors "github.com/shikshalaya/attendance-api/pkg/errors"
)

// BulkMarkPresentRequest marks a whole class present in one operation.
type BulkMarkPresentRequest struct {
	ClassID      string   `json:"class_id" validate:"required"`
	StudentIDs   []string `json:"student_ids"`
	Date         string   `json:"date" validate:"required"`
	BSDate       *string  `json:"bs_date"`
	PeriodNumber *int     `json:"period_number" validate:"omitempty,min=1"`
}

// BulkMarkPresentResult reports the written records plus the students the
// operation left untouched, so callers see partial success explicitly.
type BulkMarkPresentResult struct {
	Records []models.AttendanceRecord `json:"records"`
	Created int                       `json:"created"`
	Updated int                       `json:"updated"`
	// AlreadyPresent lists students whose record already carried PRESENT.
	AlreadyPresent []string `json:"already_present,omitempty"`
	// Skipped lists students whose record is outside the correction
	// window and was deliberately not overwritten.
	Skipped []string `json:"skipped,omitempty"`
}

// MarkAllPresent reconciles the student set against existing records for
// the class/date/session: missing records are bulk-created as PRESENT,
// differing records inside the correction window are corrected, records
// already PRESENT are no-ops and records outside the window are skipped.
// Repeated invocation with identical inputs converges to an empty result.
func (s *AttendanceService) MarkAllPresent(ctx context.Context, req BulkMarkPresentRequest, actorID string) (*BulkMarkPresentResult, error) {
	if len(req.StudentIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyBatch, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}

	session := models.DayWise()
	if req.PeriodNumber != nil {
		session = models.PeriodWise(*req.PeriodNumber)
	}

	// Dedup must precede any write so a repeated ID can never yield two
	// records for one natural key.
	studentIDs := dedupeIDs(req.StudentIDs)

	existing, err := s.repo.FindByClassAndDate(ctx, req.ClassID, date, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class attendance")
	}
	byStudent := make(map[string]*models.AttendanceRecord, len(existing))
	for i := range existing {
		byStudent[existing[i].StudentID] = &existing[i]
	}

	now := s.now().UTC()
	bsDate := s.resolveBSDate(ctx, req.BSDate, date)

	result := &BulkMarkPresentResult{}
	toCreate := make([]models.AttendanceRecord, 0, len(studentIDs))
	updated := make([]models.AttendanceRecord, 0)

	for _, studentID := range studentIDs {
		record, ok := byStudent[studentID]
		if !ok {
			toCreate = append(toCreate, models.AttendanceRecord{
				StudentID:    studentID,
				ClassID:      req.ClassID,
				Date:         date,
				PeriodNumber: session.PeriodNumber,
				Status:       models.AttendanceStatusPresent,
				MarkedBy:     actorID,
				MarkedAt:     now,
				SyncStatus:   models.SyncStatusSynced,
				BSDate:       bsDate,
			})
			continue
		}
		if !s.policy.CanCorrect(record.MarkedAt, now) {
			// Stale records are never silently overwritten, even by a
			// bulk reset.
			result.Skipped = append(result.Skipped, studentID)
			continue
		}
		if record.Status == models.AttendanceStatusPresent {
			result.AlreadyPresent = append(result.AlreadyPresent, studentID)
			continue
		}
		fresh, err := s.repo.Update(ctx, record.ID, models.AttendancePatch{
			Status:   models.AttendanceStatusPresent,
			Remarks:  record.Remarks,
			MarkedBy: actorID,
			MarkedAt: now,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to correct attendance in bulk")
		}
		if fresh == nil {
			result.Skipped = append(result.Skipped, studentID)
			continue
		}
		updated = append(updated, *fresh)
	}

	created, err := s.repo.BulkCreate(ctx, toCreate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk create attendance")
	}

	result.Records = append(created, updated...)
	result.Created = len(created)
	result.Updated = len(updated)

	s.logger.Info("class marked present",
		zap.String("class_id", req.ClassID),
		zap.String("date", req.Date),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
