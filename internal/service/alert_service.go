package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shikshalaya/attendance-api/internal/models"
	appErrors "github.com/shikshalaya/attendance-api/pkg/errors"
	"github.com/shikshalaya/attendance-api/pkg/sms"
)

// DefaultAlertThreshold is the percentage below which alerts fire.
const DefaultAlertThreshold = 75.0

type attendanceCounter interface {
	CountByStatusForStudent(ctx context.Context, studentID string, rng models.DateRange) (models.AttendanceStatusCounts, error)
}

type studentDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type userDirectory interface {
	FindAdmins(ctx context.Context) ([]models.User, error)
}

type alertSender interface {
	SendAlert(ctx context.Context, phoneNumber, displayName string, percentage float64) sms.SendResult
	SendBulk(ctx context.Context, messages []sms.Message) []sms.SendResult
}

// AlertService computes attendance percentages and fires threshold alerts
// to guardians and admins. Notification failures never propagate: the
// percentage result must stay available when the SMS channel is degraded.
type AlertService struct {
	attendance attendanceCounter
	students   studentDirectory
	users      userDirectory
	sender     alertSender
	threshold  float64
	logger     *zap.Logger
}

// NewAlertService constructs the alert service. sender may be nil when the
// SMS gateway is disabled; alerts then report as not sent.
func NewAlertService(attendance attendanceCounter, students studentDirectory, users userDirectory, sender alertSender, threshold float64, logger *zap.Logger) *AlertService {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultAlertThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{
		attendance: attendance,
		students:   students,
		users:      users,
		sender:     sender,
		threshold:  threshold,
		logger:     logger,
	}
}

// CalculateAttendancePercentage returns the student's percentage over the
// range, counting LATE as presence. Zero records yields 0.
func (s *AlertService) CalculateAttendancePercentage(ctx context.Context, studentID string, rng models.DateRange) (float64, error) {
	counts, err := s.attendance.CountByStatusForStudent(ctx, studentID, rng)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	if counts.Total == 0 {
		return 0, nil
	}
	return float64(counts.CountedPresent()) / float64(counts.Total) * 100, nil
}

// CheckAndAlertLowAttendance evaluates one student against the threshold
// and, when strictly below it, notifies the guardian and the admin group.
// Exactly the threshold does not trigger.
func (s *AlertService) CheckAndAlertLowAttendance(ctx context.Context, studentID string, rng models.DateRange) (*models.LowAttendanceResult, error) {
	percentage, err := s.CalculateAttendancePercentage(ctx, studentID, rng)
	if err != nil {
		return nil, err
	}

	result := &models.LowAttendanceResult{
		StudentID:            studentID,
		AttendancePercentage: percentage,
		BelowThreshold:       percentage < s.threshold,
	}
	if !result.BelowThreshold {
		return result, nil
	}

	details := &models.AlertDetails{}
	result.AlertDetails = details

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		s.logger.Warn("student lookup failed during alert", zap.String("student_id", studentID), zap.Error(err))
	}
	if student == nil {
		s.logger.Warn("student missing from directory, alert not sent", zap.String("student_id", studentID))
		return result, nil
	}

	if s.sender != nil {
		if phone := student.ParentPhone(); phone != nil {
			res := s.sender.SendAlert(ctx, *phone, student.FullName, percentage)
			details.ParentNotified = res.Success
			if !res.Success {
				s.logger.Warn("parent alert failed",
					zap.String("student_id", studentID),
					zap.String("reason", res.Error))
			}
		}
		details.AdminNotified = s.notifyAdmins(ctx, student, percentage)
	}

	result.AlertSent = details.ParentNotified || details.AdminNotified
	return result, nil
}

// BatchCheckLowAttendance runs the single-student check independently per
// student; one student's failure never aborts the rest.
func (s *AlertService) BatchCheckLowAttendance(ctx context.Context, studentIDs []string, rng models.DateRange) []models.LowAttendanceResult {
	results := make([]models.LowAttendanceResult, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		result, err := s.CheckAndAlertLowAttendance(ctx, studentID, rng)
		if err != nil {
			s.logger.Error("low attendance check failed",
				zap.String("student_id", studentID),
				zap.Error(err))
			continue
		}
		results = append(results, *result)
	}
	return results
}

func (s *AlertService) notifyAdmins(ctx context.Context, student *models.Student, percentage float64) bool {
	admins, err := s.users.FindAdmins(ctx)
	if err != nil {
		s.logger.Warn("admin lookup failed during alert", zap.Error(err))
		return false
	}

	body := fmt.Sprintf("Low attendance alert: %s (%s) is at %.1f%%, below the %.0f%% threshold.",
		student.FullName, student.StudentCode, percentage, s.threshold)

	messages := make([]sms.Message, 0, len(admins))
	for _, admin := range admins {
		if admin.Phone == nil || *admin.Phone == "" {
			continue
		}
		messages = append(messages, sms.Message{Recipient: *admin.Phone, Body: body})
	}
	if len(messages) == 0 {
		return false
	}

	notified := false
	for _, res := range s.sender.SendBulk(ctx, messages) {
		if res.Success {
			notified = true
		} else {
			s.logger.Warn("admin alert failed", zap.String("reason", res.Error))
		}
	}
	return notified
}
