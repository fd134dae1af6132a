package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshalaya/attendance-api/internal/models"
	"github.com/shikshalaya/attendance-api/pkg/sms"
)

type mockCounter struct {
	counts map[string]models.AttendanceStatusCounts
	err    error
}

func (m *mockCounter) CountByStatusForStudent(ctx context.Context, studentID string, rng models.DateRange) (models.AttendanceStatusCounts, error) {
	if m.err != nil {
		return models.AttendanceStatusCounts{}, m.err
	}
	return m.counts[studentID], nil
}

type mockStudents struct {
	students map[string]models.Student
}

func (m *mockStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, nil
}

type mockUsers struct {
	admins []models.User
	err    error
}

func (m *mockUsers) FindAdmins(ctx context.Context) ([]models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.admins, nil
}

type mockSender struct {
	alertResult sms.SendResult
	bulkResults []sms.SendResult

	alerts []string
	bulks  [][]sms.Message
}

func (m *mockSender) SendAlert(ctx context.Context, phoneNumber, displayName string, percentage float64) sms.SendResult {
	m.alerts = append(m.alerts, phoneNumber)
	return m.alertResult
}

func (m *mockSender) SendBulk(ctx context.Context, messages []sms.Message) []sms.SendResult {
	m.bulks = append(m.bulks, messages)
	if m.bulkResults != nil {
		return m.bulkResults
	}
	results := make([]sms.SendResult, len(messages))
	for i := range results {
		results[i] = sms.SendResult{Success: true}
	}
	return results
}

func strPtr(s string) *string { return &s }

func newAlertFixture(counts models.AttendanceStatusCounts) (*mockCounter, *mockStudents, *mockUsers, *mockSender) {
	counter := &mockCounter{counts: map[string]models.AttendanceStatusCounts{"s1": counts}}
	students := &mockStudents{students: map[string]models.Student{
		"s1": {ID: "s1", StudentCode: "STU-001", FullName: "Asha Sharma", FatherPhone: strPtr("9800000001")},
	}}
	users := &mockUsers{admins: []models.User{
		{ID: "a1", Role: models.RoleAdmin, Phone: strPtr("9800000099")},
	}}
	sender := &mockSender{alertResult: sms.SendResult{Success: true}}
	return counter, students, users, sender
}

func TestCalculateAttendancePercentageCountsLateAsPresent(t *testing.T) {
	counter := &mockCounter{counts: map[string]models.AttendanceStatusCounts{
		"s1": {Present: 6, Late: 2, Absent: 2, Total: 10},
	}}
	svc := NewAlertService(counter, nil, nil, nil, 75, nil)

	pct, err := svc.CalculateAttendancePercentage(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.InDelta(t, 80.0, pct, 0.001)
}

func TestCalculateAttendancePercentageNoRecords(t *testing.T) {
	svc := NewAlertService(&mockCounter{counts: map[string]models.AttendanceStatusCounts{}}, nil, nil, nil, 75, nil)

	pct, err := svc.CalculateAttendancePercentage(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)
}

func TestCheckLowAttendanceBelowThresholdAlertsBothChannels(t *testing.T) {
	counter, students, users, sender := newAlertFixture(models.AttendanceStatusCounts{Present: 7, Absent: 3, Total: 10})
	svc := NewAlertService(counter, students, users, sender, 75, nil)

	result, err := svc.CheckAndAlertLowAttendance(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.True(t, result.BelowThreshold)
	assert.True(t, result.AlertSent)
	require.NotNil(t, result.AlertDetails)
	assert.True(t, result.AlertDetails.ParentNotified)
	assert.True(t, result.AlertDetails.AdminNotified)
	assert.Equal(t, []string{"9800000001"}, sender.alerts)
	require.Len(t, sender.bulks, 1)
	assert.Equal(t, "9800000099", sender.bulks[0][0].Recipient)
}

func TestCheckLowAttendanceExactlyThresholdDoesNotTrigger(t *testing.T) {
	counter, students, users, sender := newAlertFixture(models.AttendanceStatusCounts{Present: 75, Absent: 25, Total: 100})
	svc := NewAlertService(counter, students, users, sender, 75, nil)

	result, err := svc.CheckAndAlertLowAttendance(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.False(t, result.BelowThreshold)
	assert.False(t, result.AlertSent)
	assert.Nil(t, result.AlertDetails)
	assert.Empty(t, sender.alerts)
}

func TestCheckLowAttendanceSMSFailureDoesNotFailCheck(t *testing.T) {
	counter, students, users, sender := newAlertFixture(models.AttendanceStatusCounts{Present: 5, Absent: 5, Total: 10})
	sender.alertResult = sms.SendResult{Success: false, Error: "gateway timeout"}
	sender.bulkResults = []sms.SendResult{{Success: false, Error: "gateway timeout"}}
	svc := NewAlertService(counter, students, users, sender, 75, nil)

	result, err := svc.CheckAndAlertLowAttendance(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.True(t, result.BelowThreshold)
	assert.InDelta(t, 50.0, result.AttendancePercentage, 0.001)
	// Percentage stays available; the failure only shows in the flags.
	assert.False(t, result.AlertSent)
	assert.False(t, result.AlertDetails.ParentNotified)
	assert.False(t, result.AlertDetails.AdminNotified)
}

func TestCheckLowAttendanceMotherPhoneFallback(t *testing.T) {
	counter, students, users, sender := newAlertFixture(models.AttendanceStatusCounts{Present: 5, Absent: 5, Total: 10})
	students.students["s1"] = models.Student{ID: "s1", FullName: "Asha Sharma", MotherPhone: strPtr("9800000002")}
	svc := NewAlertService(counter, students, users, sender, 75, nil)

	result, err := svc.CheckAndAlertLowAttendance(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.True(t, result.AlertDetails.ParentNotified)
	assert.Equal(t, []string{"9800000002"}, sender.alerts)
}

func TestCheckLowAttendanceNoGuardianPhoneStillNotifiesAdmins(t *testing.T) {
	counter, students, users, sender := newAlertFixture(models.AttendanceStatusCounts{Present: 5, Absent: 5, Total: 10})
	students.students["s1"] = models.Student{ID: "s1", FullName: "Asha Sharma"}
	svc := NewAlertService(counter, students, users, sender, 75, nil)

	result, err := svc.CheckAndAlertLowAttendance(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, sender.alerts)
	assert.False(t, result.AlertDetails.ParentNotified)
	assert.True(t, result.AlertDetails.AdminNotified)
	assert.True(t, result.AlertSent)
}

func TestCheckLowAttendanceMissingStudent(t *testing.T) {
	counter := &mockCounter{counts: map[string]models.AttendanceStatusCounts{
		"ghost": {Present: 1, Absent: 9, Total: 10},
	}}
	sender := &mockSender{}
	svc := NewAlertService(counter, &mockStudents{}, &mockUsers{}, sender, 75, nil)

	result, err := svc.CheckAndAlertLowAttendance(context.Background(), "ghost", models.DateRange{})
	require.NoError(t, err)
	assert.True(t, result.BelowThreshold)
	assert.False(t, result.AlertSent)
	assert.Empty(t, sender.alerts)
}

func TestCheckLowAttendanceNilSender(t *testing.T) {
	counter, students, users, _ := newAlertFixture(models.AttendanceStatusCounts{Present: 5, Absent: 5, Total: 10})
	svc := NewAlertService(counter, students, users, nil, 75, nil)

	result, err := svc.CheckAndAlertLowAttendance(context.Background(), "s1", models.DateRange{})
	require.NoError(t, err)
	assert.True(t, result.BelowThreshold)
	assert.False(t, result.AlertSent)
}

func TestBatchCheckContinuesPastFailures(t *testing.T) {
	counter := &mockCounter{counts: map[string]models.AttendanceStatusCounts{
		"s1": {Present: 9, Absent: 1, Total: 10},
	}}
	svc := NewAlertService(counter, &mockStudents{}, &mockUsers{}, nil, 75, nil)

	results := svc.BatchCheckLowAttendance(context.Background(), []string{"s1", "s2"}, models.DateRange{})
	assert.Len(t, results, 2)
	assert.False(t, results[0].BelowThreshold)
	// Unknown student yields zero records, which reads as 0% and below.
	assert.True(t, results[1].BelowThreshold)
}

func TestBatchCheckSkipsErroredStudents(t *testing.T) {
	counter := &mockCounter{err: errors.New("db down")}
	svc := NewAlertService(counter, &mockStudents{}, &mockUsers{}, nil, 75, nil)

	results := svc.BatchCheckLowAttendance(context.Background(), []string{"s1", "s2"}, models.DateRange{})
	assert.Empty(t, results)
}
