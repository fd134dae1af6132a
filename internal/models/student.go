package models

import "time"

// Student is the roster entry consumed by alerting and reports. The
// directory is owned by the enrollment system; this API only reads it.
type Student struct {
	ID          string    `db:"id" json:"id"`
	StudentCode string    `db:"student_code" json:"student_code"`
	FullName    string    `db:"full_name" json:"full_name"`
	FatherPhone *string   `db:"father_phone" json:"father_phone,omitempty"`
	MotherPhone *string   `db:"mother_phone" json:"mother_phone,omitempty"`
	ClassID     *string   `db:"class_id" json:"class_id,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ParentPhone resolves the guardian contact: father's phone first,
// falling back to mother's. Nil when neither is on file.
func (s *Student) ParentPhone() *string {
	if s.FatherPhone != nil && *s.FatherPhone != "" {
		return s.FatherPhone
	}
	if s.MotherPhone != nil && *s.MotherPhone != "" {
		return s.MotherPhone
	}
	return nil
}
