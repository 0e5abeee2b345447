package models

import "time"

// EnrollmentStatus represents the administrative approval state of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. APPLIED moves once to APPROVED or REJECTED.
const (
	EnrollmentStatusApplied  EnrollmentStatus = "APPLIED"
	EnrollmentStatusApproved EnrollmentStatus = "APPROVED"
	EnrollmentStatusRejected EnrollmentStatus = "REJECTED"
)

// Decision is the administrative verdict on an application.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Status maps the decision onto the resulting enrollment status.
func (d Decision) Status() EnrollmentStatus {
	if d == DecisionApprove {
		return EnrollmentStatusApproved
	}
	return EnrollmentStatusRejected
}

// DateWindow is an inclusive calendar-date range. Either bound may be open.
type DateWindow struct {
	Start *time.Time `json:"start_date,omitempty"`
	End   *time.Time `json:"end_date,omitempty"`
}

// Empty reports whether neither bound is set.
func (w DateWindow) Empty() bool {
	return w.Start == nil && w.End == nil
}

// Enrollment captures a participant's application to a program.
type Enrollment struct {
	ID            string           `db:"id" json:"id"`
	ParticipantID string           `db:"participant_id" json:"participant_id"`
	ProgramID     string           `db:"program_id" json:"program_id"`
	Track         Track            `db:"track" json:"track"`
	BatchID       *string          `db:"batch_id" json:"batch_id,omitempty"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	FullName      string           `db:"full_name" json:"full_name"`
	Email         string           `db:"email" json:"email"`
	Phone         string           `db:"phone" json:"phone"`
	Institution   *string          `db:"institution" json:"institution,omitempty"`
	Motivation    *string          `db:"motivation" json:"motivation,omitempty"`
	CVRef         *string          `db:"cv_ref" json:"cv_ref,omitempty"`
	AppliedAt     time.Time        `db:"applied_at" json:"applied_at"`
	DecidedAt     *time.Time       `db:"decided_at" json:"decided_at,omitempty"`
	DecidedBy     *string          `db:"decided_by" json:"decided_by,omitempty"`
	AdminNote     *string          `db:"admin_note" json:"admin_note,omitempty"`
	StartDate     *time.Time       `db:"start_date" json:"start_date,omitempty"`
	EndDate       *time.Time       `db:"end_date" json:"end_date,omitempty"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// Window returns the enrollment's date window.
func (e Enrollment) Window() DateWindow {
	return DateWindow{Start: e.StartDate, End: e.EndDate}
}

// Scheduled reports whether an internship window has been set.
func (e Enrollment) Scheduled() bool {
	return !e.Window().Empty()
}

// EnrollmentDetail enriches Enrollment with the program, participant profile
// and the projected progress.
type EnrollmentDetail struct {
	Enrollment
	ProgramTitle string              `json:"program_title"`
	Profile      *ParticipantProfile `json:"participant,omitempty"`
	Progress     *Projection         `json:"progress,omitempty"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	ParticipantID string
	ProgramID     string
	Track         Track
	Status        EnrollmentStatus
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
