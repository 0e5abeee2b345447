package dto

// ApplyRequest is the application form submitted by a participant. Staff
// applying on behalf of a participant must set ParticipantID.
type ApplyRequest struct {
	ProgramID     string  `json:"program_id" validate:"required"`
	ParticipantID string  `json:"participant_id,omitempty"`
	BatchID       *string `json:"batch_id,omitempty"`
	FullName      string  `json:"full_name" validate:"required,max=150"`
	Email         string  `json:"email" validate:"required,email"`
	Phone         string  `json:"phone" validate:"required,max=30"`
	Institution   *string `json:"institution,omitempty" validate:"omitempty,max=200"`
	Motivation    *string `json:"motivation,omitempty" validate:"omitempty,max=4000"`
	CVRef         *string `json:"cv_ref,omitempty" validate:"omitempty,max=500"`
}

// DecideRequest carries an administrative decision. Dates use YYYY-MM-DD.
type DecideRequest struct {
	Decision  string  `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	Note      *string `json:"note,omitempty" validate:"omitempty,max=2000"`
	StartDate *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ScheduleRequest sets the date window of an approved internship.
type ScheduleRequest struct {
	StartDate *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// EnrollmentQuery mirrors supported listing filters.
type EnrollmentQuery struct {
	ParticipantID string `form:"participant_id"`
	ProgramID     string `form:"program_id"`
	Track         string `form:"track" validate:"omitempty,oneof=CERTIFICATION INTERNSHIP"`
	Status        string `form:"status" validate:"omitempty,oneof=APPLIED APPROVED REJECTED"`
	Page          int    `form:"page" validate:"omitempty,min=1"`
	PageSize      int    `form:"page_size" validate:"omitempty,min=1,max=100"`
	SortBy        string `form:"sort_by" validate:"omitempty,oneof=applied_at decided_at full_name start_date"`
	SortOrder     string `form:"sort_order" validate:"omitempty,oneof=asc desc ASC DESC"`
}
