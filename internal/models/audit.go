package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AuditAction constants represent lifecycle actions written to the audit trail.
const (
	AuditActionEnrollmentApply    = "ENROLLMENT_APPLY"
	AuditActionEnrollmentDecide   = "ENROLLMENT_DECIDE"
	AuditActionEnrollmentSchedule = "ENROLLMENT_SCHEDULE"
	AuditActionSubmissionCreate   = "SUBMISSION_CREATE"
	AuditActionSubmissionGrade    = "SUBMISSION_GRADE"
	AuditActionSubmissionRegrade  = "SUBMISSION_REGRADE"
	AuditActionAssessmentRecord   = "ASSESSMENT_RECORD"
	AuditActionCertificateIssue   = "CERTIFICATE_ISSUE"
)

// Audit resources. Assessment and certificate events are recorded against their
// enrollment so the enrollment history carries the whole trail.
const (
	AuditResourceEnrollment = "enrollment"
	AuditResourceSubmission = "submission"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string             `db:"id" json:"id"`
	UserID     *string            `db:"user_id" json:"user_id,omitempty"`
	Action     string             `db:"action" json:"action"`
	Resource   string             `db:"resource" json:"resource"`
	ResourceID *string            `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  types.NullJSONText `db:"old_values" json:"old_values"`
	NewValues  types.NullJSONText `db:"new_values" json:"new_values"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
}

// AuditLogFilter narrows audit trail reads.
type AuditLogFilter struct {
	Resource   string
	ResourceID string
	Limit      int
}
