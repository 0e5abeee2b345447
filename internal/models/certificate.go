package models

import "time"

// Certificate is the credential issued at most once per enrollment.
type Certificate struct {
	ID             string    `db:"id" json:"id"`
	EnrollmentID   string    `db:"enrollment_id" json:"enrollment_id"`
	CredentialURL  string    `db:"credential_url" json:"credential_url"`
	CompletionDate time.Time `db:"completion_date" json:"completion_date"`
	Note           *string   `db:"note" json:"note,omitempty"`
	IssuedAt       time.Time `db:"issued_at" json:"issued_at"`
	IssuedBy       *string   `db:"issued_by" json:"issued_by,omitempty"`
}
