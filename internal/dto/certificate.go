package dto

// AssessmentRequest records the legacy overall verdict. Verdict accepts the
// historical labels such as "Diterima" or "Lulus".
type AssessmentRequest struct {
	Verdict string  `json:"verdict" validate:"max=50"`
	Note    *string `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// IssueCertificateRequest issues the credential of a completed enrollment.
type IssueCertificateRequest struct {
	CredentialURL  string  `json:"credential_url" validate:"required,url,max=1000"`
	CompletionDate string  `json:"completion_date" validate:"required,datetime=2006-01-02"`
	Note           *string `json:"note,omitempty" validate:"omitempty,max=2000"`
}
