package models

import "time"

// ContentKind defines which artifact references a submission must carry.
type ContentKind string

const (
	ContentKindDocument        ContentKind = "DOCUMENT"
	ContentKindLink            ContentKind = "LINK"
	ContentKindDocumentAndLink ContentKind = "DOCUMENT_AND_LINK"
)

// RequiresDocument reports whether the kind needs a document reference.
func (k ContentKind) RequiresDocument() bool {
	return k == ContentKindDocument || k == ContentKindDocumentAndLink
}

// RequiresLink reports whether the kind needs a link reference.
func (k ContentKind) RequiresLink() bool {
	return k == ContentKindLink || k == ContentKindDocumentAndLink
}

// Verdict is the grading outcome of a single submission.
type Verdict string

const (
	VerdictPending  Verdict = "PENDING"
	VerdictApproved Verdict = "APPROVED"
	VerdictRejected Verdict = "REJECTED"
)

// Common internship categories. Certification tracks use free-form task titles.
const (
	CategoryProposal     = "proposal"
	CategoryWeeklyReport = "weekly-report"
	CategoryFinalReport  = "final-report"
	CategoryEvaluation   = "evaluation"
)

var categoryLabels = map[string]string{
	CategoryProposal:     "Proposal",
	CategoryWeeklyReport: "Laporan Mingguan",
	CategoryFinalReport:  "Laporan Akhir",
	CategoryEvaluation:   "Evaluasi",
}

// CategoryLabel returns the display label of a known category and the
// category itself otherwise.
func CategoryLabel(category string) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return category
}

// DocumentRef is an opaque pointer into the document store.
type DocumentRef struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
	MIME string `json:"mime"`
}

// Submission is one task artifact submitted against an enrollment.
type Submission struct {
	ID           string      `db:"id" json:"id"`
	EnrollmentID string      `db:"enrollment_id" json:"enrollment_id"`
	Sequence     int         `db:"sequence" json:"sequence"`
	Category     string      `db:"category" json:"category"`
	Title        *string     `db:"title" json:"title,omitempty"`
	Description  *string     `db:"description" json:"description,omitempty"`
	ContentKind  ContentKind `db:"content_kind" json:"content_kind"`
	DocumentPath *string     `db:"document_path" json:"document_path,omitempty"`
	DocumentSize *int64      `db:"document_size" json:"document_size,omitempty"`
	DocumentMIME *string     `db:"document_mime" json:"document_mime,omitempty"`
	LinkURL      *string     `db:"link_url" json:"link_url,omitempty"`
	SubmittedAt  time.Time   `db:"submitted_at" json:"submitted_at"`
	Verdict      Verdict     `db:"verdict" json:"verdict"`
	Feedback     *string     `db:"feedback" json:"feedback,omitempty"`
	GradedAt     *time.Time  `db:"graded_at" json:"graded_at,omitempty"`
	GradedBy     *string     `db:"graded_by" json:"graded_by,omitempty"`
}

// Document returns the stored document reference, if any.
func (s Submission) Document() *DocumentRef {
	if s.DocumentPath == nil {
		return nil
	}
	ref := &DocumentRef{Path: *s.DocumentPath}
	if s.DocumentSize != nil {
		ref.Size = *s.DocumentSize
	}
	if s.DocumentMIME != nil {
		ref.MIME = *s.DocumentMIME
	}
	return ref
}
