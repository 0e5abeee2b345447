package dto

// DocumentRefRequest references a document previously uploaded to storage.
type DocumentRefRequest struct {
	Path string `json:"path" validate:"required,max=500"`
	Size int64  `json:"size" validate:"gte=0"`
	MIME string `json:"mime" validate:"omitempty,max=150"`
}

// SubmitRequest records one task artifact.
type SubmitRequest struct {
	Category    string              `json:"category" validate:"required,max=150"`
	ContentKind string              `json:"content_kind" validate:"required,oneof=DOCUMENT LINK DOCUMENT_AND_LINK"`
	Document    *DocumentRefRequest `json:"document,omitempty" validate:"omitempty"`
	LinkURL     *string             `json:"link_url,omitempty" validate:"omitempty,url,max=1000"`
	Title       *string             `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string             `json:"description,omitempty" validate:"omitempty,max=4000"`
}

// GradeRequest assigns a verdict to a submission.
type GradeRequest struct {
	Verdict  string  `json:"verdict" validate:"required,oneof=APPROVED REJECTED"`
	Feedback *string `json:"feedback,omitempty" validate:"omitempty,max=4000"`
}

// DocumentURLResponse is the signed download link of a submission document.
type DocumentURLResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
