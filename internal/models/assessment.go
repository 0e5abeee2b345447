package models

import (
	"fmt"
	"strings"
	"time"
)

// AssessmentVerdict is the normalized outcome of the legacy overall assessment.
type AssessmentVerdict string

const (
	AssessmentPass    AssessmentVerdict = "PASS"
	AssessmentFail    AssessmentVerdict = "FAIL"
	AssessmentPending AssessmentVerdict = "PENDING"
)

var assessmentLabels = map[string]AssessmentVerdict{
	"":            AssessmentPending,
	"pending":     AssessmentPending,
	"menunggu":    AssessmentPending,
	"diterima":    AssessmentPass,
	"lulus":       AssessmentPass,
	"pass":        AssessmentPass,
	"passed":      AssessmentPass,
	"ditolak":     AssessmentFail,
	"tidak lulus": AssessmentFail,
	"gagal":       AssessmentFail,
	"fail":        AssessmentFail,
	"failed":      AssessmentFail,
}

// ParseAssessmentVerdict normalizes a raw label ignoring case and surrounding
// or repeated whitespace. Unknown labels return an error.
func ParseAssessmentVerdict(raw string) (AssessmentVerdict, error) {
	key := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	if v, ok := assessmentLabels[key]; ok {
		return v, nil
	}
	switch AssessmentVerdict(strings.ToUpper(key)) {
	case AssessmentPass, AssessmentFail, AssessmentPending:
		return AssessmentVerdict(strings.ToUpper(key)), nil
	}
	return "", fmt.Errorf("unknown assessment verdict %q", raw)
}

// Assessment is the legacy single pass/fail record kept per enrollment.
type Assessment struct {
	ID           string     `db:"id" json:"id"`
	EnrollmentID string     `db:"enrollment_id" json:"enrollment_id"`
	RawVerdict   string     `db:"raw_verdict" json:"raw_verdict"`
	Note         *string    `db:"note" json:"note,omitempty"`
	AssessedAt   time.Time  `db:"assessed_at" json:"assessed_at"`
	AssessedBy   *string    `db:"assessed_by" json:"assessed_by,omitempty"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Verdict returns the normalized verdict. Unparseable stored labels read as pending.
func (a Assessment) Verdict() AssessmentVerdict {
	v, err := ParseAssessmentVerdict(a.RawVerdict)
	if err != nil {
		return AssessmentPending
	}
	return v
}
