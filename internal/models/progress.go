package models

// Phase is the derived lifecycle label of an enrollment. It is never stored.
type Phase string

const (
	PhaseNotStarted Phase = "NOT_STARTED"
	PhaseInProgress Phase = "IN_PROGRESS"
	PhaseUngraded   Phase = "UNGRADED"
	PhaseCompleted  Phase = "COMPLETED"
)

var phaseLabels = map[Phase]string{
	PhaseNotStarted: "Belum Dimulai",
	PhaseInProgress: "Sedang Berlangsung",
	PhaseUngraded:   "Belum Dinilai",
	PhaseCompleted:  "Selesai",
}

// Label returns the display label used in recaps and notifications.
func (p Phase) Label() string {
	if label, ok := phaseLabels[p]; ok {
		return label
	}
	return string(p)
}

// VerdictCounts tallies submission verdicts.
type VerdictCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Projection is the computed progress of an enrollment.
type Projection struct {
	EnrollmentID string        `json:"enrollment_id"`
	Phase        Phase         `json:"phase"`
	PhaseLabel   string        `json:"phase_label"`
	PassEligible bool          `json:"pass_eligible"`
	Submissions  VerdictCounts `json:"submissions"`
}
