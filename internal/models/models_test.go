package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssessmentVerdict(t *testing.T) {
	cases := map[string]AssessmentVerdict{
		"Diterima":     AssessmentPass,
		"diterima":     AssessmentPass,
		"LULUS":        AssessmentPass,
		" lulus ":      AssessmentPass,
		"Tidak  Lulus": AssessmentFail,
		"ditolak":      AssessmentFail,
		"":             AssessmentPending,
		"Menunggu":     AssessmentPending,
		"PASS":         AssessmentPass,
		"pending":      AssessmentPending,
	}
	for raw, want := range cases {
		got, err := ParseAssessmentVerdict(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseAssessmentVerdict("mungkin")
	require.Error(t, err)
}

func TestAssessmentVerdictReadsUnknownAsPending(t *testing.T) {
	assert.Equal(t, AssessmentPending, Assessment{RawVerdict: "??"}.Verdict())
	assert.Equal(t, AssessmentPass, Assessment{RawVerdict: "Lulus"}.Verdict())
}

func TestParticipantProfileFallbacks(t *testing.T) {
	univ := "Universitas Indonesia"
	school := "SMK 1"
	semester := "5"
	blank := "  "

	p := Participant{ID: "p1", FullName: "Ayu", Institution: &blank, University: &univ, SchoolName: &school, Semester: &semester}
	profile := p.Profile()
	assert.Equal(t, "Universitas Indonesia", profile.Institution)
	assert.Equal(t, "5", profile.ClassLevel)

	bare := Participant{ID: "p2", FullName: "Budi"}.Profile()
	assert.Empty(t, bare.Institution)
	assert.Equal(t, ClassLevelUnknown, bare.ClassLevel)
}

func TestContentKindRequirements(t *testing.T) {
	assert.True(t, ContentKindDocument.RequiresDocument())
	assert.False(t, ContentKindDocument.RequiresLink())
	assert.True(t, ContentKindLink.RequiresLink())
	assert.True(t, ContentKindDocumentAndLink.RequiresDocument())
	assert.True(t, ContentKindDocumentAndLink.RequiresLink())
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Laporan Mingguan", CategoryLabel(CategoryWeeklyReport))
	assert.Equal(t, "Laporan Akhir", CategoryLabel(CategoryFinalReport))
	assert.Equal(t, "Uji Kompetensi", CategoryLabel("Uji Kompetensi"))
}

func TestDecisionStatus(t *testing.T) {
	assert.Equal(t, EnrollmentStatusApproved, DecisionApprove.Status())
	assert.Equal(t, EnrollmentStatusRejected, DecisionReject.Status())
}
