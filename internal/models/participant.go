package models

import "strings"

// ClassLevelUnknown marks a participant without any class or semester data.
const ClassLevelUnknown = "unknown"

// Participant is the raw participant row. Older records carry the institution
// under different columns, so every source is kept and resolved into a
// ParticipantProfile.
type Participant struct {
	ID          string  `db:"id"`
	FullName    string  `db:"full_name"`
	Email       string  `db:"email"`
	Phone       *string `db:"phone"`
	Institution *string `db:"institution"`
	University  *string `db:"university"`
	SchoolName  *string `db:"school_name"`
	ClassLevel  *string `db:"class_level"`
	Semester    *string `db:"semester"`
}

// ParticipantProfile is the single resolved view of a participant.
type ParticipantProfile struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Institution string `json:"institution,omitempty"`
	ClassLevel  string `json:"class_level"`
}

// Profile resolves fallbacks: institution, then university, then school name;
// class level, then semester, then ClassLevelUnknown.
func (p Participant) Profile() ParticipantProfile {
	return ParticipantProfile{
		ID:          p.ID,
		FullName:    p.FullName,
		Email:       p.Email,
		Phone:       firstNonEmpty(p.Phone),
		Institution: firstNonEmpty(p.Institution, p.University, p.SchoolName),
		ClassLevel:  orDefault(firstNonEmpty(p.ClassLevel, p.Semester), ClassLevelUnknown),
	}
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
