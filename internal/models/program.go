package models

import "time"

// Track distinguishes certification programs from internship positions.
type Track string

const (
	TrackCertification Track = "CERTIFICATION"
	TrackInternship    Track = "INTERNSHIP"
)

// Valid reports whether the track is known.
func (t Track) Valid() bool {
	return t == TrackCertification || t == TrackInternship
}

// Program is a certification scheme or internship position participants apply to.
type Program struct {
	ID        string    `db:"id" json:"id"`
	Track     Track     `db:"track" json:"track"`
	Title     string    `db:"title" json:"title"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
