package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/hshinosa/kompetensia-api/internal/models"
)

// ParticipantRepository reads participant records.
type ParticipantRepository struct {
	db *sqlx.DB
}

// NewParticipantRepository constructs the repository.
func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// FindByID returns the raw participant row or sql.ErrNoRows.
func (r *ParticipantRepository) FindByID(ctx context.Context, id string) (*models.Participant, error) {
	const query = `SELECT id, full_name, email, phone, institution, university, school_name, class_level, semester
        FROM participants WHERE id = $1`
	var participant models.Participant
	if err := r.db.GetContext(ctx, &participant, query, id); err != nil {
		return nil, err
	}
	return &participant, nil
}
