package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hshinosa/kompetensia-api/internal/models"
)

type participantRepository interface {
	FindByID(ctx context.Context, id string) (*models.Participant, error)
}

// ProfileService resolves participant profiles, consulting the cache first.
type ProfileService struct {
	repo   participantRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewProfileService constructs the service. cache may be nil.
func NewProfileService(repo participantRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Resolve returns the participant's profile with institution and class level
// fallbacks applied.
func (s *ProfileService) Resolve(ctx context.Context, participantID string) (*models.ParticipantProfile, error) {
	key := profileCacheKey(participantID)
	var cached models.ParticipantProfile
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	participant, err := s.repo.FindByID(ctx, participantID)
	if err != nil {
		return nil, notFoundOrStorage(err, "participant not found", "failed to load participant")
	}
	profile := participant.Profile()
	s.cache.Set(ctx, key, profile, s.ttl)
	return &profile, nil
}

// Invalidate drops the cached profile of a participant.
func (s *ProfileService) Invalidate(ctx context.Context, participantID string) {
	s.cache.Invalidate(ctx, profileCacheKey(participantID))
}

func profileCacheKey(participantID string) string {
	return "profile:" + participantID
}
