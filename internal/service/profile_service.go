package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/noah-isme/feedback-desk-api/internal/dto"
	"github.com/noah-isme/feedback-desk-api/internal/models"
	appErrors "github.com/noah-isme/feedback-desk-api/pkg/errors"
)

type profileRepository interface {
	Get(ctx context.Context, role models.UserRole) (*models.Profile, bool, error)
	Save(ctx context.Context, role models.UserRole, profile models.Profile) error
}

// ProfileCacheConfig sizes the lookup cache.
type ProfileCacheConfig struct {
	Size int
	TTL  time.Duration
}

// ProfileService resolves the identity used to prefill and attribute feedback.
type ProfileService struct {
	repo      profileRepository
	cache     *expirable.LRU[models.UserRole, models.Profile]
	activity  activityRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs the service with an expirable LRU in front of the repository.
func NewProfileService(repo profileRepository, activity activityRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ProfileCacheConfig) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.Size <= 0 {
		cfg.Size = 16
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &ProfileService{
		repo:      repo,
		cache:     expirable.NewLRU[models.UserRole, models.Profile](cfg.Size, nil, cfg.TTL),
		activity:  activity,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Resolve returns the stored profile of the caller's role, falling back to the token identity when
// none is stored or the store cannot be read.
func (s *ProfileService) Resolve(ctx context.Context, claims *models.JWTClaims) models.Profile {
	fallback := models.Profile{}
	if claims == nil {
		return fallback
	}
	fallback = models.Profile{Name: claims.FullName, Email: claims.Email}

	if cached, ok := s.cache.Get(claims.Role); ok {
		s.metrics.RecordProfileCacheLookup(true)
		return cached
	}
	s.metrics.RecordProfileCacheLookup(false)

	stored, found, err := s.repo.Get(ctx, claims.Role)
	if err != nil {
		s.logger.Warn("profile lookup failed, using token identity", zap.String("role", string(claims.Role)), zap.Error(err))
		return fallback
	}
	if !found {
		return fallback
	}
	profile := *stored
	if strings.TrimSpace(profile.Name) == "" {
		profile.Name = fallback.Name
	}
	if strings.TrimSpace(profile.Email) == "" {
		profile.Email = fallback.Email
	}
	s.cache.Add(claims.Role, profile)
	return profile
}

// Update replaces the profile of the caller's role.
func (s *ProfileService) Update(ctx context.Context, claims *models.JWTClaims, req dto.UpdateProfileRequest) (*models.Profile, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile := models.Profile{Name: req.Name, Email: req.Email}
	if err := s.repo.Save(ctx, claims.Role, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}
	s.cache.Remove(claims.Role)

	if s.activity != nil {
		s.activity.Record(ctx, models.ActivityLog{
			Action:     models.ActivityProfileUpdated,
			Actor:      actorName(claims),
			Role:       claims.Role,
			ResourceID: models.ProfileSlotKey(claims.Role),
			Details:    map[string]string{"name": profile.Name, "email": profile.Email},
		})
	}
	return &profile, nil
}
