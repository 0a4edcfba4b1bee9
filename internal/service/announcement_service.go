package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/repository"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
)

// SetAnnouncementRequest replaces the banner.
type SetAnnouncementRequest struct {
	Message  string `json:"message" validate:"max=1000"`
	IsActive bool   `json:"is_active"`
}

// AnnouncementService handles the single banner announcement.
type AnnouncementService struct {
	repo      repository.AnnouncementStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo repository.AnnouncementStore, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// Get returns the banner; an unset banner is empty and inactive.
func (s *AnnouncementService) Get(ctx context.Context) (*models.Announcement, error) {
	announcement, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	if announcement == nil {
		announcement = &models.Announcement{}
	}
	return announcement, nil
}

// Set replaces the banner.
func (s *AnnouncementService) Set(ctx context.Context, req SetAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	message := strings.TrimSpace(req.Message)
	if req.IsActive && message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "active announcement needs a message")
	}
	announcement := &models.Announcement{Message: message, IsActive: req.IsActive, UpdatedAt: s.now().UTC()}
	if err := s.repo.Set(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save announcement")
	}
	s.logger.Info("announcement updated", zap.Bool("active", announcement.IsActive))
	return announcement, nil
}
