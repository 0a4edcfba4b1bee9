package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/repository"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
)

// CreateWifiRequest is the payload for sharing a network.
type CreateWifiRequest struct {
	SSID     string `json:"ssid" validate:"required,max=64"`
	Password string `json:"password" validate:"max=128"`
}

// WifiService manages the networks shown on the member portal.
type WifiService struct {
	repo      repository.WifiStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWifiService constructs the service.
func NewWifiService(repo repository.WifiStore, validate *validator.Validate, logger *zap.Logger) *WifiService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WifiService{repo: repo, validator: validate, logger: logger}
}

// List returns every network.
func (s *WifiService) List(ctx context.Context) ([]models.WifiNetwork, error) {
	networks, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list wifi networks")
	}
	if networks == nil {
		networks = []models.WifiNetwork{}
	}
	return networks, nil
}

// Create stores a new network.
func (s *WifiService) Create(ctx context.Context, req CreateWifiRequest) (*models.WifiNetwork, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wifi payload")
	}
	network := &models.WifiNetwork{ID: uuid.NewString(), SSID: strings.TrimSpace(req.SSID), Password: req.Password}
	if err := s.repo.Create(ctx, network); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create wifi network")
	}
	s.logger.Info("wifi network added", zap.String("ssid", network.SSID))
	return network, nil
}

// Delete removes a network.
func (s *WifiService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "wifi network not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete wifi network")
	}
	return nil
}
