package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/repository"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
)

type attachmentArchive interface {
	attachmentStore
	List(ctx context.Context) (map[string]models.Attachments, error)
}

// BackupService exports and restores the whole desk as one JSON snapshot.
type BackupService struct {
	store       repository.SnapshotStore
	attachments attachmentArchive
	cache       *CacheService
	logger      *zap.Logger
}

// NewBackupService constructs the service. attachments may be nil.
func NewBackupService(store repository.SnapshotStore, attachments attachmentArchive, cache *CacheService, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{store: store, attachments: attachments, cache: cache, logger: logger}
}

// Export returns the full data set including attachment payloads.
func (s *BackupService) Export(ctx context.Context) (*models.Snapshot, error) {
	snapshot, err := s.store.Export(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to export data")
	}
	if s.attachments != nil {
		attachments, err := s.attachments.List(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to export attachments")
		}
		snapshot.Attachments = attachments
	}
	if snapshot.Students == nil {
		snapshot.Students = []models.Student{}
	}
	return snapshot, nil
}

// Import replaces every record with the snapshot. A snapshot without a students array is rejected.
func (s *BackupService) Import(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot == nil || snapshot.Students == nil {
		return appErrors.Clone(appErrors.ErrValidation, "backup must contain a students array")
	}
	for _, student := range snapshot.Students {
		if student.ID == "" || !student.PlanType.Valid() || len(student.AssignedSlots) != student.PlanType.RequiredSlotCount() {
			return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "backup contains an invalid student"), map[string]interface{}{"student_id": student.ID})
		}
	}

	if err := s.store.Import(ctx, snapshot); err != nil {
		var claim *repository.SeatClaimError
		if errors.As(err, &claim) {
			return wrapConflict(&models.SeatConflictError{Reason: claim.Reason, SeatNumber: claim.SeatNumber})
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to import data")
	}

	if s.attachments != nil {
		if err := s.restoreAttachments(ctx, snapshot.Attachments); err != nil {
			s.logger.Error("attachments only partially restored", zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to restore attachments")
		}
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
	s.logger.Info("backup imported",
		zap.Int("students", len(snapshot.Students)),
		zap.Int("transactions", len(snapshot.Transactions)),
		zap.Int("attachments", len(snapshot.Attachments)),
	)
	return nil
}

func (s *BackupService) restoreAttachments(ctx context.Context, incoming map[string]models.Attachments) error {
	existing, err := s.attachments.List(ctx)
	if err != nil {
		return err
	}
	for id := range existing {
		if _, keep := incoming[id]; keep {
			continue
		}
		if err := s.attachments.Delete(ctx, id); err != nil {
			return err
		}
	}
	for id, attachments := range incoming {
		if attachments.Empty() {
			continue
		}
		if err := s.attachments.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.attachments.Put(ctx, id, attachments); err != nil {
			return err
		}
	}
	return nil
}
