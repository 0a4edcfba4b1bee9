package service

import (
	"context"
	"path"

	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
	"github.com/noah-isme/seat-desk-api/pkg/storage"
)

// AttachmentService issues signed download links for stored attachments and serves them back.
type AttachmentService struct {
	store    attachmentStore
	signer   *storage.SignedURLSigner
	basePath string
	logger   *zap.Logger
}

// NewAttachmentService constructs the service. basePath is the route prefix links are built on.
func NewAttachmentService(store attachmentStore, signer *storage.SignedURLSigner, basePath string, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{store: store, signer: signer, basePath: basePath, logger: logger}
}

func (s *AttachmentService) linkPath(id string, kind models.AttachmentKind) string {
	return path.Join(s.basePath, id, string(kind))
}

// Links returns signed links for the kinds stored for id, or nil when there are none.
func (s *AttachmentService) Links(ctx context.Context, id string) (*models.AttachmentLinks, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load attachments")
	}
	if stored.Empty() {
		return nil, nil
	}
	links := &models.AttachmentLinks{}
	if stored.PhotoURL != "" {
		if links.Photo, _, err = s.signer.Sign(s.linkPath(id, models.AttachmentPhoto)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign attachment link")
		}
	}
	if stored.IDProofURL != "" {
		if links.IDProof, _, err = s.signer.Sign(s.linkPath(id, models.AttachmentIDProof)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign attachment link")
		}
	}
	return links, nil
}

// Decorate attaches signed links to student. Failures are logged and leave the student untouched.
func (s *AttachmentService) Decorate(ctx context.Context, student *models.Student) {
	if s == nil || student == nil {
		return
	}
	links, err := s.Links(ctx, student.ID)
	if err != nil {
		s.logger.Warn("failed to build attachment links", zap.String("student_id", student.ID), zap.Error(err))
		return
	}
	student.Attachments = links
}

// Open verifies a signed link and returns the attachment it points to.
func (s *AttachmentService) Open(ctx context.Context, id string, kind models.AttachmentKind, expires, signature string) (*storage.Blob, error) {
	if kind != models.AttachmentPhoto && kind != models.AttachmentIDProof {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown attachment kind")
	}
	if err := s.signer.Verify(s.linkPath(id, kind), expires, signature); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired link")
	}
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load attachment")
	}
	raw := stored.PhotoURL
	if kind == models.AttachmentIDProof {
		raw = stored.IDProofURL
	}
	if raw == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	blob, err := storage.DecodeDataURL(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored attachment is unreadable")
	}
	return &blob, nil
}
