package repository

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/pkg/storage"
)

// AttachmentStore keeps photo and ID proof payloads outside the roster.
type AttachmentStore interface {
	Put(ctx context.Context, id string, attachments models.Attachments) error
	Get(ctx context.Context, id string) (models.Attachments, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) (map[string]models.Attachments, error)
}

// FileAttachmentStore writes one file per attachment kind under <id>/.
// Images are downsized and stored as JPEG data URLs; other payloads are kept as uploaded.
type FileAttachmentStore struct {
	files    *storage.LocalStorage
	maxWidth int
}

// NewFileAttachmentStore creates the store rooted at dir.
func NewFileAttachmentStore(dir string, maxWidth int) (*FileAttachmentStore, error) {
	files, err := storage.NewLocalStorage(dir)
	if err != nil {
		return nil, err
	}
	return &FileAttachmentStore{files: files, maxWidth: maxWidth}, nil
}

func attachmentName(id string, kind models.AttachmentKind) string {
	return path.Join(id, string(kind))
}

// Put stores the non-empty payloads of attachments. Empty fields leave existing files alone.
func (s *FileAttachmentStore) Put(_ context.Context, id string, attachments models.Attachments) error {
	for kind, raw := range map[models.AttachmentKind]string{
		models.AttachmentPhoto:   attachments.PhotoURL,
		models.AttachmentIDProof: attachments.IDProofURL,
	} {
		if raw == "" {
			continue
		}
		blob, err := storage.DecodeDataURL(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		blob, err = storage.CompressImage(blob, s.maxWidth)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		if err := s.files.Save(attachmentName(id, kind), []byte(storage.EncodeDataURL(blob))); err != nil {
			return storageErr("save attachment", err)
		}
	}
	return nil
}

// Get returns stored payloads as data URLs; missing kinds are empty.
func (s *FileAttachmentStore) Get(_ context.Context, id string) (models.Attachments, error) {
	var out models.Attachments
	photo, err := s.read(id, models.AttachmentPhoto)
	if err != nil {
		return out, err
	}
	proof, err := s.read(id, models.AttachmentIDProof)
	if err != nil {
		return out, err
	}
	out.PhotoURL, out.IDProofURL = photo, proof
	return out, nil
}

func (s *FileAttachmentStore) read(id string, kind models.AttachmentKind) (string, error) {
	raw, err := s.files.Read(attachmentName(id, kind))
	if errors.Is(err, storage.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", storageErr("read attachment", err)
	}
	return string(raw), nil
}

// Delete removes every attachment of id. Missing ids are ignored.
func (s *FileAttachmentStore) Delete(_ context.Context, id string) error {
	if err := s.files.Delete(id); err != nil {
		return storageErr("delete attachment", err)
	}
	return nil
}

// List returns the attachments of every id that has at least one payload.
func (s *FileAttachmentStore) List(ctx context.Context) (map[string]models.Attachments, error) {
	ids, err := s.files.ListDirs()
	if err != nil {
		return nil, storageErr("list attachments", err)
	}
	out := make(map[string]models.Attachments, len(ids))
	for _, id := range ids {
		a, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !a.Empty() {
			out[id] = a
		}
	}
	return out, nil
}
