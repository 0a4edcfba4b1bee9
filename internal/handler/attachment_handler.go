package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/pkg/response"
	"github.com/noah-isme/seat-desk-api/pkg/storage"
)

type attachmentOpener interface {
	Open(ctx context.Context, id string, kind models.AttachmentKind, expires, signature string) (*storage.Blob, error)
}

// AttachmentHandler serves signed photo and ID proof downloads.
type AttachmentHandler struct {
	attachments attachmentOpener
}

// NewAttachmentHandler constructs AttachmentHandler.
func NewAttachmentHandler(attachments attachmentOpener) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Download godoc
// @Summary Fetch a member attachment through a signed link
// @Tags Attachments
// @Produce octet-stream
// @Param student_id path string true "Student ID"
// @Param kind path string true "photo or id_proof"
// @Param expires query string true "Expiry (unix seconds)"
// @Param signature query string true "HMAC signature"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attachments/{student_id}/{kind} [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	blob, err := h.attachments.Open(
		c.Request.Context(),
		c.Param("student_id"),
		models.AttachmentKind(c.Param("kind")),
		c.Query("expires"),
		c.Query("signature"),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}
