package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seat-desk-api/internal/models"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
	"github.com/noah-isme/seat-desk-api/pkg/response"
)

type backupService interface {
	Export(ctx context.Context) (*models.Snapshot, error)
	Import(ctx context.Context, snapshot *models.Snapshot) error
}

type inactiveCleaner interface {
	CleanupInactive(ctx context.Context, retention time.Duration) (int, error)
}

// CleanupRequest optionally overrides the retention period in days.
type CleanupRequest struct {
	RetentionDays int `json:"retention_days"`
}

// BackupHandler exposes full data export, restore and maintenance.
type BackupHandler struct {
	backups backupService
	cleaner inactiveCleaner
	now     func() time.Time
}

// NewBackupHandler constructs BackupHandler.
func NewBackupHandler(backups backupService, cleaner inactiveCleaner) *BackupHandler {
	return &BackupHandler{backups: backups, cleaner: cleaner, now: time.Now}
}

// Export godoc
// @Summary Download a full backup
// @Tags Backup
// @Produce json
// @Success 200 {object} models.Snapshot
// @Router /backup [get]
func (h *BackupHandler) Export(c *gin.Context) {
	snapshot, err := h.backups.Export(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=seat-desk-backup-%s.json", h.now().Format("20060102")))
	c.JSON(http.StatusOK, snapshot)
}

// Import godoc
// @Summary Replace every record with a backup
// @Tags Backup
// @Accept json
// @Produce json
// @Param payload body models.Snapshot true "Backup"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /backup [post]
func (h *BackupHandler) Import(c *gin.Context) {
	var snapshot models.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid backup payload"))
		return
	}
	if err := h.backups.Import(c.Request.Context(), &snapshot); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"students":     len(snapshot.Students),
		"transactions": len(snapshot.Transactions),
	})
}

// Cleanup godoc
// @Summary Purge long-inactive members
// @Tags Backup
// @Accept json
// @Produce json
// @Param payload body CleanupRequest false "Retention override"
// @Success 200 {object} response.Envelope
// @Router /maintenance/cleanup [post]
func (h *BackupHandler) Cleanup(c *gin.Context) {
	var req CleanupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cleanup payload"))
			return
		}
	}
	if req.RetentionDays < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "retention_days must not be negative"))
		return
	}
	removed, err := h.cleaner.CleanupInactive(c.Request.Context(), time.Duration(req.RetentionDays)*24*time.Hour)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"removed": removed})
}
