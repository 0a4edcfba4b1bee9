package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

// announcementRowID is the key of the single announcement row.
const announcementRowID = 1

// AnnouncementRepository persists the banner announcement.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Get returns the announcement, or an empty inactive one when none was saved.
func (r *AnnouncementRepository) Get(ctx context.Context) (*models.Announcement, error) {
	var a models.Announcement
	query := r.db.Rebind("SELECT message, is_active, updated_at FROM announcements WHERE id = ?")
	if err := r.db.GetContext(ctx, &a, query, announcementRowID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Announcement{}, nil
		}
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return &a, nil
}

// Set replaces the announcement.
func (r *AnnouncementRepository) Set(ctx context.Context, announcement *models.Announcement) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin announcement tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = replaceAnnouncement(ctx, tx, announcement); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit announcement: %w", err)
	}
	return nil
}

func replaceAnnouncement(ctx context.Context, exec sqlx.ExtContext, announcement *models.Announcement) error {
	if _, err := exec.ExecContext(ctx, exec.Rebind("DELETE FROM announcements WHERE id = ?"), announcementRowID); err != nil {
		return fmt.Errorf("clear announcement: %w", err)
	}
	if announcement == nil {
		return nil
	}
	query := exec.Rebind("INSERT INTO announcements (id, message, is_active, updated_at) VALUES (?, ?, ?, ?)")
	if _, err := exec.ExecContext(ctx, query, announcementRowID, announcement.Message, announcement.IsActive, announcement.UpdatedAt); err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}
