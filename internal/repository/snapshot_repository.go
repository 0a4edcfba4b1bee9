package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

// SnapshotRepository exports and restores the SQL data set in one piece.
type SnapshotRepository struct {
	db            *sqlx.DB
	announcements *AnnouncementRepository
}

// NewSnapshotRepository creates the repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, announcements: NewAnnouncementRepository(db)}
}

// Export reads every table into a snapshot.
func (r *SnapshotRepository) Export(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	if err := r.db.SelectContext(ctx, &snap.Students, fmt.Sprintf("SELECT %s FROM students ORDER BY seat_number ASC, full_name ASC", studentColumns)); err != nil {
		return nil, fmt.Errorf("export students: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Transactions, fmt.Sprintf("SELECT %s FROM transactions ORDER BY date ASC, id ASC", transactionColumns)); err != nil {
		return nil, fmt.Errorf("export transactions: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.AdmissionRequests, fmt.Sprintf("SELECT %s FROM admission_requests ORDER BY request_date ASC", admissionColumns)); err != nil {
		return nil, fmt.Errorf("export admission requests: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.WifiNetworks, "SELECT id, ssid, password FROM wifi_networks ORDER BY ssid ASC"); err != nil {
		return nil, fmt.Errorf("export wifi networks: %w", err)
	}
	announcement, err := r.announcements.Get(ctx)
	if err != nil {
		return nil, err
	}
	if announcement.Message != "" || announcement.IsActive {
		snap.Announcement = announcement
	}
	return snap, nil
}

// Import replaces every table with the snapshot contents inside one transaction.
func (r *SnapshotRepository) Import(ctx context.Context, snapshot *models.Snapshot) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("begin import", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"student_slots", "seat_lockers", "transactions", "students", "admission_requests", "wifi_networks"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return storageErr("clear "+table, err)
		}
	}
	for i := range snapshot.Students {
		if err = insertStudent(ctx, tx, &snapshot.Students[i]); err != nil {
			return err
		}
	}
	for i := range snapshot.Transactions {
		if err = insertTransaction(ctx, tx, &snapshot.Transactions[i]); err != nil {
			return err
		}
	}
	for i := range snapshot.AdmissionRequests {
		if err = insertAdmission(ctx, tx, &snapshot.AdmissionRequests[i]); err != nil {
			return err
		}
	}
	for i := range snapshot.WifiNetworks {
		if err = insertWifi(ctx, tx, &snapshot.WifiNetworks[i]); err != nil {
			return err
		}
	}
	if err = replaceAnnouncement(ctx, tx, snapshot.Announcement); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return storageErr("commit import", err)
	}
	return nil
}
