package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

var (
	// ErrStudentNotFound is returned when an id is absent from the roster.
	ErrStudentNotFound = errors.New("student not found")
	// ErrDuplicateMobile is returned when a mobile number is already registered.
	ErrDuplicateMobile = errors.New("mobile already registered")
	// ErrDuplicateID is returned when inserting an id that already exists.
	ErrDuplicateID = errors.New("student id already exists")
	// ErrNotFound is the generic missing-row error for desk content.
	ErrNotFound = errors.New("record not found")
)

// StorageError reports a persistence failure; the mutation it belongs to did not apply.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// SeatClaimError is raised by the store itself when a write would double-book a seat slot or locker.
type SeatClaimError struct {
	SeatNumber int
	Reason     models.ConflictReason
	Err        error
}

func (e *SeatClaimError) Error() string {
	return fmt.Sprintf("seat %d claim rejected (%s)", e.SeatNumber, e.Reason)
}

func (e *SeatClaimError) Unwrap() error { return e.Err }

// RosterTx is the view of the roster handed to a Mutate callback.
// Writes become visible to other callers only when the callback returns nil.
type RosterTx interface {
	Get(ctx context.Context, id string) (*models.Student, error)
	FindByMobile(ctx context.Context, mobile string) (*models.Student, error)
	ListActiveBySeat(ctx context.Context, seat int) ([]models.Student, error)
	Insert(ctx context.Context, student *models.Student) error
	Replace(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) (bool, error)
	AppendTransaction(ctx context.Context, txn *models.Transaction) error
}

// Roster stores students and the payment ledger.
type Roster interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	FindByMobile(ctx context.Context, mobile string) (*models.Student, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	Mutate(ctx context.Context, fn func(tx RosterTx) error) error
}

// AdmissionStore persists pending admission requests.
type AdmissionStore interface {
	List(ctx context.Context, status models.AdmissionStatus) ([]models.AdmissionRequest, error)
	Get(ctx context.Context, id string) (*models.AdmissionRequest, error)
	Create(ctx context.Context, req *models.AdmissionRequest) error
	UpdateStatus(ctx context.Context, id string, status models.AdmissionStatus) error
	Delete(ctx context.Context, id string) error
}

// WifiStore persists shared WiFi credentials.
type WifiStore interface {
	List(ctx context.Context) ([]models.WifiNetwork, error)
	Create(ctx context.Context, network *models.WifiNetwork) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementStore persists the single banner announcement.
type AnnouncementStore interface {
	Get(ctx context.Context) (*models.Announcement, error)
	Set(ctx context.Context, announcement *models.Announcement) error
}

// SnapshotStore exports and replaces the whole data set.
type SnapshotStore interface {
	Export(ctx context.Context) (*models.Snapshot, error)
	Import(ctx context.Context, snapshot *models.Snapshot) error
}

// checkClaims rejects student when an active peer on the same seat already holds one of its slots or the locker.
func checkClaims(student *models.Student, peers []models.Student) error {
	if !student.IsActive {
		return nil
	}
	for _, peer := range peers {
		if peer.ID == student.ID || !peer.HoldsSeat(student.SeatNumber) {
			continue
		}
		if len(peer.AssignedSlots.Intersect(student.AssignedSlots)) > 0 {
			return &SeatClaimError{SeatNumber: student.SeatNumber, Reason: models.ConflictSlotOverlap}
		}
		if student.LockerRequired && peer.LockerRequired {
			return &SeatClaimError{SeatNumber: student.SeatNumber, Reason: models.ConflictLockerOverlap}
		}
	}
	return nil
}
