package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

type studentReader interface {
	GetStudent(ctx context.Context, id string) (*models.Student, error)
}

type wifiLister interface {
	List(ctx context.Context) ([]models.WifiNetwork, error)
}

type announcementReader interface {
	Get(ctx context.Context) (*models.Announcement, error)
}

type transactionLister interface {
	List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
}

// PortalService composes the member landing page.
type PortalService struct {
	students      studentReader
	wifi          wifiLister
	announcements announcementReader
	transactions  transactionLister
	attachments   *AttachmentService
	logger        *zap.Logger
	now           func() time.Time
}

// NewPortalService constructs the service. attachments may be nil.
func NewPortalService(students studentReader, wifi wifiLister, announcements announcementReader, transactions transactionLister, attachments *AttachmentService, logger *zap.Logger) *PortalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalService{
		students:      students,
		wifi:          wifi,
		announcements: announcements,
		transactions:  transactions,
		attachments:   attachments,
		logger:        logger,
		now:           time.Now,
	}
}

// View returns the signed-in member's record with desk information.
func (s *PortalService) View(ctx context.Context, studentID string) (*models.PortalView, error) {
	student, err := s.students.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	s.attachments.Decorate(ctx, student)

	networks, err := s.wifi.List(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.transactions.List(ctx, models.TransactionFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}

	view := &models.PortalView{
		Student:      *student,
		Slots:        make([]models.Slot, 0, len(student.AssignedSlots)),
		WifiNetworks: networks,
		DaysLeft:     daysLeft(models.NewDate(s.now()), student.EndDate),
		Transactions: txns,
	}
	for _, slot := range models.AllSlots {
		if student.AssignedSlots.Contains(slot.ID) {
			view.Slots = append(view.Slots, slot)
		}
	}

	announcement, err := s.announcements.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to load announcement for portal", zap.Error(err))
	} else if announcement.IsActive {
		view.Announcement = announcement
	}
	return view, nil
}

func daysLeft(today, end models.Date) int {
	if end.IsZero() || end.Before(today.Time) {
		return 0
	}
	return int(end.Sub(today.Time).Hours() / 24)
}
