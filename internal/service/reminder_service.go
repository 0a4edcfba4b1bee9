package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/pkg/jobs"
	"github.com/noah-isme/seat-desk-api/pkg/mailer"
)

// ReminderJobType is the queue job type for expiry emails.
const ReminderJobType = "membership.expiry_reminder"

type expiringLister interface {
	GetExpiringStudents(ctx context.Context) ([]models.Student, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ReminderPayload is the job body for one expiry email.
type ReminderPayload struct {
	StudentID  string
	FullName   string
	Email      string
	SeatNumber int
	EndDate    models.Date
}

// ReminderService notifies members whose plans are about to end.
type ReminderService struct {
	students expiringLister
	queue    jobEnqueuer
	mailer   mailer.Mailer
	deskName string
	logger   *zap.Logger
	now      func() time.Time
}

// NewReminderService constructs the service.
func NewReminderService(students expiringLister, queue jobEnqueuer, m mailer.Mailer, deskName string, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deskName == "" {
		deskName = "Seat Desk"
	}
	return &ReminderService{students: students, queue: queue, mailer: m, deskName: deskName, logger: logger, now: time.Now}
}

// Register binds the email handler to queue.
func (s *ReminderService) Register(queue *jobs.Queue) {
	queue.Handle(ReminderJobType, s.HandleReminder)
}

// EnqueueReminders queues one email per expiring member with an address and returns how many were queued.
func (s *ReminderService) EnqueueReminders(ctx context.Context) (int, error) {
	students, err := s.students.GetExpiringStudents(ctx)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, student := range students {
		if student.Email == "" {
			continue
		}
		job := jobs.Job{Type: ReminderJobType, Payload: ReminderPayload{
			StudentID:  student.ID,
			FullName:   student.FullName,
			Email:      student.Email,
			SeatNumber: student.SeatNumber,
			EndDate:    student.EndDate,
		}}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to queue expiry reminder", zap.String("student_id", student.ID), zap.Error(err))
			continue
		}
		queued++
	}
	s.logger.Info("expiry reminders queued", zap.Int("expiring", len(students)), zap.Int("queued", queued))
	return queued, nil
}

// HandleReminder sends the email described by job.
func (s *ReminderService) HandleReminder(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ReminderPayload)
	if !ok {
		return fmt.Errorf("unexpected reminder payload %T", job.Payload)
	}
	days := int(payload.EndDate.Sub(models.NewDate(s.now()).Time).Hours() / 24)
	when := fmt.Sprintf("in %d days", days)
	switch days {
	case 0:
		when = "today"
	case 1:
		when = "tomorrow"
	}
	msg := mailer.Message{
		ToName:  payload.FullName,
		ToEmail: payload.Email,
		Subject: fmt.Sprintf("%s: your membership ends %s", s.deskName, when),
		Text: fmt.Sprintf("Hi %s,\n\nYour membership for seat %d ends on %s. Visit the desk to renew and keep your slots.\n\n%s",
			payload.FullName, payload.SeatNumber, payload.EndDate, s.deskName),
	}
	return s.mailer.Send(ctx, msg)
}
