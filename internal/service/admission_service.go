package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/repository"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
)

type studentAdmitter interface {
	AddStudent(ctx context.Context, req StudentRequest) (*models.Student, error)
}

// AdmissionRequestPayload is the public self-service application form.
type AdmissionRequestPayload struct {
	FullName       string   `json:"full_name" validate:"required,max=200"`
	Mobile         string   `json:"mobile" validate:"required,max=32"`
	Email          string   `json:"email" validate:"omitempty,email"`
	Address        string   `json:"address"`
	ParentName     string   `json:"parent_name"`
	ParentMobile   string   `json:"parent_mobile"`
	Gender         string   `json:"gender"`
	IDProofType    string   `json:"id_proof_type"`
	PlanType       string   `json:"plan_type" validate:"required,plan"`
	PreferredSlots []string `json:"preferred_slots" validate:"omitempty,dive,slot"`
	LockerRequired bool     `json:"locker_required"`
	PhotoURL       string   `json:"photo_url"`
	IDProofURL     string   `json:"id_proof_url"`
}

// ApproveAdmissionRequest carries the seat assignment chosen by the admin.
type ApproveAdmissionRequest struct {
	SeatNumber     int         `json:"seat_number" validate:"required,min=1"`
	AssignedSlots  []string    `json:"assigned_slots" validate:"omitempty,dive,slot"`
	Duration       int         `json:"duration" validate:"required,duration"`
	StartDate      models.Date `json:"start_date"`
	Password       string      `json:"password" validate:"required,min=4,max=72"`
	AmountPaid     *int64      `json:"amount_paid" validate:"omitempty,min=0"`
	PaymentMode    string      `json:"payment_mode" validate:"omitempty,payment_mode"`
	LockerRequired *bool       `json:"locker_required"`
}

// AdmissionService manages pending applications and promotes them into the roster.
type AdmissionService struct {
	repo        repository.AdmissionStore
	attachments attachmentStore
	admitter    studentAdmitter
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAdmissionService constructs the service.
func NewAdmissionService(repo repository.AdmissionStore, attachments attachmentStore, admitter studentAdmitter, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AdmissionService{repo: repo, attachments: attachments, admitter: admitter, validator: validate, logger: logger, now: time.Now}
	mustRegisterSeatValidations(svc.validator)
	return svc
}

// Submit stores a new pending application.
func (s *AdmissionService) Submit(ctx context.Context, payload AdmissionRequestPayload) (*models.AdmissionRequest, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}
	plan, _ := models.ParsePlanType(payload.PlanType)
	slots, err := models.ParseSlots(payload.PreferredSlots)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if len(slots) > plan.RequiredSlotCount() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "too many preferred slots for plan")
	}

	req := &models.AdmissionRequest{
		ID:             uuid.NewString(),
		FullName:       strings.TrimSpace(payload.FullName),
		Mobile:         strings.TrimSpace(payload.Mobile),
		Email:          strings.TrimSpace(payload.Email),
		Address:        payload.Address,
		ParentName:     payload.ParentName,
		ParentMobile:   payload.ParentMobile,
		Gender:         payload.Gender,
		IDProofType:    payload.IDProofType,
		PlanType:       plan,
		PreferredSlots: slots,
		LockerRequired: payload.LockerRequired,
		Status:         models.AdmissionPending,
		RequestDate:    s.now().UTC(),
	}
	if uploads := uploadsFrom(payload.PhotoURL, payload.IDProofURL); s.attachments != nil && !uploads.Empty() {
		if err := s.attachments.Put(ctx, req.ID, uploads); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store attachments")
		}
	}
	if err := s.repo.Create(ctx, req); err != nil {
		if s.attachments != nil {
			_ = s.attachments.Delete(ctx, req.ID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save admission request")
	}
	s.logger.Info("admission request received", zap.String("request_id", req.ID), zap.String("plan", string(plan)))
	return req, nil
}

// List returns applications filtered by status; an empty status returns all.
func (s *AdmissionService) List(ctx context.Context, status string) ([]models.AdmissionRequest, error) {
	filter := models.AdmissionStatus(strings.ToUpper(strings.TrimSpace(status)))
	switch filter {
	case "", models.AdmissionPending, models.AdmissionApproved, models.AdmissionRejected:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown admission status")
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admission requests")
	}
	if items == nil {
		items = []models.AdmissionRequest{}
	}
	return items, nil
}

func (s *AdmissionService) pending(ctx context.Context, id string) (*models.AdmissionRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admission request")
	}
	if req.Status != models.AdmissionPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admission request already processed")
	}
	return req, nil
}

// Approve admits the applicant through the seat allocator and removes the request.
func (s *AdmissionService) Approve(ctx context.Context, id string, approval ApproveAdmissionRequest) (*models.Student, error) {
	if err := s.validator.Struct(approval); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}
	req, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	slots := approval.AssignedSlots
	if len(slots) == 0 {
		slots = req.PreferredSlots.Strings()
	}
	locker := req.LockerRequired
	if approval.LockerRequired != nil {
		locker = *approval.LockerRequired
	}
	start := approval.StartDate
	if start.IsZero() {
		start = models.NewDate(s.now())
	}
	studentReq := StudentRequest{
		FullName:       req.FullName,
		Mobile:         req.Mobile,
		Email:          req.Email,
		Password:       approval.Password,
		Address:        req.Address,
		ParentName:     req.ParentName,
		ParentMobile:   req.ParentMobile,
		Gender:         req.Gender,
		IDProofType:    req.IDProofType,
		SeatNumber:     approval.SeatNumber,
		LockerRequired: locker,
		PlanType:       string(req.PlanType),
		Duration:       approval.Duration,
		StartDate:      start,
		AmountPaid:     approval.AmountPaid,
		AssignedSlots:  slots,
		PaymentMode:    approval.PaymentMode,
	}
	if s.attachments != nil {
		stored, err := s.attachments.Get(ctx, req.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load attachments")
		}
		studentReq.PhotoURL, studentReq.IDProofURL = stored.PhotoURL, stored.IDProofURL
	}

	student, err := s.admitter.AddStudent(ctx, studentReq)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, req.ID); err != nil {
		s.logger.Warn("failed to remove approved admission request", zap.String("request_id", req.ID), zap.Error(err))
	}
	if s.attachments != nil {
		if err := s.attachments.Delete(ctx, req.ID); err != nil {
			s.logger.Warn("failed to remove admission attachments", zap.String("request_id", req.ID), zap.Error(err))
		}
	}
	s.logger.Info("admission request approved", zap.String("request_id", req.ID), zap.String("student_id", student.ID))
	return student, nil
}

// Reject marks a pending request as rejected.
func (s *AdmissionService) Reject(ctx context.Context, id string) error {
	if _, err := s.pending(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, models.AdmissionRejected); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject admission request")
	}
	return nil
}

// Delete removes a request and its attachments.
func (s *AdmissionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete admission request")
	}
	if s.attachments != nil {
		if err := s.attachments.Delete(ctx, id); err != nil {
			return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete attachments")
		}
	}
	return nil
}
