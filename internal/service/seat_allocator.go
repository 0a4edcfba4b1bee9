package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/repository"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
)

// minAttachmentLength filters out placeholder values sent by forms instead of real uploads.
const minAttachmentLength = 50

// dashboardCachePattern matches every cached dashboard payload.
const dashboardCachePattern = "dashboard:*"

type attachmentStore interface {
	Put(ctx context.Context, id string, attachments models.Attachments) error
	Get(ctx context.Context, id string) (models.Attachments, error)
	Delete(ctx context.Context, id string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, payload interface{}) error
}

// StudentRequest is the admission and edit payload for a roster entry.
type StudentRequest struct {
	FullName       string      `json:"full_name" validate:"required,max=200"`
	Mobile         string      `json:"mobile" validate:"required,max=32"`
	Email          string      `json:"email" validate:"omitempty,email"`
	Password       string      `json:"password" validate:"omitempty,min=4,max=72"`
	Address        string      `json:"address"`
	ParentName     string      `json:"parent_name"`
	ParentMobile   string      `json:"parent_mobile"`
	Gender         string      `json:"gender"`
	IDProofType    string      `json:"id_proof_type"`
	SeatNumber     int         `json:"seat_number" validate:"required,min=1"`
	LockerRequired bool        `json:"locker_required"`
	PlanType       string      `json:"plan_type" validate:"required,plan"`
	Duration       int         `json:"duration" validate:"required,duration"`
	StartDate      models.Date `json:"start_date"`
	AmountPaid     *int64      `json:"amount_paid" validate:"omitempty,min=0"`
	AssignedSlots  []string    `json:"assigned_slots" validate:"required,dive,slot"`
	PaymentMode    string      `json:"payment_mode" validate:"omitempty,payment_mode"`
	IsActive       *bool       `json:"is_active"`
	PhotoURL       string      `json:"photo_url"`
	IDProofURL     string      `json:"id_proof_url"`
}

// SeatAllocatorConfig holds the seat grid and billing settings.
type SeatAllocatorConfig struct {
	TotalSeats          int
	LockerPricePerMonth int64
	ExpiryWindow        time.Duration
	InactiveRetention   time.Duration
}

// SeatAllocator gates every roster change through the slot and locker invariants and derives the seat grid.
type SeatAllocator struct {
	roster      repository.Roster
	attachments attachmentStore
	events      eventPublisher
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	locks       *seatLocks
	prices      models.PriceTable
	cfg         SeatAllocatorConfig
	now         func() time.Time
	newID       func() string
}

// NewSeatAllocator constructs the engine. attachments, events, cache and metrics are optional.
func NewSeatAllocator(roster repository.Roster, attachments attachmentStore, events eventPublisher, cache *CacheService, metrics *MetricsService, cfg SeatAllocatorConfig, validate *validator.Validate, logger *zap.Logger) *SeatAllocator {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TotalSeats <= 0 {
		cfg.TotalSeats = models.DefaultTotalSeats
	}
	if cfg.LockerPricePerMonth <= 0 {
		cfg.LockerPricePerMonth = models.LockerPricePerMonth
	}
	if cfg.ExpiryWindow <= 0 {
		cfg.ExpiryWindow = 5 * 24 * time.Hour
	}
	if cfg.InactiveRetention <= 0 {
		cfg.InactiveRetention = 30 * 24 * time.Hour
	}
	svc := &SeatAllocator{
		roster:      roster,
		attachments: attachments,
		events:      events,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		locks:       newSeatLocks(),
		prices:      models.DefaultPriceTable,
		cfg:         cfg,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	mustRegisterSeatValidations(svc.validator)
	return svc
}

// TotalSeats returns the size of the seat grid.
func (s *SeatAllocator) TotalSeats() int { return s.cfg.TotalSeats }

// RequiredSlotCount returns how many slots plan must hold.
func (s *SeatAllocator) RequiredSlotCount(plan models.PlanType) int {
	return plan.RequiredSlotCount()
}

// Quote returns the fee for a membership.
func (s *SeatAllocator) Quote(plan models.PlanType, duration models.PlanDuration, locker bool) int64 {
	return s.prices.Quote(plan, duration, locker, s.cfg.LockerPricePerMonth)
}

// CheckSlotAvailability reports whether none of slots is held on seat by an active student other than excludeID.
func (s *SeatAllocator) CheckSlotAvailability(ctx context.Context, seat int, slots models.Slots, excludeID string) (bool, error) {
	occupants, err := s.occupants(ctx, seat)
	if err != nil {
		return false, err
	}
	return slotConflict(seat, occupants, slots, excludeID) == nil, nil
}

// CheckLockerAvailability reports whether the locker of seat is free for anyone but excludeID.
func (s *SeatAllocator) CheckLockerAvailability(ctx context.Context, seat int, excludeID string) (bool, error) {
	occupants, err := s.occupants(ctx, seat)
	if err != nil {
		return false, err
	}
	return lockerConflict(seat, occupants, excludeID) == nil, nil
}

// Availability answers both checks in one read.
func (s *SeatAllocator) Availability(ctx context.Context, seat int, rawSlots []string, excludeID string) (*models.SeatAvailability, error) {
	if err := s.checkSeatRange(seat); err != nil {
		return nil, err
	}
	slots, err := models.ParseSlots(rawSlots)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	occupants, err := s.occupants(ctx, seat)
	if err != nil {
		return nil, err
	}
	return &models.SeatAvailability{
		SeatNumber:      seat,
		RequestedSlots:  slots,
		SlotsAvailable:  slotConflict(seat, occupants, slots, excludeID) == nil,
		LockerAvailable: lockerConflict(seat, occupants, excludeID) == nil,
	}, nil
}

func (s *SeatAllocator) occupants(ctx context.Context, seat int) ([]models.Student, error) {
	active := true
	students, _, err := s.roster.List(ctx, models.StudentFilter{Active: &active, Seat: seat})
	if err != nil {
		return nil, s.storeError(err, "failed to load seat occupants")
	}
	return students, nil
}

// slotConflict returns the collision between slots and the active occupants of seat, skipping excludeID.
func slotConflict(seat int, occupants []models.Student, slots models.Slots, excludeID string) *models.SeatConflictError {
	var taken models.Slots
	var holders []string
	for _, occupant := range occupants {
		if occupant.ID == excludeID || !occupant.HoldsSeat(seat) {
			continue
		}
		if overlap := occupant.AssignedSlots.Intersect(slots); len(overlap) > 0 {
			taken = append(taken, overlap...)
			holders = append(holders, occupant.ID)
		}
	}
	if len(taken) == 0 {
		return nil
	}
	taken.Sort()
	return &models.SeatConflictError{Reason: models.ConflictSlotOverlap, SeatNumber: seat, Slots: taken, HolderIDs: holders}
}

func lockerConflict(seat int, occupants []models.Student, excludeID string) *models.SeatConflictError {
	for _, occupant := range occupants {
		if occupant.ID == excludeID || !occupant.HoldsSeat(seat) {
			continue
		}
		if occupant.LockerRequired {
			return &models.SeatConflictError{Reason: models.ConflictLockerOverlap, SeatNumber: seat, HolderIDs: []string{occupant.ID}}
		}
	}
	return nil
}

// checkInvariants runs the slot check and then the locker check for an active student.
func checkInvariants(student *models.Student, occupants []models.Student) *models.SeatConflictError {
	if !student.IsActive {
		return nil
	}
	if conflict := slotConflict(student.SeatNumber, occupants, student.AssignedSlots, student.ID); conflict != nil {
		return conflict
	}
	if student.LockerRequired {
		return lockerConflict(student.SeatNumber, occupants, student.ID)
	}
	return nil
}

func (s *SeatAllocator) checkSeatRange(seat int) error {
	if seat < 1 || seat > s.cfg.TotalSeats {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("seat_number must be between 1 and %d", s.cfg.TotalSeats))
	}
	return nil
}

// buildStudent validates req and maps it onto base, deriving endDate and the fee when omitted.
func (s *SeatAllocator) buildStudent(req StudentRequest, base models.Student) (models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Student{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.checkSeatRange(req.SeatNumber); err != nil {
		return models.Student{}, err
	}
	if req.StartDate.IsZero() {
		return models.Student{}, appErrors.Clone(appErrors.ErrValidation, "start_date is required")
	}
	plan, err := models.ParsePlanType(req.PlanType)
	if err != nil {
		return models.Student{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	slots, err := models.ParseSlots(req.AssignedSlots)
	if err != nil {
		return models.Student{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if len(slots) != plan.RequiredSlotCount() {
		return models.Student{}, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("plan %s requires exactly %d slot(s)", plan, plan.RequiredSlotCount())),
			map[string]interface{}{"required_slots": plan.RequiredSlotCount(), "assigned_slots": len(slots)},
		)
	}
	mode, err := models.ParsePaymentMode(req.PaymentMode)
	if err != nil {
		return models.Student{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	duration := models.PlanDuration(req.Duration)

	student := base.Clone()
	student.FullName = strings.TrimSpace(req.FullName)
	student.Mobile = strings.TrimSpace(req.Mobile)
	student.Email = strings.TrimSpace(req.Email)
	student.Address = req.Address
	student.ParentName = req.ParentName
	student.ParentMobile = req.ParentMobile
	student.Gender = req.Gender
	student.IDProofType = req.IDProofType
	student.SeatNumber = req.SeatNumber
	student.LockerRequired = req.LockerRequired
	student.PlanType = plan
	student.Duration = duration
	student.StartDate = models.NewDate(req.StartDate.Time)
	student.EndDate = duration.AddTo(student.StartDate)
	student.AssignedSlots = slots
	student.PaymentMode = mode
	if req.AmountPaid != nil {
		student.AmountPaid = *req.AmountPaid
	} else {
		student.AmountPaid = s.Quote(plan, duration, req.LockerRequired)
	}
	if req.IsActive != nil {
		student.IsActive = *req.IsActive
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.Student{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		student.PasswordHash = string(hash)
	}
	return student, nil
}

// uploadsFrom keeps only payloads long enough to be real uploads.
func uploadsFrom(photo, idProof string) models.Attachments {
	var out models.Attachments
	if len(photo) > minAttachmentLength {
		out.PhotoURL = photo
	}
	if len(idProof) > minAttachmentLength {
		out.IDProofURL = idProof
	}
	return out
}

// AddStudent admits a new student. Nothing is written when a check fails.
func (s *SeatAllocator) AddStudent(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password is required")
	}
	student, err := s.buildStudent(req, models.Student{ID: s.newID(), IsActive: true})
	if err != nil {
		s.metrics.RecordAllocation("add", "invalid")
		return nil, err
	}
	uploads := uploadsFrom(req.PhotoURL, req.IDProofURL)
	return s.admit(ctx, student, uploads)
}

// admit persists a fully built student together with its ADMISSION transaction.
func (s *SeatAllocator) admit(ctx context.Context, student models.Student, uploads models.Attachments) (*models.Student, error) {
	release := s.locks.lock(student.SeatNumber)
	defer release()

	txn := models.NewTransaction(s.newID(), models.TransactionAdmission, student)
	storedUploads := false
	err := s.roster.Mutate(ctx, func(tx repository.RosterTx) error {
		occupants, err := tx.ListActiveBySeat(ctx, student.SeatNumber)
		if err != nil {
			return err
		}
		if conflict := checkInvariants(&student, occupants); conflict != nil {
			return conflict
		}
		if err := tx.Insert(ctx, &student); err != nil {
			return err
		}
		if err := tx.AppendTransaction(ctx, &txn); err != nil {
			return err
		}
		if s.attachments != nil && !uploads.Empty() {
			storedUploads = true
			return s.attachments.Put(ctx, student.ID, uploads)
		}
		return nil
	})
	if err != nil {
		if storedUploads {
			if derr := s.attachments.Delete(ctx, student.ID); derr != nil {
				s.logger.Warn("failed to remove attachments of rejected admission", zap.String("student_id", student.ID), zap.Error(derr))
			}
		}
		return nil, s.mutationError("add", err, "failed to add student")
	}

	s.afterCommit(ctx, "add", &txn)
	s.logger.Info("student admitted",
		zap.String("student_id", student.ID),
		zap.Int("seat", student.SeatNumber),
		zap.Strings("slots", student.AssignedSlots.Strings()),
		zap.Bool("locker", student.LockerRequired),
	)
	return &student, nil
}

// UpdateStudent replaces the record of id. A changed startDate is a renewal and appends a RENEWAL transaction.
func (s *SeatAllocator) UpdateStudent(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	uploads := uploadsFrom(req.PhotoURL, req.IDProofURL)
	return s.replace(ctx, id, req.SeatNumber, uploads, func(prior models.Student) (models.Student, error) {
		return s.buildStudent(req, prior)
	})
}

// SetActive activates or deactivates a student. Reactivation re-checks the seat invariants.
func (s *SeatAllocator) SetActive(ctx context.Context, id string, active bool) (*models.Student, error) {
	return s.replace(ctx, id, 0, models.Attachments{}, func(prior models.Student) (models.Student, error) {
		next := prior.Clone()
		next.IsActive = active
		return next, nil
	})
}

func (s *SeatAllocator) replace(ctx context.Context, id string, targetSeat int, uploads models.Attachments, build func(prior models.Student) (models.Student, error)) (*models.Student, error) {
	current, err := s.roster.Get(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "failed to load student")
	}
	seats := []int{current.SeatNumber}
	if targetSeat > 0 {
		seats = append(seats, targetSeat)
	}
	release := s.locks.lock(seats...)
	defer release()

	var (
		updated  models.Student
		prior    models.Student
		txn      *models.Transaction
		previous models.Attachments
	)
	storedUploads := false
	err = s.roster.Mutate(ctx, func(tx repository.RosterTx) error {
		existing, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		prior = *existing
		if updated, err = build(prior); err != nil {
			return err
		}
		updated.ID = prior.ID
		updated.CreatedAt = prior.CreatedAt

		if updated.IsActive {
			occupants, err := tx.ListActiveBySeat(ctx, updated.SeatNumber)
			if err != nil {
				return err
			}
			if conflict := checkInvariants(&updated, occupants); conflict != nil {
				return conflict
			}
		}
		if err := tx.Replace(ctx, &updated); err != nil {
			return err
		}
		if !updated.StartDate.Equal(prior.StartDate) {
			renewal := models.NewTransaction(s.newID(), models.TransactionRenewal, updated)
			if err := tx.AppendTransaction(ctx, &renewal); err != nil {
				return err
			}
			txn = &renewal
		}
		if s.attachments != nil && !uploads.Empty() {
			if previous, err = s.attachments.Get(ctx, id); err != nil {
				return err
			}
			storedUploads = true
			return s.attachments.Put(ctx, id, uploads)
		}
		return nil
	})
	if err != nil {
		if storedUploads && !previous.Empty() {
			if rerr := s.attachments.Put(ctx, id, previous); rerr != nil {
				s.logger.Warn("failed to restore attachments", zap.String("student_id", id), zap.Error(rerr))
			}
		}
		return nil, s.mutationError("update", err, "failed to update student")
	}

	if txn == nil && isSeatTransfer(prior, updated) {
		s.logger.Info("seat transfer without billing event",
			zap.String("student_id", id),
			zap.Int("from_seat", prior.SeatNumber),
			zap.Int("to_seat", updated.SeatNumber),
			zap.Strings("from_slots", prior.AssignedSlots.Strings()),
			zap.Strings("to_slots", updated.AssignedSlots.Strings()),
			zap.String("from_plan", string(prior.PlanType)),
			zap.String("to_plan", string(updated.PlanType)),
		)
	}
	s.afterCommit(ctx, "update", txn)
	return &updated, nil
}

func isSeatTransfer(prior, updated models.Student) bool {
	if prior.SeatNumber != updated.SeatNumber || prior.PlanType != updated.PlanType {
		return true
	}
	return strings.Join(prior.AssignedSlots.Strings(), ",") != strings.Join(updated.AssignedSlots.Strings(), ",")
}

// DeleteStudent removes id and its attachments. Unknown ids are a no-op.
func (s *SeatAllocator) DeleteStudent(ctx context.Context, id string) error {
	current, err := s.roster.Get(ctx, id)
	if errors.Is(err, repository.ErrStudentNotFound) {
		return nil
	}
	if err != nil {
		return s.storeError(err, "failed to load student")
	}
	release := s.locks.lock(current.SeatNumber)
	defer release()

	var deleted bool
	err = s.roster.Mutate(ctx, func(tx repository.RosterTx) error {
		var err error
		deleted, err = tx.Delete(ctx, id)
		return err
	})
	if err != nil {
		return s.mutationError("delete", err, "failed to delete student")
	}
	if s.attachments != nil {
		if err := s.attachments.Delete(ctx, id); err != nil {
			return s.storeError(err, "failed to delete attachments")
		}
	}
	if deleted {
		s.afterCommit(ctx, "delete", nil)
		s.logger.Info("student deleted", zap.String("student_id", id), zap.Int("seat", current.SeatNumber))
	}
	return nil
}

// GetStudent returns one roster entry.
func (s *SeatAllocator) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.roster.Get(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "failed to load student")
	}
	return student, nil
}

// ListStudents returns a page of the roster.
func (s *SeatAllocator) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 200 {
		filter.PageSize = 50
	}
	students, total, err := s.roster.List(ctx, filter)
	if err != nil {
		return nil, nil, s.storeError(err, "failed to list students")
	}
	return students, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetSeatsStatus derives seats 1..N from the active roster. It is never cached.
func (s *SeatAllocator) GetSeatsStatus(ctx context.Context) ([]models.Seat, error) {
	active := true
	students, _, err := s.roster.List(ctx, models.StudentFilter{Active: &active})
	if err != nil {
		return nil, s.storeError(err, "failed to load roster")
	}

	seats := make([]models.Seat, s.cfg.TotalSeats)
	for i := range seats {
		seats[i] = models.Seat{Number: i + 1, Occupants: []models.Student{}}
	}
	for _, student := range students {
		if student.SeatNumber < 1 || student.SeatNumber > s.cfg.TotalSeats {
			continue
		}
		seat := &seats[student.SeatNumber-1]
		seat.Occupants = append(seat.Occupants, student)
		if student.LockerRequired {
			seat.IsLockerTaken = true
		}
	}

	occupied := 0
	for i := range seats {
		seat := &seats[i]
		sort.SliceStable(seat.Occupants, func(a, b int) bool {
			return firstSlot(seat.Occupants[a]) < firstSlot(seat.Occupants[b])
		})
		seat.FreeSlots = models.Slots{}
		for _, slot := range models.AllSlots {
			free := true
			for _, occupant := range seat.Occupants {
				if occupant.AssignedSlots.Contains(slot.ID) {
					free = false
					break
				}
			}
			if free {
				seat.FreeSlots = append(seat.FreeSlots, slot.ID)
			}
		}
		if len(seat.Occupants) > 0 {
			occupied++
		}
	}
	s.metrics.SetSeatsOccupied(occupied)
	return seats, nil
}

func firstSlot(student models.Student) models.SlotID {
	if len(student.AssignedSlots) == 0 {
		return ""
	}
	return student.AssignedSlots[0]
}

// GetExpiringStudents returns active students whose endDate falls within [today, today+window], soonest first.
func (s *SeatAllocator) GetExpiringStudents(ctx context.Context) ([]models.Student, error) {
	active := true
	students, _, err := s.roster.List(ctx, models.StudentFilter{Active: &active})
	if err != nil {
		return nil, s.storeError(err, "failed to load roster")
	}
	today := models.NewDate(s.now())
	until := today.Add(s.cfg.ExpiryWindow)

	out := make([]models.Student, 0)
	for _, student := range students {
		end := student.EndDate.Time
		if end.Before(today.Time) || end.After(until) {
			continue
		}
		out = append(out, student)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate.Time) })
	return out, nil
}

// CleanupInactive purges inactive students whose endDate is at least retention in the past.
// A non-positive retention uses the configured default.
func (s *SeatAllocator) CleanupInactive(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		retention = s.cfg.InactiveRetention
	}
	inactive := false
	students, _, err := s.roster.List(ctx, models.StudentFilter{Active: &inactive})
	if err != nil {
		return 0, s.storeError(err, "failed to load roster")
	}
	cutoff := s.now().Add(-retention)

	var purge []string
	for _, student := range students {
		if !student.EndDate.After(cutoff) {
			purge = append(purge, student.ID)
		}
	}
	if len(purge) == 0 {
		return 0, nil
	}

	removed := 0
	err = s.roster.Mutate(ctx, func(tx repository.RosterTx) error {
		removed = 0
		for _, id := range purge {
			ok, err := tx.Delete(ctx, id)
			if err != nil {
				return err
			}
			if ok {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, s.mutationError("cleanup", err, "failed to purge inactive students")
	}
	if s.attachments != nil {
		for _, id := range purge {
			if err := s.attachments.Delete(ctx, id); err != nil {
				s.logger.Warn("failed to delete attachments of purged student", zap.String("student_id", id), zap.Error(err))
			}
		}
	}
	s.afterCommit(ctx, "cleanup", nil)
	s.logger.Info("inactive students purged", zap.Int("removed", removed), zap.Time("cutoff", cutoff))
	return removed, nil
}

// afterCommit runs the best-effort side effects of a committed mutation.
func (s *SeatAllocator) afterCommit(ctx context.Context, operation string, txn *models.Transaction) {
	s.metrics.RecordAllocation(operation, "ok")
	s.cache.Invalidate(ctx, dashboardCachePattern)
	if txn == nil {
		return
	}
	s.metrics.RecordTransaction(txn.Type)
	if s.events == nil {
		return
	}
	event := models.TransactionRecordedEvent{Transaction: *txn, RecordedAt: s.now().UTC().Format(time.RFC3339)}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish transaction event", zap.String("transaction_id", txn.ID), zap.Error(err))
	}
}

// mutationError records the outcome of a failed mutation and maps it onto the API taxonomy.
func (s *SeatAllocator) mutationError(operation string, err error, message string) error {
	mapped := s.storeError(err, message)
	var conflict *models.SeatConflictError
	switch {
	case errors.As(mapped, &conflict):
		s.metrics.RecordAllocation(operation, "conflict")
		s.metrics.RecordConflict(conflict.Reason)
		s.logger.Info("seat assignment rejected",
			zap.String("operation", operation),
			zap.String("reason", string(conflict.Reason)),
			zap.Int("seat", conflict.SeatNumber),
			zap.Strings("slots", conflict.Slots.Strings()),
		)
	case errors.Is(mapped, appErrors.ErrStorage):
		s.metrics.RecordAllocation(operation, "storage_error")
		s.logger.Error("roster storage failure", zap.String("operation", operation), zap.Error(err))
	default:
		s.metrics.RecordAllocation(operation, "error")
	}
	return mapped
}

// storeError maps repository and domain errors onto application errors.
func (s *SeatAllocator) storeError(err error, message string) error {
	var (
		appErr     *appErrors.Error
		conflict   *models.SeatConflictError
		claim      *repository.SeatClaimError
		storageErr *repository.StorageError
	)
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &conflict):
		return wrapConflict(conflict)
	case errors.As(err, &claim):
		return wrapConflict(&models.SeatConflictError{Reason: claim.Reason, SeatNumber: claim.SeatNumber})
	case errors.Is(err, repository.ErrStudentNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	case errors.Is(err, repository.ErrDuplicateMobile):
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "mobile already registered"), map[string]interface{}{"reason": "DUPLICATE_MOBILE"})
	case errors.As(err, &storageErr):
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "roster storage unavailable")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

func wrapConflict(conflict *models.SeatConflictError) error {
	details := map[string]interface{}{
		"reason":      conflict.Reason,
		"seat_number": conflict.SeatNumber,
	}
	if len(conflict.Slots) > 0 {
		details["slots"] = conflict.Slots.Strings()
	}
	return appErrors.WithDetails(
		appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflict.Error()),
		details,
	)
}

// ConflictReasonOf extracts the violated seat invariant from err.
func ConflictReasonOf(err error) (models.ConflictReason, bool) {
	var conflict *models.SeatConflictError
	if errors.As(err, &conflict) {
		return conflict.Reason, true
	}
	var claim *repository.SeatClaimError
	if errors.As(err, &claim) {
		return claim.Reason, true
	}
	return "", false
}

// IsConflict reports whether err is a rejected seat assignment.
func IsConflict(err error) bool {
	_, ok := ConflictReasonOf(err)
	return ok
}
