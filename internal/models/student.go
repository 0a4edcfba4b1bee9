package models

import "time"

// Student is a roster entry holding one seat assignment.
type Student struct {
	ID             string       `db:"id" json:"id"`
	FullName       string       `db:"full_name" json:"full_name"`
	Mobile         string       `db:"mobile" json:"mobile"`
	Email          string       `db:"email" json:"email,omitempty"`
	PasswordHash   string       `db:"password_hash" json:"-"`
	Address        string       `db:"address" json:"address,omitempty"`
	ParentName     string       `db:"parent_name" json:"parent_name,omitempty"`
	ParentMobile   string       `db:"parent_mobile" json:"parent_mobile,omitempty"`
	Gender         string       `db:"gender" json:"gender,omitempty"`
	IDProofType    string       `db:"id_proof_type" json:"id_proof_type,omitempty"`
	SeatNumber     int          `db:"seat_number" json:"seat_number"`
	LockerRequired bool         `db:"locker_required" json:"locker_required"`
	PlanType       PlanType     `db:"plan_type" json:"plan_type"`
	Duration       PlanDuration `db:"duration" json:"duration"`
	StartDate      Date         `db:"start_date" json:"start_date"`
	EndDate        Date         `db:"end_date" json:"end_date"`
	AmountPaid     int64        `db:"amount_paid" json:"amount_paid"`
	AssignedSlots  Slots        `db:"assigned_slots" json:"assigned_slots"`
	IsActive       bool         `db:"is_active" json:"is_active"`
	PaymentMode    PaymentMode  `db:"payment_mode" json:"payment_mode"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`

	Attachments *AttachmentLinks `db:"-" json:"attachments,omitempty"`
}

// Clone returns a deep copy of the student.
func (s Student) Clone() Student {
	out := s
	out.AssignedSlots = s.AssignedSlots.Clone()
	if s.Attachments != nil {
		links := *s.Attachments
		out.Attachments = &links
	}
	return out
}

// HoldsSeat reports whether the student currently occupies seat.
func (s Student) HoldsSeat(seat int) bool {
	return s.IsActive && s.SeatNumber == seat
}

// StudentFilter narrows roster listings.
type StudentFilter struct {
	Active   *bool
	Seat     int
	Search   string
	Page     int
	PageSize int
}

// AttachmentKind names a stored attachment.
type AttachmentKind string

const (
	AttachmentPhoto   AttachmentKind = "photo"
	AttachmentIDProof AttachmentKind = "id_proof"
)

// Attachments carries base64 or data URL payloads kept outside the roster.
type Attachments struct {
	PhotoURL   string `json:"photo_url,omitempty"`
	IDProofURL string `json:"id_proof_url,omitempty"`
}

// Empty reports whether neither payload is set.
func (a Attachments) Empty() bool {
	return a.PhotoURL == "" && a.IDProofURL == ""
}

// AttachmentLinks are signed download links returned with a student.
type AttachmentLinks struct {
	Photo   string `json:"photo,omitempty"`
	IDProof string `json:"id_proof,omitempty"`
}
