package models

import "time"

// AdmissionStatus tracks a request through review.
type AdmissionStatus string

const (
	AdmissionPending  AdmissionStatus = "PENDING"
	AdmissionApproved AdmissionStatus = "APPROVED"
	AdmissionRejected AdmissionStatus = "REJECTED"
)

// AdmissionRequest is a self-service application awaiting an admin decision.
type AdmissionRequest struct {
	ID             string          `db:"id" json:"id"`
	FullName       string          `db:"full_name" json:"full_name"`
	Mobile         string          `db:"mobile" json:"mobile"`
	Email          string          `db:"email" json:"email,omitempty"`
	Address        string          `db:"address" json:"address,omitempty"`
	ParentName     string          `db:"parent_name" json:"parent_name,omitempty"`
	ParentMobile   string          `db:"parent_mobile" json:"parent_mobile,omitempty"`
	Gender         string          `db:"gender" json:"gender,omitempty"`
	IDProofType    string          `db:"id_proof_type" json:"id_proof_type,omitempty"`
	PlanType       PlanType        `db:"plan_type" json:"plan_type"`
	PreferredSlots Slots           `db:"preferred_slots" json:"preferred_slots"`
	LockerRequired bool            `db:"locker_required" json:"locker_required"`
	Status         AdmissionStatus `db:"status" json:"status"`
	RequestDate    time.Time       `db:"request_date" json:"request_date"`

	Attachments *AttachmentLinks `db:"-" json:"attachments,omitempty"`
}
