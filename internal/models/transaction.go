package models

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TransactionAdmission  TransactionType = "ADMISSION"
	TransactionRenewal    TransactionType = "RENEWAL"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
)

// Transaction is an immutable payment ledger entry.
type Transaction struct {
	ID          string          `db:"id" json:"id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	StudentName string          `db:"student_name" json:"student_name"`
	SeatNumber  int             `db:"seat_number" json:"seat_number"`
	Type        TransactionType `db:"type" json:"type"`
	Amount      int64           `db:"amount" json:"amount"`
	Date        Date            `db:"date" json:"date"`
	PlanType    PlanType        `db:"plan_type" json:"plan_type"`
	Duration    PlanDuration    `db:"duration" json:"duration"`
	PaymentMode PaymentMode     `db:"payment_mode" json:"payment_mode"`
}

// NewTransaction builds a ledger entry from the student's current billing fields.
func NewTransaction(id string, kind TransactionType, s Student) Transaction {
	return Transaction{
		ID:          id,
		StudentID:   s.ID,
		StudentName: s.FullName,
		SeatNumber:  s.SeatNumber,
		Type:        kind,
		Amount:      s.AmountPaid,
		Date:        s.StartDate,
		PlanType:    s.PlanType,
		Duration:    s.Duration,
		PaymentMode: s.PaymentMode,
	}
}

// TransactionFilter narrows ledger listings.
type TransactionFilter struct {
	StudentID string
	Type      TransactionType
}

// TransactionRecordedEvent is published after a ledger append commits.
type TransactionRecordedEvent struct {
	Transaction Transaction `json:"transaction"`
	RecordedAt  string      `json:"recorded_at"`
}
