package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PlanType is a subscription tier measured in daily study hours.
type PlanType string

const (
	Plan6H  PlanType = "6H"
	Plan8H  PlanType = "8H"
	Plan14H PlanType = "14H"
	Plan24H PlanType = "24H"
)

// PlanTypes lists every supported plan in ascending order.
var PlanTypes = []PlanType{Plan6H, Plan8H, Plan14H, Plan24H}

// ParsePlanType normalises raw input into a PlanType.
func ParsePlanType(raw string) (PlanType, error) {
	plan := PlanType(strings.ToUpper(strings.TrimSpace(raw)))
	if !plan.Valid() {
		return "", fmt.Errorf("unknown plan type %q", raw)
	}
	return plan, nil
}

// Valid reports whether p is one of the supported plans.
func (p PlanType) Valid() bool {
	switch p {
	case Plan6H, Plan8H, Plan14H, Plan24H:
		return true
	}
	return false
}

// Hours returns the number of study hours granted per day.
func (p PlanType) Hours() int {
	switch p {
	case Plan6H:
		return 6
	case Plan8H:
		return 8
	case Plan14H:
		return 14
	case Plan24H:
		return 24
	}
	panic(fmt.Sprintf("models: unknown plan type %q", string(p)))
}

// RequiredSlotCount is the number of daily slots a plan must hold, ceil(hours/6).
func (p PlanType) RequiredSlotCount() int {
	return (p.Hours() + SlotHours - 1) / SlotHours
}

// PlanDuration is the length of a subscription in months.
type PlanDuration int

const (
	Duration1Month  PlanDuration = 1
	Duration3Months PlanDuration = 3
	Duration6Months PlanDuration = 6
)

// Valid reports whether d is an offered duration.
func (d PlanDuration) Valid() bool {
	switch d {
	case Duration1Month, Duration3Months, Duration6Months:
		return true
	}
	return false
}

// Months returns the duration as a month count.
func (d PlanDuration) Months() int { return int(d) }

// AddTo returns the end date of a subscription starting on start.
func (d PlanDuration) AddTo(start Date) Date {
	return Date{Time: start.Time.AddDate(0, int(d), 0)}
}

// String renders the duration the way receipts print it.
func (d PlanDuration) String() string {
	if d == Duration1Month {
		return "1 Month"
	}
	return fmt.Sprintf("%d Months", int(d))
}

// PaymentMode records how a membership was paid.
type PaymentMode string

const (
	PaymentCash    PaymentMode = "CASH"
	PaymentOnline  PaymentMode = "ONLINE"
	PaymentPending PaymentMode = "PENDING"
)

// ParsePaymentMode defaults empty input to cash.
func ParsePaymentMode(raw string) (PaymentMode, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return PaymentCash, nil
	}
	mode := PaymentMode(trimmed)
	switch mode {
	case PaymentCash, PaymentOnline, PaymentPending:
		return mode, nil
	}
	return "", fmt.Errorf("unknown payment mode %q", raw)
}

// SlotHours is the length of every slot.
const SlotHours = 6

// SlotID identifies one of the four fixed daily windows.
type SlotID string

const (
	SlotMorning   SlotID = "S1"
	SlotAfternoon SlotID = "S2"
	SlotEvening   SlotID = "S3"
	SlotNight     SlotID = "S4"
)

// Slot describes a slot window for display.
type Slot struct {
	ID    SlotID `json:"id"`
	Label string `json:"label"`
	Time  string `json:"time"`
}

// AllSlots is the closed slot universe in display order.
var AllSlots = []Slot{
	{ID: SlotMorning, Label: "Morning", Time: "7 AM - 1 PM"},
	{ID: SlotAfternoon, Label: "Afternoon", Time: "1 PM - 7 PM"},
	{ID: SlotEvening, Label: "Evening", Time: "7 PM - 1 AM"},
	{ID: SlotNight, Label: "Night", Time: "1 AM - 7 AM"},
}

// ParseSlotID normalises raw input into a SlotID.
func ParseSlotID(raw string) (SlotID, error) {
	slot := SlotID(strings.ToUpper(strings.TrimSpace(raw)))
	if !slot.Valid() {
		return "", fmt.Errorf("unknown slot %q", raw)
	}
	return slot, nil
}

// Valid reports whether s belongs to the slot universe.
func (s SlotID) Valid() bool {
	switch s {
	case SlotMorning, SlotAfternoon, SlotEvening, SlotNight:
		return true
	}
	return false
}

// Label returns the human readable window name.
func (s SlotID) Label() string {
	for _, slot := range AllSlots {
		if slot.ID == s {
			return slot.Label
		}
	}
	return string(s)
}

// Date is a calendar day serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

// DateLayout is the wire format for Date.
const DateLayout = "2006-01-02"

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// MustDate parses raw and panics on failure; intended for fixtures.
func MustDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// String implements fmt.Stringer.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Equal reports whether both values fall on the same day.
func (d Date) Equal(other Date) bool {
	return d.String() == other.String()
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD or RFC3339 strings.
func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*d = Date{}
		return nil
	}
	if parsed, err := ParseDate(raw); err == nil {
		*d = parsed
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q", raw)
	}
	*d = NewDate(t)
	return nil
}

// Slots is a set of slot identifiers stored as a comma separated column.
type Slots []SlotID

// ParseSlots validates and de-duplicates raw slot identifiers.
func ParseSlots(raw []string) (Slots, error) {
	seen := make(map[SlotID]struct{}, len(raw))
	out := make(Slots, 0, len(raw))
	for _, item := range raw {
		slot, err := ParseSlotID(item)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		out = append(out, slot)
	}
	out.Sort()
	return out, nil
}

// Sort orders slots S1..S4.
func (s Slots) Sort() {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}

// Contains reports whether slot is part of the set.
func (s Slots) Contains(slot SlotID) bool {
	for _, item := range s {
		if item == slot {
			return true
		}
	}
	return false
}

// Intersect returns the slots present in both sets.
func (s Slots) Intersect(other Slots) Slots {
	var out Slots
	for _, slot := range s {
		if other.Contains(slot) {
			out = append(out, slot)
		}
	}
	return out
}

// Strings converts the set into plain strings.
func (s Slots) Strings() []string {
	out := make([]string, len(s))
	for i, slot := range s {
		out[i] = string(slot)
	}
	return out
}

// Clone returns an independent copy.
func (s Slots) Clone() Slots {
	if s == nil {
		return nil
	}
	out := make(Slots, len(s))
	copy(out, s)
	return out
}
