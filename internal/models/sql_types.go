package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v)
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
	return nil
}

func (d *Date) scanString(raw string) error {
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer, storing slots as "S1,S2".
func (s Slots) Value() (driver.Value, error) {
	return strings.Join(s.Strings(), ","), nil
}

// Scan implements sql.Scanner.
func (s *Slots) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("scan slots: unsupported type %T", src)
	}
	raw = strings.Trim(raw, "{}")
	if raw == "" {
		*s = Slots{}
		return nil
	}
	parsed, err := ParseSlots(strings.Split(raw, ","))
	if err != nil {
		return fmt.Errorf("scan slots: %w", err)
	}
	*s = parsed
	return nil
}
