package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
)

// RecurrenceType selects how a template expands into dated instances.
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "NONE"
	RecurrenceDaily   RecurrenceType = "DAILY"
	RecurrenceWeekly  RecurrenceType = "WEEKLY"
	RecurrenceMonthly RecurrenceType = "MONTHLY"
)

func (r RecurrenceType) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// RecurrenceDays holds weekdays (0=Sunday..6) for WEEKLY and days of month
// (1..31) for MONTHLY. Persisted as a JSON array.
type RecurrenceDays []int

func (RecurrenceDays) GormDataType() string {
	return "text"
}

func (r RecurrenceDays) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]int(r))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (r *RecurrenceDays) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = RecurrenceDays{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into RecurrenceDays", src)
	}
	var days []int
	if err := json.Unmarshal(raw, &days); err != nil {
		return fmt.Errorf("decode recurrence days: %w", err)
	}
	*r = days
	return nil
}

func (r RecurrenceDays) Contains(day int) bool {
	return slices.Contains(r, day)
}

// ValidateRecurrence checks that a rule is complete: WEEKLY and MONTHLY need
// at least one day, each inside the range for that rule.
func ValidateRecurrence(kind RecurrenceType, days RecurrenceDays) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown recurrence type %q", kind)
	}
	lo, hi := 0, 0
	switch kind {
	case RecurrenceWeekly:
		lo, hi = 0, 6
	case RecurrenceMonthly:
		lo, hi = 1, 31
	default:
		return nil
	}
	if len(days) == 0 {
		return fmt.Errorf("%s recurrence requires at least one day", kind)
	}
	for _, d := range days {
		if d < lo || d > hi {
			return fmt.Errorf("%s recurrence day %d out of range %d..%d", kind, d, lo, hi)
		}
	}
	return nil
}
