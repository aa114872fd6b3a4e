package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRecurrence(t *testing.T) {
	tests := []struct {
		name    string
		kind    RecurrenceType
		days    RecurrenceDays
		wantErr bool
	}{
		{"none ignores days", RecurrenceNone, nil, false},
		{"daily ignores days", RecurrenceDaily, RecurrenceDays{99}, false},
		{"weekly in range", RecurrenceWeekly, RecurrenceDays{0, 3, 6}, false},
		{"weekly needs a day", RecurrenceWeekly, nil, true},
		{"weekly out of range", RecurrenceWeekly, RecurrenceDays{7}, true},
		{"monthly in range", RecurrenceMonthly, RecurrenceDays{1, 31}, false},
		{"monthly zero", RecurrenceMonthly, RecurrenceDays{0}, true},
		{"monthly needs a day", RecurrenceMonthly, RecurrenceDays{}, true},
		{"unknown kind", RecurrenceType("YEARLY"), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecurrence(tt.kind, tt.days)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecurrenceDaysStorage(t *testing.T) {
	v, err := RecurrenceDays{1, 3, 5}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[1,3,5]", v)

	v, err = RecurrenceDays(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var days RecurrenceDays
	require.NoError(t, days.Scan([]byte("[2,4]")))
	assert.Equal(t, RecurrenceDays{2, 4}, days)
	assert.True(t, days.Contains(4))
	assert.False(t, days.Contains(3))

	require.NoError(t, days.Scan(nil))
	assert.Empty(t, days)
	assert.Error(t, days.Scan("not json"))
}

func TestTemplateDue(t *testing.T) {
	end := NewDate(2026, time.January, 9)
	weekly := Template{
		RecurrenceType: RecurrenceWeekly,
		RecurrenceDays: RecurrenceDays{1, 3, 5},
		StartDate:      NewDate(2026, time.January, 5),
		EndDate:        &end,
	}

	var due []string
	for d := NewDate(2026, time.January, 1); !d.After(NewDate(2026, time.January, 14)); d = d.AddDays(1) {
		if weekly.Due(d) {
			due = append(due, d.String())
		}
	}
	assert.Equal(t, []string{"2026-01-05", "2026-01-07", "2026-01-09"}, due)

	monthly := Template{
		RecurrenceType: RecurrenceMonthly,
		RecurrenceDays: RecurrenceDays{31},
		StartDate:      NewDate(2026, time.January, 1),
	}
	assert.True(t, monthly.Due(NewDate(2026, time.January, 31)))
	// Months without day 31 are skipped, not clamped.
	assert.False(t, monthly.Due(NewDate(2026, time.February, 28)))

	daily := Template{RecurrenceType: RecurrenceDaily, StartDate: NewDate(2026, time.January, 1)}
	assert.False(t, daily.Due(NewDate(2025, time.December, 31)))
	assert.True(t, daily.Due(NewDate(2026, time.March, 1)))

	none := Template{RecurrenceType: RecurrenceNone, StartDate: NewDate(2026, time.January, 1)}
	assert.False(t, none.Due(NewDate(2026, time.January, 1)))
}

func TestInstanceSetCompleted(t *testing.T) {
	var inst Instance
	at := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	inst.SetCompleted(true, at)
	assert.True(t, inst.IsCompleted)
	require.NotNil(t, inst.CompletedAt)
	assert.Equal(t, at, *inst.CompletedAt)

	inst.SetCompleted(false, at)
	assert.False(t, inst.IsCompleted)
	assert.Nil(t, inst.CompletedAt)
}
