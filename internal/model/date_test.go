package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOfUsesReferenceZone(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	// 2026-01-09 20:30 UTC is already the 10th in Seoul.
	ts := time.Date(2026, 1, 9, 20, 30, 0, 0, time.UTC)

	assert.Equal(t, "2026-01-09", DateOf(ts, time.UTC).String())
	assert.Equal(t, "2026-01-10", DateOf(ts, seoul).String())
	assert.Equal(t, "2026-01-09", DateOf(ts, nil).String())
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2026, time.January, 31)

	assert.Equal(t, "2026-02-01", d.AddDays(1).String())
	assert.Equal(t, "2026-01-01", d.StartOfMonth().String())
	assert.Equal(t, "2026-01-31", d.EndOfMonth().String())
	assert.Equal(t, "2026-02-28", NewDate(2026, time.February, 10).EndOfMonth().String())
	assert.Equal(t, "2024-02-29", NewDate(2024, time.February, 1).EndOfMonth().String())
	assert.Equal(t, 7, d.DaysUntil(d.AddDays(7)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.True(t, d.Equal(NewDate(2026, time.January, 31)))
	assert.Equal(t, time.Saturday, d.Weekday())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.January, d.Month())
	assert.Equal(t, 5, d.Day())
	assert.Equal(t, time.Monday, d.Weekday())

	_, err = ParseDate("05.01.2026")
	assert.Error(t, err)
}

func TestDateScanAndValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2026-03-04"))
	assert.Equal(t, "2026-03-04", d.String())

	require.NoError(t, d.Scan([]byte("2026-03-05 00:00:00+00:00")))
	assert.Equal(t, "2026-03-05", d.String())

	require.NoError(t, d.Scan(time.Date(2026, 3, 6, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-06", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-03-06", v)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	v, err = d.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, d.Scan(42))
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Date Date  `json:"date"`
		End  *Date `json:"end"`
	}

	raw, err := json.Marshal(payload{Date: NewDate(2026, time.January, 10)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-01-10","end":null}`, string(raw))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-02-01","end":"2026-02-28"}`), &p))
	assert.Equal(t, "2026-02-01", p.Date.String())
	require.NotNil(t, p.End)
	assert.Equal(t, "2026-02-28", p.End.String())

	assert.Error(t, json.Unmarshal([]byte(`{"date":"tomorrow"}`), &p))
}
