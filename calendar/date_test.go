package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.February, 29), d)
	assert.Equal(t, "2024-03-01", d.AddDays(1).String())

	empty, err := ParseDate("  ")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
	assert.Equal(t, "", empty.String())

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}

func TestZeroDateNeverEqualsARealDay(t *testing.T) {
	var zero Date
	today := NewDate(2024, time.May, 1)

	assert.False(t, zero.Equal(today))
	assert.False(t, zero.Equal(today.AddDays(-1)))
	assert.True(t, zero.AddDays(-1).IsZero())
}

func TestScanAndValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2024-06-15"))
	assert.Equal(t, "2024-06-15", d.String())

	require.NoError(t, d.Scan([]byte("2024-06-16")))
	assert.Equal(t, "2024-06-16", d.String())

	require.NoError(t, d.Scan(time.Date(2024, time.June, 17, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-06-17", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))

	v, err := NewDate(2024, time.June, 18).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-18", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestJSON(t *testing.T) {
	payload := struct {
		Day Date `json:"day"`
	}{Day: NewDate(2024, time.July, 4)}

	b, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2024-07-04"}`, string(b))

	var back struct {
		Day Date `json:"day"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Day.Equal(payload.Day))

	require.NoError(t, json.Unmarshal([]byte(`{"day":""}`), &back))
	assert.True(t, back.Day.IsZero())
}
