package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCurrentUsesFixedOffsetNotHostZone(t *testing.T) {
	// 20:00 UTC on Jan 31 is already Feb 1 at +05:30.
	instant := time.Date(2024, time.January, 31, 20, 0, 0, 0, time.UTC)

	for _, host := range []*time.Location{time.UTC, time.FixedZone("PST", -8*3600), time.FixedZone("JST", 9*3600)} {
		cal := New(DefaultOffset, fixed(instant.In(host)))
		day := cal.Current()

		assert.Equal(t, "2024-02-01", day.Today.String(), host.String())
		assert.Equal(t, "2024-01-31", day.Yesterday.String(), host.String())
		assert.True(t, day.NextDayStart.Equal(time.Date(2024, time.February, 1, 18, 30, 0, 0, time.UTC)), host.String())
	}
}

func TestAtJustBeforeAndAfterMidnight(t *testing.T) {
	cal := New(DefaultOffset, nil)

	before := time.Date(2024, time.March, 9, 18, 29, 59, 0, time.UTC)
	after := before.Add(time.Second)

	assert.Equal(t, "2024-03-09", cal.At(before).Today.String())
	assert.Equal(t, "2024-03-10", cal.At(after).Today.String())
	assert.Equal(t, cal.At(before).Today, cal.At(after).Yesterday)
}

func TestYesterdayCrossesYearBoundary(t *testing.T) {
	cal := New(DefaultOffset, nil)
	day := cal.At(time.Date(2024, time.December, 31, 19, 0, 0, 0, time.UTC))

	assert.Equal(t, "2025-01-01", day.Today.String())
	assert.Equal(t, "2024-12-31", day.Yesterday.String())
	assert.Equal(t, 2025, day.NextDayStart.Year())
	assert.Equal(t, time.January, day.NextDayStart.Month())
	assert.Equal(t, 2, day.NextDayStart.Day())
}

func TestParseOffset(t *testing.T) {
	cases := map[string]time.Duration{
		"+05:30":    DefaultOffset,
		"UTC+05:30": DefaultOffset,
		"5:30":      DefaultOffset,
		"-0800":     -8 * time.Hour,
		"+9":        9 * time.Hour,
		"Z":         0,
		"":          0,
	}
	for in, want := range cases {
		got, err := ParseOffset(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"+ab:00", "+05:75", "+20:00"} {
		_, err := ParseOffset(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "UTC+05:30", FormatOffset(DefaultOffset))
	assert.Equal(t, "UTC-03:00", FormatOffset(-3*time.Hour))
}
