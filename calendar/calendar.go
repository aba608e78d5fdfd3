// Package calendar resolves civil dates and day boundaries in one fixed UTC
// offset, independent of the host timezone.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultOffset is UTC+05:30.
const DefaultOffset = 5*time.Hour + 30*time.Minute

// Day describes the civil day an instant falls in.
type Day struct {
	Today        Date
	Yesterday    Date
	NextDayStart time.Time
}

// Calendar maps wall-clock instants to civil days in a fixed zone.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Calendar for the given offset. A nil clock uses time.Now.
func New(offset time.Duration, now func() time.Time) *Calendar {
	if now == nil {
		now = time.Now
	}
	return &Calendar{
		loc: time.FixedZone(FormatOffset(offset), int(offset/time.Second)),
		now: now,
	}
}

// Location returns the fixed zone of the calendar.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Current returns the civil day for the calendar's clock.
func (c *Calendar) Current() Day {
	return c.At(c.now())
}

// At returns the civil day containing t. The offset is applied once and all
// three values derive from that single local instant.
func (c *Calendar) At(t time.Time) Day {
	local := t.In(c.loc)
	today := DateOf(local)
	return Day{
		Today:        today,
		Yesterday:    today.AddDays(-1),
		NextDayStart: time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, c.loc),
	}
}

// ParseOffset parses offsets such as "+05:30", "-0800", "5:30" or "UTC+05:30".
func ParseOffset(s string) (time.Duration, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "UTC"))
	if raw == "" || raw == "Z" {
		return 0, nil
	}
	sign := time.Duration(1)
	switch raw[0] {
	case '+':
		raw = raw[1:]
	case '-':
		sign = -1
		raw = raw[1:]
	}
	var hh, mm string
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		hh, mm = raw[:i], raw[i+1:]
	} else if len(raw) == 4 {
		hh, mm = raw[:2], raw[2:]
	} else {
		hh, mm = raw, "0"
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid utc offset %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m >= 60 || h < 0 || h > 14 {
		return 0, fmt.Errorf("invalid utc offset %q", s)
	}
	return sign * (time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

// FormatOffset renders an offset as UTC+hh:mm.
func FormatOffset(offset time.Duration) string {
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return fmt.Sprintf("UTC%c%02d:%02d", sign, h, m)
}
