package calendar

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Date is a civil calendar date. The zero value means "no date" and is stored
// and rendered as an empty string.
type Date struct {
	civil.Date
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	return Date{civil.DateOf(t)}
}

// NewDate builds a date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{civil.Date{Year: year, Month: month, Day: day}}
}

// ParseDate parses YYYY-MM-DD. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid civil date %q: %w", s, err)
	}
	return Date{d}, nil
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool {
	return d.Date == civil.Date{}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Date.String()
}

// AddDays returns the date n days after d. Zero dates stay zero.
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return Date{d.Date.AddDays(n)}
}

func (d Date) Equal(o Date) bool {
	return d.Date == o.Date
}

func (d Date) Before(o Date) bool {
	return d.Date.Before(o.Date)
}

// Value stores the date as YYYY-MM-DD (or '' when unset).
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan accepts the textual column plus DATE columns read with parseTime=true.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	default:
		return fmt.Errorf("calendar.Date: cannot scan %T", src)
	}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
