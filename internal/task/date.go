package task

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day without a clock or zone.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day in the timestamp's zone.
func DateOf(ts time.Time) Date {
	return NewDate(ts.Year(), ts.Month(), ts.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses YYYY-MM-DD, falling back to RFC 3339. A blank input means
// no date and yields nil.
func ParseDate(v string) (*Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, v); err == nil {
		d := DateOf(t)
		return &d, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		d := DateOf(t)
		return &d, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidDate, v)
}

func (d Date) Time() time.Time { return d.t }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) String() string { return d.t.Format(DateLayout) }

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	if parsed == nil {
		return fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	*d = *parsed
	return nil
}
