package services

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
)

// DateLayout is the calendar-day form sent by date inputs
const DateLayout = "2006-01-02"

// Date is an optional request date. It accepts RFC 3339 timestamps and bare
// YYYY-MM-DD days (midnight UTC). null and "" leave it unset.
type Date struct {
	time.Time
}

// DateOf wraps t
func DateOf(t time.Time) Date {
	return Date{Time: t}
}

// Set reports whether a value was given
func (d Date) Set() bool {
	return !d.IsZero()
}

// Ptr returns the time, or nil when unset
func (d Date) Ptr() *time.Time {
	if !d.Set() {
		return nil
	}
	t := d.Time
	return &t
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return authz.Invalid("dates must be strings")
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Set() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time)
}

// ParseDate parses s as RFC 3339 or YYYY-MM-DD. Blank input is an unset date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
		return Date{Time: t}, nil
	}
	return Date{}, authz.Invalid("invalid date %q, expected YYYY-MM-DD or RFC 3339", s)
}
