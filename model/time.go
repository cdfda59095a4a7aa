package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/Gengyveusa/aether/helper"
	"github.com/google/uuid"
)

// TimeLayout renders instants with an explicit offset; UTC prints as +00:00.
const TimeLayout = "2006-01-02T15:04:05.999999-07:00"

// Now returns the current instant normalized for storage.
func Now() time.Time {
	return NormalizeTime(time.Now())
}

// NormalizeTime converts t to UTC at microsecond precision, the precision Postgres keeps.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts RFC 3339 text with either a Z or a numeric offset.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, helper.NewValidationError("parse time", err.Error())
	}
	return NormalizeTime(t), nil
}

// ParseID parses canonical uuid text. Malformed text is a validation error.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, helper.NewValidationError("parse id", "malformed id "+strconv.Quote(s))
	}
	return id, nil
}

// jsonTime serializes a time.Time with TimeLayout.
type jsonTime time.Time

func (t jsonTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatTime(time.Time(t)))
}

func (t *jsonTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = jsonTime(time.Time{})
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = jsonTime(parsed)
	return nil
}

// stampTimes fills zero timestamps with now and normalizes the rest.
func stampTimes(created, updated *time.Time) {
	now := Now()
	if created.IsZero() {
		*created = now
	} else {
		*created = NormalizeTime(*created)
	}
	if updated.IsZero() {
		*updated = *created
	} else {
		*updated = NormalizeTime(*updated)
	}
}
