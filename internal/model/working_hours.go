package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Weekdays lists canonical day names in display order
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// ErrInvalidWorkingHours is returned when working hours cannot be normalized
var ErrInvalidWorkingHours = errors.New("invalid working hours")

// DayHours is the normalized opening window of one weekday
type DayHours struct {
	Day    string `json:"day"`
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed"`
}

type dayEntry struct {
	Day      string `json:"day"`
	Open     string `json:"open"`
	Close    string `json:"close"`
	Closed   bool   `json:"closed"`
	IsClosed bool   `json:"is_closed"`
}

// NormalizeWorkingHours converts either stored shape of working hours into
// seven entries ordered Monday through Sunday. Days that are not mentioned
// are closed. Naming a day twice is an error. Empty or null input yields nil.
//
// Accepted shapes:
//
//	{"monday": {"open": "09:00", "close": "17:00"}, "sunday": "closed", "tue": "9:00-17:00"}
//	[{"day": "Monday", "open": "09:00", "close": "17:00"}, {"day": "Sunday", "is_closed": true}]
func NormalizeWorkingHours(raw json.RawMessage) ([]DayHours, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	week := make(map[string]DayHours, len(Weekdays))

	switch trimmed[0] {
	case '{':
		var byDay map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &byDay); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
		}
		for name, value := range byDay {
			day, ok := canonicalDay(name)
			if !ok {
				return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidWorkingHours, name)
			}
			if _, dup := week[day]; dup {
				return nil, duplicateDay(day, name)
			}
			hours, err := parseDayValue(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", day, err)
			}
			hours.Day = day
			week[day] = hours
		}
	case '[':
		var entries []dayEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
		}
		for _, entry := range entries {
			day, ok := canonicalDay(entry.Day)
			if !ok {
				return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidWorkingHours, entry.Day)
			}
			if _, dup := week[day]; dup {
				return nil, duplicateDay(day, entry.Day)
			}
			hours, err := fromEntry(entry)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", day, err)
			}
			hours.Day = day
			week[day] = hours
		}
	default:
		return nil, fmt.Errorf("%w: expected object or array", ErrInvalidWorkingHours)
	}

	result := make([]DayHours, 0, len(Weekdays))
	for _, day := range Weekdays {
		if hours, ok := week[day]; ok {
			result = append(result, hours)
			continue
		}
		result = append(result, DayHours{Day: day, Closed: true})
	}
	return result, nil
}

func parseDayValue(value json.RawMessage) (DayHours, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return DayHours{Closed: true}, nil
	}

	switch value[0] {
	case '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return DayHours{}, fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
		}
		return parseRange(s)
	case '{':
		var entry dayEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return DayHours{}, fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
		}
		return fromEntry(entry)
	default:
		return DayHours{}, fmt.Errorf("%w: unsupported value %s", ErrInvalidWorkingHours, string(value))
	}
}

func fromEntry(entry dayEntry) (DayHours, error) {
	if entry.Closed || entry.IsClosed {
		return DayHours{Closed: true}, nil
	}
	if entry.Open == "" && entry.Close == "" {
		return DayHours{Closed: true}, nil
	}
	return window(entry.Open, entry.Close)
}

// parseRange accepts "09:00-17:00", "9:00 - 17:00" and "closed"
func parseRange(s string) (DayHours, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "closed") {
		return DayHours{Closed: true}, nil
	}
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return DayHours{}, fmt.Errorf("%w: malformed range %q", ErrInvalidWorkingHours, s)
	}
	return window(parts[0], parts[1])
}

func window(open, close string) (DayHours, error) {
	o, err := normalizeClock(open)
	if err != nil {
		return DayHours{}, err
	}
	c, err := normalizeClock(close)
	if err != nil {
		return DayHours{}, err
	}
	return DayHours{Open: o, Close: c}, nil
}

func normalizeClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", fmt.Errorf("%w: invalid time %q", ErrInvalidWorkingHours, s)
	}
	return t.Format("15:04"), nil
}

// Map iteration order is random, so two spellings of one day ("mon" and
// "monday") have no defined winner.
func duplicateDay(day, name string) error {
	return fmt.Errorf("%w: %s given more than once (as %q)", ErrInvalidWorkingHours, day, name)
}

func canonicalDay(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) < 3 {
		return "", false
	}
	for _, day := range Weekdays {
		if strings.HasPrefix(day, n) {
			return day, true
		}
	}
	return "", false
}
