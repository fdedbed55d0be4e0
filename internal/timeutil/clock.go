package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidClockTime = errors.New("invalid clock time")

const MinutesPerDay = 24 * 60

// ToMinutes parses a clock-time string into minutes since midnight.
// Accepted forms: "9:30", "09:30", "9:30 AM", "12:05 pm". 12 AM maps to
// 00:00 and 12 PM to 12:00. Anything else is rejected.
func ToMinutes(clock string) (int, error) {
	s := strings.TrimSpace(clock)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidClockTime)
	}

	meridiem := ""
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "AM"):
		meridiem = "AM"
		s = strings.TrimSpace(s[:len(s)-2])
	case strings.HasSuffix(upper, "PM"):
		meridiem = "PM"
		s = strings.TrimSpace(s[:len(s)-2])
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, clock)
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, clock)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, clock)
	}

	if minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, clock)
	}

	switch meridiem {
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, clock)
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, clock)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, clock)
		}
	}

	return hour*60 + minute, nil
}

// MinutesOrZero is the lenient form used when comparing times already stored
// on appointments; malformed stored values compare as midnight rather than
// failing the whole conflict check.
func MinutesOrZero(clock string) int {
	m, err := ToMinutes(clock)
	if err != nil {
		return 0
	}
	return m
}

// Overlap reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// ClampToDay bounds a minute offset to [0, MinutesPerDay).
func ClampToDay(min int) int {
	if min < 0 {
		return 0
	}
	if min >= MinutesPerDay {
		return MinutesPerDay - 1
	}
	return min
}
