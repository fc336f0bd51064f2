// Package schedule turns free text like "tomorrow 14:00" into an absolute time.
package schedule

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnrecognized = errors.New("no day keyword or HH:MM found")
	ErrNotFuture    = errors.New("time is not in the future")
	ErrInvalidClock = errors.New("invalid hour or minute")
)

var (
	tomorrowWords = []string{"tomorrow", "amanhã", "amanha"}
	todayWords    = []string{"today", "hoje"}
	clockPattern  = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
)

// DefaultTomorrowHour is used when "tomorrow" comes without a time.
const DefaultTomorrowHour = 9

// Parse resolves text relative to now, in now's location.
//
//   - tomorrow [HH:MM]: next calendar day, 09:00 when no time is given
//   - today HH:MM: must be strictly after now
//   - HH:MM alone: today, or the next day when that moment already passed
//
// Anything else is rejected with ErrUnrecognized.
func Parse(text string, now time.Time) (time.Time, error) {
	lower := strings.ToLower(text)
	hour, minute, hasClock, err := clock(lower)
	if err != nil {
		return time.Time{}, err
	}

	switch {
	case containsAny(lower, tomorrowWords):
		if !hasClock {
			hour, minute = DefaultTomorrowHour, 0
		}
		return at(now, 1, hour, minute), nil
	case containsAny(lower, todayWords):
		if !hasClock {
			return time.Time{}, ErrUnrecognized
		}
		t := at(now, 0, hour, minute)
		if !t.After(now) {
			return time.Time{}, ErrNotFuture
		}
		return t, nil
	case hasClock:
		t := at(now, 0, hour, minute)
		if !t.After(now) {
			t = at(now, 1, hour, minute)
		}
		return t, nil
	}
	return time.Time{}, ErrUnrecognized
}

func clock(text string) (hour, minute int, ok bool, err error) {
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false, nil
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, false, ErrInvalidClock
	}
	return hour, minute, true, nil
}

func at(now time.Time, addDays, hour, minute int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+addDays, hour, minute, 0, 0, now.Location())
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
