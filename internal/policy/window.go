package policy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeOfDay parses an "HH:MM" clock value into minutes since midnight.
func ParseTimeOfDay(value string) (int, error) {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}

	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}

	return hour*60 + minute, nil
}

// InBedtimeWindow checks whether the clock value nowMinutes (minutes since
// midnight) falls within the window [start, end], also in minutes since
// midnight. A start greater than end denotes an overnight window that crosses
// midnight.
//
// Same-day windows are inclusive at both ends. Overnight windows are
// inclusive at the start and exclusive at the end, so a 21:00-07:00 window
// restricts 21:00 through 06:59 and releases at exactly 07:00.
func InBedtimeWindow(nowMinutes, start, end int) bool {
	if start > end {
		// Overnight window (e.g. 21:00 to 07:00)
		return nowMinutes >= start || nowMinutes < end
	}
	return nowMinutes >= start && nowMinutes <= end
}

// Contains checks whether now falls inside the schedule's window on the local
// clock. A disabled schedule or an unparseable time never restricts.
func (b BedtimeSchedule) Contains(now time.Time) bool {
	if !b.Enabled {
		return false
	}

	start, err := ParseTimeOfDay(b.StartTime)
	if err != nil {
		return false
	}
	end, err := ParseTimeOfDay(b.EndTime)
	if err != nil {
		return false
	}

	return InBedtimeWindow(now.Hour()*60+now.Minute(), start, end)
}
