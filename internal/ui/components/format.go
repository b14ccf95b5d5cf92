package components

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Clock renders seconds as MM:SS, or H:MM:SS from one hour up.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Spent renders accumulated work time compactly, e.g. "1h 05m" or "40s".
func Spent(seconds int) string {
	switch {
	case seconds <= 0:
		return "0m"
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%dh %02dm", seconds/3600, seconds/60%60)
	}
}

// Due describes a due date relative to now. Overdue is true only for
// unfinished work past its date.
func Due(due, now time.Time, complete bool) (label string, overdue bool) {
	if due.IsZero() {
		return "no due date", false
	}
	rel := humanize.RelTime(due, now, "ago", "from now")
	if !complete && due.Before(now) {
		return "overdue " + rel, true
	}
	return "due " + rel, false
}
