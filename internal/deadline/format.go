package deadline

import "fmt"

// FormatRemaining renders a countdown for display, e.g. "1d 02h 03m",
// "02h 03m 04s" or "overdue by 00h 10m 00s".
func FormatRemaining(c Countdown) string {
	if c.IsOverdue {
		return "overdue by " + formatSeconds(-c.RemainingSeconds)
	}
	return formatSeconds(c.RemainingSeconds)
}

func formatSeconds(total int64) string {
	if total < 0 {
		total = 0
	}
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if days > 0 {
		return fmt.Sprintf("%dd %02dh %02dm", days, hours, minutes)
	}
	return fmt.Sprintf("%02dh %02dm %02ds", hours, minutes, seconds)
}
