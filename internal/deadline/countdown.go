package deadline

import "time"

// Urgency is the display band of a countdown.
type Urgency string

// Urgency bands, from most to least pressing.
const (
	UrgencyOverdue  Urgency = "overdue"
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// Band breakpoints. High ends at the initial report offset so the band tracks
// the shrinking margin toward the 4 hour limit.
const (
	CriticalWithin = time.Hour
	HighWithin     = InitialOffset
	MediumWithin   = 24 * time.Hour
)

// Countdown is the time remaining until a deadline at a given instant.
type Countdown struct {
	RemainingSeconds int64   `json:"remaining_seconds"`
	IsOverdue        bool    `json:"is_overdue"`
	Urgency          Urgency `json:"urgency"`
}

// Project computes the countdown to deadline as seen at now.
// RemainingSeconds is negative once the deadline has passed and zero only at
// the exact deadline instant. Partial seconds round away from zero.
func Project(deadline, now time.Time) Countdown {
	remaining := wholeSeconds(deadline.Sub(now))
	return Countdown{
		RemainingSeconds: remaining,
		IsOverdue:        remaining <= 0,
		Urgency:          Band(remaining),
	}
}

func wholeSeconds(d time.Duration) int64 {
	secs := int64(d / time.Second)
	switch rem := d % time.Second; {
	case rem > 0:
		secs++
	case rem < 0:
		secs--
	}
	return secs
}

// Remaining returns the remaining time as a duration.
func (c Countdown) Remaining() time.Duration {
	return time.Duration(c.RemainingSeconds) * time.Second
}

// Band maps remaining seconds to an urgency band.
func Band(remainingSeconds int64) Urgency {
	remaining := time.Duration(remainingSeconds) * time.Second
	switch {
	case remainingSeconds <= 0:
		return UrgencyOverdue
	case remaining < CriticalWithin:
		return UrgencyCritical
	case remaining < HighWithin:
		return UrgencyHigh
	case remaining < MediumWithin:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Rank orders urgency bands, higher is more pressing.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyOverdue:
		return 4
	case UrgencyCritical:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	}
	return 0
}
