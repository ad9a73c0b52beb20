package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProject_Sign(t *testing.T) {
	deadline := time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC)

	t.Run("before deadline", func(t *testing.T) {
		c := Project(deadline, deadline.Add(-90*time.Minute))

		assert.Equal(t, int64(5400), c.RemainingSeconds)
		assert.False(t, c.IsOverdue)
		assert.Equal(t, UrgencyHigh, c.Urgency)
	})

	t.Run("at deadline", func(t *testing.T) {
		c := Project(deadline, deadline)

		assert.Equal(t, int64(0), c.RemainingSeconds)
		assert.True(t, c.IsOverdue)
		assert.Equal(t, UrgencyOverdue, c.Urgency)
	})

	t.Run("after deadline", func(t *testing.T) {
		c := Project(deadline, deadline.Add(10*time.Second))

		assert.Equal(t, int64(-10), c.RemainingSeconds)
		assert.True(t, c.IsOverdue)
	})

	t.Run("half a second before deadline", func(t *testing.T) {
		c := Project(deadline, deadline.Add(-500*time.Millisecond))

		assert.Equal(t, int64(1), c.RemainingSeconds)
		assert.False(t, c.IsOverdue)
		assert.Equal(t, UrgencyCritical, c.Urgency)
	})

	t.Run("half a second after deadline", func(t *testing.T) {
		c := Project(deadline, deadline.Add(500*time.Millisecond))

		assert.Equal(t, int64(-1), c.RemainingSeconds)
		assert.True(t, c.IsOverdue)
		assert.Equal(t, UrgencyOverdue, c.Urgency)
	})

	t.Run("partial seconds round away from zero", func(t *testing.T) {
		assert.Equal(t, int64(2), Project(deadline, deadline.Add(-1500*time.Millisecond)).RemainingSeconds)
		assert.Equal(t, int64(-2), Project(deadline, deadline.Add(1500*time.Millisecond)).RemainingSeconds)
		assert.Equal(t, int64(1), Project(deadline, deadline.Add(-time.Nanosecond)).RemainingSeconds)
	})
}

func TestProject_Deterministic(t *testing.T) {
	deadline := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 2, 7, 30, 0, 0, time.UTC)

	assert.Equal(t, Project(deadline, now), Project(deadline, now))
}

func TestBand(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		expected  Urgency
	}{
		{"overdue", -time.Minute, UrgencyOverdue},
		{"zero is overdue", 0, UrgencyOverdue},
		{"one second", time.Second, UrgencyCritical},
		{"just under an hour", 59 * time.Minute, UrgencyCritical},
		{"exactly an hour", time.Hour, UrgencyHigh},
		{"just under four hours", 4*time.Hour - time.Second, UrgencyHigh},
		{"four hours", 4 * time.Hour, UrgencyMedium},
		{"just under a day", 24*time.Hour - time.Second, UrgencyMedium},
		{"a day", 24 * time.Hour, UrgencyLow},
		{"a month", 720 * time.Hour, UrgencyLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Band(int64(tt.remaining/time.Second)))
		})
	}
}

func TestUrgency_Rank(t *testing.T) {
	assert.Greater(t, UrgencyOverdue.Rank(), UrgencyCritical.Rank())
	assert.Greater(t, UrgencyCritical.Rank(), UrgencyHigh.Rank())
	assert.Greater(t, UrgencyHigh.Rank(), UrgencyMedium.Rank())
	assert.Greater(t, UrgencyMedium.Rank(), UrgencyLow.Rank())
}

func TestCountdown_Remaining(t *testing.T) {
	c := Countdown{RemainingSeconds: 90}
	assert.Equal(t, 90*time.Second, c.Remaining())
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name     string
		c        Countdown
		expected string
	}{
		{"hours minutes seconds", Countdown{RemainingSeconds: 2*3600 + 3*60 + 4}, "02h 03m 04s"},
		{"days", Countdown{RemainingSeconds: 86400 + 2*3600 + 3*60 + 59}, "1d 02h 03m"},
		{"overdue", Countdown{RemainingSeconds: -600, IsOverdue: true}, "overdue by 00h 10m 00s"},
		{"exactly due", Countdown{RemainingSeconds: 0, IsOverdue: true}, "overdue by 00h 00m 00s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatRemaining(tt.c))
		})
	}
}
