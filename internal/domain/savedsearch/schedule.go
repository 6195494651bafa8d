package savedsearch

import "time"

const (
	DailyInterval  = 24 * time.Hour
	WeeklyInterval = 7 * 24 * time.Hour
)

// State is derived from a search's fields and its pending match count; it is
// never stored.
type State int

const (
	StateIdle State = iota
	StatePending
	StateDue
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateDue:
		return "due"
	default:
		return "unknown"
	}
}

// Notifiable reports whether the search takes part in notification runs at all.
func (s SavedSearch) Notifiable() bool {
	return s.IsActive && s.NotifyOnNewMatches
}

// DueAt returns the earliest instant a notification may be sent. The zero
// time means "now".
func (s SavedSearch) DueAt() time.Time {
	if s.LastNotifiedAt == nil {
		return time.Time{}
	}
	switch s.Frequency {
	case FrequencyDaily:
		return s.LastNotifiedAt.Add(DailyInterval)
	case FrequencyWeekly:
		return s.LastNotifiedAt.Add(WeeklyInterval)
	default:
		return time.Time{}
	}
}

// IsDue applies only the frequency rule. Unknown frequencies are never due.
func (s SavedSearch) IsDue(now time.Time) bool {
	switch s.Frequency {
	case FrequencyImmediate:
		return true
	case FrequencyDaily, FrequencyWeekly:
		if s.LastNotifiedAt == nil {
			return true
		}
		return !now.Before(s.DueAt())
	default:
		return false
	}
}

// ShouldNotify combines the gates (active, notify flag, pending matches) with
// the frequency rule.
func ShouldNotify(s SavedSearch, pending int, now time.Time) bool {
	if !s.Notifiable() {
		return false
	}
	if pending <= 0 {
		return false
	}
	return s.IsDue(now)
}

func StateOf(s SavedSearch, pending int, now time.Time) State {
	if pending <= 0 {
		return StateIdle
	}
	if ShouldNotify(s, pending, now) {
		return StateDue
	}
	return StatePending
}
