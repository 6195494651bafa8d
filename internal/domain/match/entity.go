package match

import (
	"time"

	"lockedin/internal/domain/savedsearch"

	"github.com/google/uuid"
)

// SearchMatch records that a candidate satisfied a saved search at least once.
// There is at most one row per (SavedSearchID, CandidateID). Notified implies
// !IsNewMatch.
type SearchMatch struct {
	ID            uuid.UUID
	SavedSearchID uuid.UUID
	CandidateID   uuid.UUID
	MatchedAt     time.Time
	IsNewMatch    bool
	Notified      bool
}

func (m SearchMatch) Pending() bool {
	return m.IsNewMatch && !m.Notified
}

// SearchNotification is the audit row for one delivered notification.
type SearchNotification struct {
	ID               uuid.UUID
	SavedSearchID    uuid.UUID
	SavedSearchName  string
	NotificationType savedsearch.Frequency
	SentAt           time.Time
	MatchesCount     int
	IsRead           bool
	EmailSent        bool
}

type NotificationStats struct {
	TotalLast30Days int
	Unread          int
	ActiveSearches  int
}
