package dto

import (
	"time"

	"lockedin/internal/domain/match"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID               uuid.UUID `json:"id"`
	SavedSearchID    uuid.UUID `json:"saved_search_id"`
	SavedSearchName  string    `json:"saved_search_name"`
	NotificationType string    `json:"notification_type"`
	SentAt           time.Time `json:"sent_at"`
	MatchesCount     int       `json:"matches_count"`
	IsRead           bool      `json:"is_read"`
	EmailSent        bool      `json:"email_sent"`
}

func NewNotificationResponses(ns []match.SearchNotification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, NotificationResponse{
			ID:               n.ID,
			SavedSearchID:    n.SavedSearchID,
			SavedSearchName:  n.SavedSearchName,
			NotificationType: string(n.NotificationType),
			SentAt:           n.SentAt,
			MatchesCount:     n.MatchesCount,
			IsRead:           n.IsRead,
			EmailSent:        n.EmailSent,
		})
	}
	return out
}

type NotificationStatsResponse struct {
	TotalLast30Days int `json:"total_last_30_days"`
	Unread          int `json:"unread"`
	ActiveSearches  int `json:"active_searches"`
}

type UnreadCountResponse struct {
	Unread int `json:"unread"`
}
