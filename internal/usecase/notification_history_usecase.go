package usecase

import (
	"context"
	"errors"
	"time"

	"lockedin/internal/domain/match"
	"lockedin/internal/domain/user"
	"lockedin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HistoryPageSize = 20
	StatsWindow     = 30 * 24 * time.Hour
)

type NotificationPage struct {
	Items      []match.SearchNotification
	Page       int
	TotalPages int
	Total      int
}

type NotificationHistoryUsecase interface {
	History(ctx context.Context, actor user.Actor, page int) (NotificationPage, error)
	UnreadCount(ctx context.Context, actor user.Actor) (int, error)
	MarkRead(ctx context.Context, actor user.Actor, id uuid.UUID) error
	Stats(ctx context.Context, actor user.Actor) (match.NotificationStats, error)
}

// NotificationHistory is the recruiter's read side of the notification audit
// log. Every call is scoped to the acting recruiter.
type NotificationHistory struct {
	notifications repository.SearchNotificationRepository
	searches      repository.SavedSearchRepository
	logger        *zap.Logger
	now           func() time.Time
}

func NewNotificationHistoryUsecase(notifications repository.SearchNotificationRepository, searches repository.SavedSearchRepository, logger *zap.Logger) *NotificationHistory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHistory{
		notifications: notifications,
		searches:      searches,
		logger:        logger.Named("notification_history"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (u *NotificationHistory) History(ctx context.Context, actor user.Actor, page int) (NotificationPage, error) {
	recruiterID, err := RecruiterOf(actor)
	if err != nil {
		return NotificationPage{}, err
	}
	if page < 1 {
		page = 1
	}

	items, total, err := u.notifications.ListByRecruiter(ctx, recruiterID, HistoryPageSize, (page-1)*HistoryPageSize)
	if err != nil {
		u.logger.Error("list notifications failed", zap.Error(err))
		return NotificationPage{}, ErrInternal
	}

	pages := (total + HistoryPageSize - 1) / HistoryPageSize
	if pages == 0 {
		pages = 1
	}
	// past the end: serve the last page
	if page > pages {
		page = pages
		items, total, err = u.notifications.ListByRecruiter(ctx, recruiterID, HistoryPageSize, (page-1)*HistoryPageSize)
		if err != nil {
			u.logger.Error("list notifications failed", zap.Error(err))
			return NotificationPage{}, ErrInternal
		}
	}

	return NotificationPage{Items: items, Page: page, TotalPages: pages, Total: total}, nil
}

func (u *NotificationHistory) UnreadCount(ctx context.Context, actor user.Actor) (int, error) {
	recruiterID, err := RecruiterOf(actor)
	if err != nil {
		return 0, err
	}
	n, err := u.notifications.UnreadCount(ctx, recruiterID)
	if err != nil {
		u.logger.Error("unread count failed", zap.Error(err))
		return 0, ErrInternal
	}
	return n, nil
}

func (u *NotificationHistory) MarkRead(ctx context.Context, actor user.Actor, id uuid.UUID) error {
	recruiterID, err := RecruiterOf(actor)
	if err != nil {
		return err
	}
	if err := u.notifications.MarkRead(ctx, id, recruiterID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return ErrNotFound
		}
		u.logger.Error("mark read failed", zap.Error(err))
		return ErrInternal
	}
	return nil
}

func (u *NotificationHistory) Stats(ctx context.Context, actor user.Actor) (match.NotificationStats, error) {
	recruiterID, err := RecruiterOf(actor)
	if err != nil {
		return match.NotificationStats{}, err
	}

	var stats match.NotificationStats
	if stats.TotalLast30Days, err = u.notifications.CountSince(ctx, recruiterID, u.now().Add(-StatsWindow)); err != nil {
		u.logger.Error("stats failed", zap.Error(err))
		return match.NotificationStats{}, ErrInternal
	}
	if stats.Unread, err = u.notifications.UnreadCount(ctx, recruiterID); err != nil {
		u.logger.Error("stats failed", zap.Error(err))
		return match.NotificationStats{}, ErrInternal
	}
	if stats.ActiveSearches, err = u.searches.CountNotifiableByRecruiter(ctx, recruiterID); err != nil {
		u.logger.Error("stats failed", zap.Error(err))
		return match.NotificationStats{}, ErrInternal
	}
	return stats, nil
}
