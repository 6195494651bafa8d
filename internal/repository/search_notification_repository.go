package repository

import (
	"context"
	"errors"
	"time"

	"lockedin/internal/database"
	"lockedin/internal/domain/match"
	"lockedin/internal/domain/savedsearch"

	"github.com/google/uuid"
)

var ErrNotificationNotFound = errors.New("notification not found")

type SearchNotificationRepository interface {
	Create(ctx context.Context, n match.SearchNotification) (match.SearchNotification, error)
	ListByRecruiter(ctx context.Context, recruiterID uuid.UUID, limit, offset int) ([]match.SearchNotification, int, error)
	UnreadCount(ctx context.Context, recruiterID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, recruiterID uuid.UUID) error
	CountSince(ctx context.Context, recruiterID uuid.UUID, since time.Time) (int, error)
}

type PostgresSearchNotificationRepository struct {
	db database.DB
}

func NewPostgresSearchNotificationRepository(db database.DB) *PostgresSearchNotificationRepository {
	return &PostgresSearchNotificationRepository{db: db}
}

func (r *PostgresSearchNotificationRepository) Create(ctx context.Context, n match.SearchNotification) (match.SearchNotification, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO search_notifications (id, saved_search_id, notification_type, sent_at, matches_count, is_read, email_sent)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		n.ID,
		n.SavedSearchID,
		string(n.NotificationType),
		n.SentAt,
		n.MatchesCount,
		n.IsRead,
		n.EmailSent,
	)
	if err != nil {
		return match.SearchNotification{}, err
	}
	return n, nil
}

func (r *PostgresSearchNotificationRepository) ListByRecruiter(ctx context.Context, recruiterID uuid.UUID, limit, offset int) ([]match.SearchNotification, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM search_notifications sn
		 JOIN saved_searches ss ON ss.id = sn.saved_search_id
		 WHERE ss.recruiter_id = $1`,
		recruiterID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT sn.id, sn.saved_search_id, ss.name, sn.notification_type, sn.sent_at,
		        sn.matches_count, sn.is_read, sn.email_sent
		 FROM search_notifications sn
		 JOIN saved_searches ss ON ss.id = sn.saved_search_id
		 WHERE ss.recruiter_id = $1
		 ORDER BY sn.sent_at DESC, sn.id ASC
		 LIMIT $2 OFFSET $3`,
		recruiterID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]match.SearchNotification, 0)
	for rows.Next() {
		var (
			n   match.SearchNotification
			typ string
		)
		if err := rows.Scan(&n.ID, &n.SavedSearchID, &n.SavedSearchName, &typ, &n.SentAt, &n.MatchesCount, &n.IsRead, &n.EmailSent); err != nil {
			return nil, 0, err
		}
		n.NotificationType = savedsearch.Frequency(typ)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresSearchNotificationRepository) UnreadCount(ctx context.Context, recruiterID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM search_notifications sn
		 JOIN saved_searches ss ON ss.id = sn.saved_search_id
		 WHERE ss.recruiter_id = $1 AND sn.is_read = FALSE`,
		recruiterID,
	).Scan(&n)
	return n, err
}

// MarkRead only touches notifications owned by the recruiter.
func (r *PostgresSearchNotificationRepository) MarkRead(ctx context.Context, id, recruiterID uuid.UUID) error {
	n, err := r.db.Exec(ctx,
		`UPDATE search_notifications sn SET is_read = TRUE
		 FROM saved_searches ss
		 WHERE sn.id = $1 AND ss.id = sn.saved_search_id AND ss.recruiter_id = $2`,
		id, recruiterID,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PostgresSearchNotificationRepository) CountSince(ctx context.Context, recruiterID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM search_notifications sn
		 JOIN saved_searches ss ON ss.id = sn.saved_search_id
		 WHERE ss.recruiter_id = $1 AND sn.sent_at >= $2`,
		recruiterID, since,
	).Scan(&n)
	return n, err
}
