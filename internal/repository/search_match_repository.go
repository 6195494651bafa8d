package repository

import (
	"context"
	"time"

	"lockedin/internal/database"
	"lockedin/internal/domain/match"

	"github.com/google/uuid"
)

type SearchMatchRepository interface {
	KnownCandidateIDs(ctx context.Context, searchID uuid.UUID) (map[uuid.UUID]struct{}, error)
	// CreateIfAbsent inserts a pending match for every candidate that has no
	// row yet and returns only the rows it created.
	CreateIfAbsent(ctx context.Context, searchID uuid.UUID, candidateIDs []uuid.UUID, at time.Time) ([]match.SearchMatch, error)
	ListPending(ctx context.Context, searchID uuid.UUID) ([]match.SearchMatch, error)
	CountPending(ctx context.Context, searchID uuid.UUID) (int, error)
	// ConsumePending marks every pending match of the search as notified and
	// stamps the search's last_notified_at/by in one transaction. It returns
	// the number of matches consumed.
	ConsumePending(ctx context.Context, searchID uuid.UUID, actor string, at time.Time) (int64, error)
}

type PostgresSearchMatchRepository struct {
	db database.DB
}

func NewPostgresSearchMatchRepository(db database.DB) *PostgresSearchMatchRepository {
	return &PostgresSearchMatchRepository{db: db}
}

func (r *PostgresSearchMatchRepository) KnownCandidateIDs(ctx context.Context, searchID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT candidate_id FROM search_matches WHERE saved_search_id = $1`, searchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[uuid.UUID]struct{}{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresSearchMatchRepository) CreateIfAbsent(ctx context.Context, searchID uuid.UUID, candidateIDs []uuid.UUID, at time.Time) ([]match.SearchMatch, error) {
	if searchID == uuid.Nil || len(candidateIDs) == 0 {
		return []match.SearchMatch{}, nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	created := make([]match.SearchMatch, 0, len(candidateIDs))
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		for _, cid := range candidateIDs {
			m := match.SearchMatch{
				ID:            uuid.New(),
				SavedSearchID: searchID,
				CandidateID:   cid,
				MatchedAt:     at,
				IsNewMatch:    true,
			}
			var id uuid.UUID
			err := tx.QueryRow(ctx,
				`INSERT INTO search_matches (id, saved_search_id, candidate_id, matched_at, is_new_match, notified)
				 VALUES ($1,$2,$3,$4,TRUE,FALSE)
				 ON CONFLICT (saved_search_id, candidate_id) DO NOTHING
				 RETURNING id`,
				m.ID, m.SavedSearchID, m.CandidateID, m.MatchedAt,
			).Scan(&id)
			if err != nil {
				if database.IsNoRows(err) {
					continue
				}
				return err
			}
			created = append(created, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *PostgresSearchMatchRepository) ListPending(ctx context.Context, searchID uuid.UUID) ([]match.SearchMatch, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, saved_search_id, candidate_id, matched_at, is_new_match, notified
		 FROM search_matches
		 WHERE saved_search_id = $1 AND is_new_match = TRUE AND notified = FALSE
		 ORDER BY matched_at DESC, id ASC`,
		searchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]match.SearchMatch, 0)
	for rows.Next() {
		var m match.SearchMatch
		if err := rows.Scan(&m.ID, &m.SavedSearchID, &m.CandidateID, &m.MatchedAt, &m.IsNewMatch, &m.Notified); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresSearchMatchRepository) CountPending(ctx context.Context, searchID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM search_matches
		 WHERE saved_search_id = $1 AND is_new_match = TRUE AND notified = FALSE`,
		searchID,
	).Scan(&n)
	return n, err
}

func (r *PostgresSearchMatchRepository) ConsumePending(ctx context.Context, searchID uuid.UUID, actor string, at time.Time) (int64, error) {
	var consumed int64
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`UPDATE search_matches SET is_new_match = FALSE, notified = TRUE
			 WHERE saved_search_id = $1 AND is_new_match = TRUE AND notified = FALSE`,
			searchID,
		)
		if err != nil {
			return err
		}
		consumed = n

		_, err = tx.Exec(ctx,
			`UPDATE saved_searches SET last_notified_at = $2, last_notified_by = $3 WHERE id = $1`,
			searchID, at, actor,
		)
		return err
	})
	if err != nil {
		return 0, err
	}
	return consumed, nil
}
