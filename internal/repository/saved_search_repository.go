package repository

import (
	"context"
	"errors"
	"time"

	"lockedin/internal/database"
	"lockedin/internal/domain/savedsearch"

	"github.com/google/uuid"
)

var ErrSavedSearchNotFound = errors.New("saved search not found")

type SavedSearchRepository interface {
	Create(ctx context.Context, s savedsearch.SavedSearch) (savedsearch.SavedSearch, error)
	GetByID(ctx context.Context, id uuid.UUID) (savedsearch.SavedSearch, error)
	GetForRecruiter(ctx context.Context, id, recruiterID uuid.UUID) (savedsearch.SavedSearch, error)
	ListByRecruiter(ctx context.Context, recruiterID uuid.UUID) ([]savedsearch.SavedSearch, error)
	// ListNotifiable returns active searches with notifications enabled. A
	// non-nil onlyID restricts the result to that search.
	ListNotifiable(ctx context.Context, onlyID *uuid.UUID) ([]savedsearch.SavedSearch, error)
	// Update replaces the editable fields and the skill rows of a search owned
	// by s.RecruiterID. Match history is left alone.
	Update(ctx context.Context, s savedsearch.SavedSearch) (savedsearch.SavedSearch, error)
	SetActive(ctx context.Context, id, recruiterID uuid.UUID, active bool) (savedsearch.SavedSearch, error)
	Delete(ctx context.Context, id, recruiterID uuid.UUID) error
	TouchLastSearch(ctx context.Context, id uuid.UUID, at time.Time) error
	CountNotifiableByRecruiter(ctx context.Context, recruiterID uuid.UUID) (int, error)
}

type PostgresSavedSearchRepository struct {
	db database.DB
}

func NewPostgresSavedSearchRepository(db database.DB) *PostgresSavedSearchRepository {
	return &PostgresSavedSearchRepository{db: db}
}

const savedSearchSelect = `
SELECT ss.id, ss.recruiter_id, ss.name, ss.description, ss.location,
       ss.experience_level, ss.employment_type,
       ss.is_active, ss.notify_on_new_matches, ss.notification_frequency,
       ss.last_notified_at, ss.last_notified_by, ss.last_search_at,
       ss.created_at, ss.updated_at,
       COALESCE(
         (SELECT array_agg(sk.name ORDER BY sk.name) FROM saved_search_skills sk WHERE sk.saved_search_id = ss.id),
         '{}'::text[]
       ) AS skills
FROM saved_searches ss`

func (r *PostgresSavedSearchRepository) Create(ctx context.Context, s savedsearch.SavedSearch) (savedsearch.SavedSearch, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = s.CreatedAt

	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO saved_searches (
				id, recruiter_id, name, description, location, experience_level, employment_type,
				is_active, notify_on_new_matches, notification_frequency, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			s.ID,
			s.RecruiterID,
			s.Name,
			s.Description,
			s.Criteria.Location,
			nullableEnum(string(s.Criteria.ExperienceLevel)),
			nullableEnum(string(s.Criteria.EmploymentType)),
			s.IsActive,
			s.NotifyOnNewMatches,
			string(s.Frequency),
			s.CreatedAt,
			s.UpdatedAt,
		)
		if err != nil {
			return err
		}

		for _, name := range s.Criteria.Skills {
			if _, err := tx.Exec(ctx,
				`INSERT INTO saved_search_skills (saved_search_id, name) VALUES ($1,$2)
				 ON CONFLICT (saved_search_id, name) DO NOTHING`,
				s.ID, name,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return savedsearch.SavedSearch{}, err
	}
	return s, nil
}

func (r *PostgresSavedSearchRepository) Update(ctx context.Context, s savedsearch.SavedSearch) (savedsearch.SavedSearch, error) {
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`UPDATE saved_searches SET
				name = $3, description = $4, location = $5, experience_level = $6, employment_type = $7,
				notify_on_new_matches = $8, notification_frequency = $9, updated_at = $10
			 WHERE id = $1 AND recruiter_id = $2`,
			s.ID,
			s.RecruiterID,
			s.Name,
			s.Description,
			s.Criteria.Location,
			nullableEnum(string(s.Criteria.ExperienceLevel)),
			nullableEnum(string(s.Criteria.EmploymentType)),
			s.NotifyOnNewMatches,
			string(s.Frequency),
			time.Now().UTC(),
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrSavedSearchNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM saved_search_skills WHERE saved_search_id = $1`, s.ID); err != nil {
			return err
		}
		for _, name := range s.Criteria.Skills {
			if _, err := tx.Exec(ctx,
				`INSERT INTO saved_search_skills (saved_search_id, name) VALUES ($1,$2)
				 ON CONFLICT (saved_search_id, name) DO NOTHING`,
				s.ID, name,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return savedsearch.SavedSearch{}, err
	}
	return r.GetForRecruiter(ctx, s.ID, s.RecruiterID)
}

func (r *PostgresSavedSearchRepository) GetByID(ctx context.Context, id uuid.UUID) (savedsearch.SavedSearch, error) {
	return r.getOne(ctx, savedSearchSelect+` WHERE ss.id = $1`, id)
}

func (r *PostgresSavedSearchRepository) GetForRecruiter(ctx context.Context, id, recruiterID uuid.UUID) (savedsearch.SavedSearch, error) {
	return r.getOne(ctx, savedSearchSelect+` WHERE ss.id = $1 AND ss.recruiter_id = $2`, id, recruiterID)
}

func (r *PostgresSavedSearchRepository) ListByRecruiter(ctx context.Context, recruiterID uuid.UUID) ([]savedsearch.SavedSearch, error) {
	return r.list(ctx, savedSearchSelect+` WHERE ss.recruiter_id = $1 ORDER BY ss.created_at DESC, ss.id ASC`, recruiterID)
}

func (r *PostgresSavedSearchRepository) ListNotifiable(ctx context.Context, onlyID *uuid.UUID) ([]savedsearch.SavedSearch, error) {
	return r.list(ctx,
		savedSearchSelect+`
		 WHERE ss.is_active = TRUE AND ss.notify_on_new_matches = TRUE
		   AND ($1::uuid IS NULL OR ss.id = $1::uuid)
		 ORDER BY ss.created_at ASC, ss.id ASC`,
		onlyID,
	)
}

func (r *PostgresSavedSearchRepository) SetActive(ctx context.Context, id, recruiterID uuid.UUID, active bool) (savedsearch.SavedSearch, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE saved_searches SET is_active = $3, updated_at = $4 WHERE id = $1 AND recruiter_id = $2`,
		id, recruiterID, active, time.Now().UTC(),
	)
	if err != nil {
		return savedsearch.SavedSearch{}, err
	}
	if n == 0 {
		return savedsearch.SavedSearch{}, ErrSavedSearchNotFound
	}
	return r.GetForRecruiter(ctx, id, recruiterID)
}

// Delete removes the search; skills, matches and notifications cascade.
func (r *PostgresSavedSearchRepository) Delete(ctx context.Context, id, recruiterID uuid.UUID) error {
	n, err := r.db.Exec(ctx, `DELETE FROM saved_searches WHERE id = $1 AND recruiter_id = $2`, id, recruiterID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSavedSearchNotFound
	}
	return nil
}

func (r *PostgresSavedSearchRepository) TouchLastSearch(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE saved_searches SET last_search_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *PostgresSavedSearchRepository) CountNotifiableByRecruiter(ctx context.Context, recruiterID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM saved_searches
		 WHERE recruiter_id = $1 AND is_active = TRUE AND notify_on_new_matches = TRUE`,
		recruiterID,
	).Scan(&n)
	return n, err
}

func (r *PostgresSavedSearchRepository) getOne(ctx context.Context, query string, args ...any) (savedsearch.SavedSearch, error) {
	s, err := scanSavedSearch(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if database.IsNoRows(err) {
			return savedsearch.SavedSearch{}, ErrSavedSearchNotFound
		}
		return savedsearch.SavedSearch{}, err
	}
	return s, nil
}

func (r *PostgresSavedSearchRepository) list(ctx context.Context, query string, args ...any) ([]savedsearch.SavedSearch, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]savedsearch.SavedSearch, 0)
	for rows.Next() {
		s, err := scanSavedSearch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSavedSearch(row database.Row) (savedsearch.SavedSearch, error) {
	var (
		s         savedsearch.SavedSearch
		level     *string
		empType   *string
		frequency string
	)
	if err := row.Scan(
		&s.ID,
		&s.RecruiterID,
		&s.Name,
		&s.Description,
		&s.Criteria.Location,
		&level,
		&empType,
		&s.IsActive,
		&s.NotifyOnNewMatches,
		&frequency,
		&s.LastNotifiedAt,
		&s.LastNotifiedBy,
		&s.LastSearchAt,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.Criteria.Skills,
	); err != nil {
		return savedsearch.SavedSearch{}, err
	}
	if level != nil {
		s.Criteria.ExperienceLevel = savedsearch.ExperienceLevel(*level)
	}
	if empType != nil {
		s.Criteria.EmploymentType = savedsearch.EmploymentType(*empType)
	}
	s.Frequency = savedsearch.Frequency(frequency)
	return s, nil
}

func nullableEnum(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
