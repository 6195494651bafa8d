package repository

import (
	"context"
	"errors"

	"lockedin/internal/database"
	"lockedin/internal/domain/profile"

	"github.com/google/uuid"
)

var ErrCandidateNotFound = errors.New("candidate not found")

// CandidateFilter narrows the public candidate pool. Zero values disable a
// filter. SkillsAny keeps candidates with at least one skill that contains, or
// is contained by, one of the names (case-insensitive).
type CandidateFilter struct {
	SkillsAny         []string
	LocationContains  string
	HasWorkExperience *bool
	Limit             int
}

type CandidateRepository interface {
	FindPublicCandidates(ctx context.Context, f CandidateFilter) ([]profile.Candidate, error)
	GetByID(ctx context.Context, id uuid.UUID) (profile.Candidate, error)
}

type PostgresCandidateRepository struct {
	db database.DB
}

func NewPostgresCandidateRepository(db database.DB) *PostgresCandidateRepository {
	return &PostgresCandidateRepository{db: db}
}

const candidateSelect = `
SELECT cp.id, cp.user_id, cp.headline, cp.location, cp.is_public,
       EXISTS (SELECT 1 FROM work_experiences we WHERE we.profile_id = cp.id) AS has_experience,
       COALESCE(
         (SELECT array_agg(cs.name ORDER BY cs.name) FROM candidate_skills cs WHERE cs.profile_id = cp.id),
         '{}'::text[]
       ) AS skills
FROM candidate_profiles cp`

func (r *PostgresCandidateRepository) FindPublicCandidates(ctx context.Context, f CandidateFilter) ([]profile.Candidate, error) {
	skills := make([]string, 0, len(f.SkillsAny))
	for _, s := range f.SkillsAny {
		if s != "" {
			skills = append(skills, s)
		}
	}

	limit := f.Limit
	if limit < 0 {
		limit = 0
	}

	rows, err := r.db.Query(ctx,
		candidateSelect+`
		 WHERE cp.is_public = TRUE
		   AND ($1 = '' OR strpos(lower(cp.location), lower($1)) > 0)
		   AND ($2::boolean IS NULL
		        OR EXISTS (SELECT 1 FROM work_experiences we WHERE we.profile_id = cp.id) = $2::boolean)
		   AND (cardinality($3::text[]) = 0 OR EXISTS (
		        SELECT 1
		        FROM candidate_skills cs, unnest($3::text[]) AS q(name)
		        WHERE cs.profile_id = cp.id
		          AND btrim(cs.name) <> ''
		          AND (strpos(lower(cs.name), lower(btrim(q.name))) > 0
		               OR strpos(lower(btrim(q.name)), lower(cs.name)) > 0)))
		 ORDER BY cp.created_at ASC, cp.id ASC
		 LIMIT NULLIF($4, 0)`,
		f.LocationContains,
		f.HasWorkExperience,
		skills,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profile.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresCandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (profile.Candidate, error) {
	row := r.db.QueryRow(ctx, candidateSelect+` WHERE cp.id = $1`, id)
	c, err := scanCandidate(row)
	if err != nil {
		if database.IsNoRows(err) {
			return profile.Candidate{}, ErrCandidateNotFound
		}
		return profile.Candidate{}, err
	}
	return c, nil
}

func scanCandidate(row database.Row) (profile.Candidate, error) {
	var c profile.Candidate
	if err := row.Scan(&c.ID, &c.UserID, &c.Headline, &c.Location, &c.IsPublic, &c.HasWorkExperience, &c.SkillNames); err != nil {
		return profile.Candidate{}, err
	}
	return c, nil
}
