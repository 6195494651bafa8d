package repository

import (
	"context"

	"lockedin/internal/database"
	"lockedin/internal/domain/job"

	"github.com/google/uuid"
)

type JobRepository interface {
	ListOpenPostings(ctx context.Context) ([]job.Posting, error)
	ListOpenPostingsByRecruiter(ctx context.Context, recruiterID uuid.UUID) ([]job.Posting, error)
	AppliedJobIDs(ctx context.Context, candidateID uuid.UUID) (map[uuid.UUID]struct{}, error)
}

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

const openPostingSelect = `
SELECT jp.id, jp.recruiter_id, jp.title, jp.company, jp.location, jp.is_active,
       jp.status = 'published' AS is_published, jp.posted_at,
       COALESCE(
         (SELECT array_agg(js.name ORDER BY js.name) FROM job_skills js WHERE js.job_id = jp.id),
         '{}'::text[]
       ) AS skills
FROM job_postings jp
WHERE jp.is_active = TRUE AND jp.status = 'published'`

func (r *PostgresJobRepository) ListOpenPostings(ctx context.Context) ([]job.Posting, error) {
	return r.listPostings(ctx, openPostingSelect+` ORDER BY jp.posted_at DESC, jp.id ASC`)
}

func (r *PostgresJobRepository) ListOpenPostingsByRecruiter(ctx context.Context, recruiterID uuid.UUID) ([]job.Posting, error) {
	return r.listPostings(ctx, openPostingSelect+` AND jp.recruiter_id = $1 ORDER BY jp.posted_at DESC, jp.id ASC`, recruiterID)
}

func (r *PostgresJobRepository) listPostings(ctx context.Context, query string, args ...any) ([]job.Posting, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.Posting, 0)
	for rows.Next() {
		var p job.Posting
		if err := rows.Scan(&p.ID, &p.RecruiterID, &p.Title, &p.Company, &p.Location, &p.IsActive, &p.IsPublished, &p.PostedAt, &p.RequiredSkillNames); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresJobRepository) AppliedJobIDs(ctx context.Context, candidateID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT job_id FROM job_applications WHERE candidate_id = $1`, candidateID)
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
