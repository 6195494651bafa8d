package usecase

import (
	"context"
	"errors"
	"time"

	"lockedin/internal/domain/job"
	"lockedin/internal/domain/matching"
	"lockedin/internal/domain/profile"
	"lockedin/internal/domain/recommendation"
	"lockedin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MatchSummary struct {
	Score          float64  `json:"score"`
	Percentage     float64  `json:"percentage"`
	ExactMatches   []string `json:"exact_matches"`
	PartialMatches []string `json:"partial_matches"`
	Missing        []string `json:"missing"`
	Bucket         string   `json:"bucket"`
}

type JobRecommendationItem struct {
	JobID          uuid.UUID     `json:"job_id"`
	Title          string        `json:"title"`
	Company        string        `json:"company"`
	Location       string        `json:"location"`
	RequiredSkills []string      `json:"required_skills"`
	Match          *MatchSummary `json:"match,omitempty"`
}

type JobRecommendations struct {
	Mode      recommendation.Mode     `json:"mode"`
	Items     []JobRecommendationItem `json:"items"`
	High      []JobRecommendationItem `json:"high"`
	Medium    []JobRecommendationItem `json:"medium"`
	Potential []JobRecommendationItem `json:"potential"`
}

type BestJobMatch struct {
	JobID      uuid.UUID `json:"job_id"`
	Title      string    `json:"title"`
	Percentage float64   `json:"percentage"`
}

type CandidateRecommendationItem struct {
	CandidateID uuid.UUID     `json:"candidate_id"`
	Headline    string        `json:"headline"`
	Location    string        `json:"location"`
	Skills      []string      `json:"skills"`
	Match       *MatchSummary `json:"match,omitempty"`
	BestJob     *BestJobMatch `json:"best_job,omitempty"`
}

type CandidateRecommendations struct {
	Mode          recommendation.Mode           `json:"mode"`
	TotalRequired int                           `json:"total_required"`
	Items         []CandidateRecommendationItem `json:"items"`
	High          []CandidateRecommendationItem `json:"high"`
	Medium        []CandidateRecommendationItem `json:"medium"`
	Potential     []CandidateRecommendationItem `json:"potential"`
}

type RecommendationUsecase interface {
	ForJobSeeker(ctx context.Context, candidateID uuid.UUID) (JobRecommendations, error)
	ForRecruiter(ctx context.Context, recruiterID uuid.UUID) (CandidateRecommendations, error)
}

type Recommendation struct {
	jobs       repository.JobRepository
	candidates repository.CandidateRepository
	cache      SearchCache
	ttl        time.Duration
	logger     *zap.Logger
}

func NewRecommendationUsecase(jobs repository.JobRepository, candidates repository.CandidateRepository, cache SearchCache, ttl time.Duration, logger *zap.Logger) *Recommendation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommendation{jobs: jobs, candidates: candidates, cache: cache, ttl: ttl, logger: logger.Named("recommendation")}
}

func (u *Recommendation) ForJobSeeker(ctx context.Context, candidateID uuid.UUID) (JobRecommendations, error) {
	if candidateID == uuid.Nil {
		return JobRecommendations{}, ErrUnauthorized
	}

	// not cached: the applied-job exclusion must reflect applications made
	// a moment ago
	me, err := u.candidates.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, repository.ErrCandidateNotFound) {
			return JobRecommendations{}, ErrNotFound
		}
		u.logger.Error("load candidate failed", zap.Error(err))
		return JobRecommendations{}, ErrInternal
	}

	postings, err := u.jobs.ListOpenPostings(ctx)
	if err != nil {
		u.logger.Error("list postings failed", zap.Error(err))
		return JobRecommendations{}, ErrInternal
	}
	applied, err := u.jobs.AppliedJobIDs(ctx, candidateID)
	if err != nil {
		u.logger.Error("list applications failed", zap.Error(err))
		return JobRecommendations{}, ErrInternal
	}

	corpus := make([]recommendation.Item, 0, len(postings))
	for _, p := range postings {
		corpus = append(corpus, recommendation.Item{ID: p.ID, SkillNames: p.RequiredSkillNames})
	}

	res := recommendation.Rank(me.SkillNames, corpus, recommendation.Options{Exclude: applied})

	out := JobRecommendations{Mode: res.Mode}
	out.Items = jobItems(res.Entries, postings, res.Mode)
	out.High = jobItems(res.High, postings, res.Mode)
	out.Medium = jobItems(res.Medium, postings, res.Mode)
	out.Potential = jobItems(res.Potential, postings, res.Mode)
	return out, nil
}

func (u *Recommendation) ForRecruiter(ctx context.Context, recruiterID uuid.UUID) (CandidateRecommendations, error) {
	if recruiterID == uuid.Nil {
		return CandidateRecommendations{}, ErrUnauthorized
	}

	key := RecruiterRecommendationsCacheKey(recruiterID)
	var cached CandidateRecommendations
	if u.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	postings, err := u.jobs.ListOpenPostingsByRecruiter(ctx, recruiterID)
	if err != nil {
		u.logger.Error("list recruiter postings failed", zap.Error(err))
		return CandidateRecommendations{}, ErrInternal
	}
	if len(postings) == 0 {
		out := emptyCandidateRecommendations(recommendation.ModeNoJobs)
		u.cacheSet(ctx, key, out)
		return out, nil
	}

	required := make([]string, 0)
	for _, p := range postings {
		required = append(required, p.RequiredSkillNames...)
	}
	required = matching.Normalize(required)

	pool, err := u.candidates.FindPublicCandidates(ctx, repository.CandidateFilter{})
	if err != nil {
		u.logger.Error("list candidates failed", zap.Error(err))
		return CandidateRecommendations{}, ErrInternal
	}

	corpus := make([]recommendation.Item, 0, len(pool))
	for _, c := range pool {
		corpus = append(corpus, recommendation.Item{ID: c.ID, SkillNames: c.SkillNames})
	}

	res := recommendation.Rank(required, corpus, recommendation.Options{})

	out := CandidateRecommendations{Mode: res.Mode, TotalRequired: len(required)}
	out.Items = candidateItems(res.Entries, pool, postings, res.Mode)
	out.High = candidateItems(res.High, pool, postings, res.Mode)
	out.Medium = candidateItems(res.Medium, pool, postings, res.Mode)
	out.Potential = candidateItems(res.Potential, pool, postings, res.Mode)

	u.cacheSet(ctx, key, out)
	return out, nil
}

func (u *Recommendation) cacheGet(ctx context.Context, key string, out any) bool {
	if u.cache == nil {
		return false
	}
	ok, err := u.cache.GetJSON(ctx, key, out)
	if err != nil {
		u.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (u *Recommendation) cacheSet(ctx context.Context, key string, v any) {
	if u.cache == nil {
		return
	}
	if err := u.cache.SetJSON(ctx, key, v, u.ttl); err != nil {
		u.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func summary(e recommendation.Entry) *MatchSummary {
	return &MatchSummary{
		Score:          e.Match.Score,
		Percentage:     e.Match.Percentage,
		ExactMatches:   e.Match.ExactMatches,
		PartialMatches: e.Match.PartialMatches,
		Missing:        e.Match.Missing,
		Bucket:         string(e.Bucket),
	}
}

func jobItems(entries []recommendation.Entry, postings []job.Posting, mode recommendation.Mode) []JobRecommendationItem {
	out := make([]JobRecommendationItem, 0, len(entries))
	for _, e := range entries {
		p := postings[e.Index]
		it := JobRecommendationItem{
			JobID:          p.ID,
			Title:          p.Title,
			Company:        p.Company,
			Location:       p.Location,
			RequiredSkills: p.RequiredSkillNames,
		}
		if mode == recommendation.ModePersonalized {
			it.Match = summary(e)
		}
		out = append(out, it)
	}
	return out
}

func candidateItems(entries []recommendation.Entry, pool []profile.Candidate, postings []job.Posting, mode recommendation.Mode) []CandidateRecommendationItem {
	out := make([]CandidateRecommendationItem, 0, len(entries))
	for _, e := range entries {
		c := pool[e.Index]
		it := CandidateRecommendationItem{
			CandidateID: c.ID,
			Headline:    c.Headline,
			Location:    c.Location,
			Skills:      c.SkillNames,
		}
		if mode == recommendation.ModePersonalized {
			it.Match = summary(e)
			it.BestJob = BestJobFor(c.SkillNames, postings)
		}
		out = append(out, it)
	}
	return out
}

// BestJobFor returns the posting whose required skills the candidate covers
// with the highest exact ratio. Ties keep the earlier posting; nil when no
// posting has an exact match.
func BestJobFor(candidateSkills []string, postings []job.Posting) *BestJobMatch {
	var (
		best      *job.Posting
		bestRatio float64
	)
	for i := range postings {
		r := matching.ExactRatio(postings[i].RequiredSkillNames, candidateSkills)
		if r > bestRatio {
			bestRatio = r
			best = &postings[i]
		}
	}
	if best == nil {
		return nil
	}
	return &BestJobMatch{JobID: best.ID, Title: best.Title, Percentage: matching.Percentage(bestRatio)}
}

func emptyCandidateRecommendations(mode recommendation.Mode) CandidateRecommendations {
	return CandidateRecommendations{
		Mode:      mode,
		Items:     []CandidateRecommendationItem{},
		High:      []CandidateRecommendationItem{},
		Medium:    []CandidateRecommendationItem{},
		Potential: []CandidateRecommendationItem{},
	}
}
