package usecase

import (
	"context"
	"fmt"

	"lockedin/internal/domain/matching"
	"lockedin/internal/domain/profile"
	"lockedin/internal/domain/savedsearch"
	"lockedin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CandidateEvaluator interface {
	Evaluate(ctx context.Context, c savedsearch.Criteria) ([]profile.Candidate, error)
}

// SearchEvaluator turns saved-search criteria into the set of public
// candidates that currently satisfy them.
type SearchEvaluator struct {
	candidates repository.CandidateRepository
	logger     *zap.Logger
}

func NewSearchEvaluator(candidates repository.CandidateRepository, logger *zap.Logger) *SearchEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchEvaluator{candidates: candidates, logger: logger.Named("evaluator")}
}

// Evaluate returns every matching candidate once, in repository order.
func (e *SearchEvaluator) Evaluate(ctx context.Context, c savedsearch.Criteria) ([]profile.Candidate, error) {
	f := CandidateFilterFor(c)
	if c.ExperienceLevel != "" && !c.ExperienceLevel.Valid() {
		e.logger.Debug("unknown experience level ignored", zap.String("experience_level", string(c.ExperienceLevel)))
	}

	found, err := e.candidates.FindPublicCandidates(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(found))
	out := make([]profile.Candidate, 0, len(found))
	for _, cand := range found {
		if !cand.IsPublic {
			continue
		}
		if _, ok := seen[cand.ID]; ok {
			continue
		}
		seen[cand.ID] = struct{}{}
		out = append(out, cand)
	}
	return out, nil
}

// CandidateFilterFor maps criteria onto repository filters.
//
// Experience level is approximated from work history: entry means no work
// experience entries, any other known level means at least one. Employment
// type has no candidate-side data and is not applied. Unknown enum values
// disable their filter.
func CandidateFilterFor(c savedsearch.Criteria) repository.CandidateFilter {
	f := repository.CandidateFilter{
		SkillsAny:        matching.Normalize(c.Skills),
		LocationContains: c.NormalizedLocation(),
	}

	switch c.ExperienceLevel {
	case savedsearch.ExperienceEntry:
		v := false
		f.HasWorkExperience = &v
	case savedsearch.ExperienceMid, savedsearch.ExperienceSenior, savedsearch.ExperienceExecutive:
		v := true
		f.HasWorkExperience = &v
	}

	return f
}
