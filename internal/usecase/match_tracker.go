package usecase

import (
	"context"
	"fmt"
	"time"

	"lockedin/internal/domain/match"
	"lockedin/internal/domain/savedsearch"
	"lockedin/internal/domain/user"
	"lockedin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MatchTracker keeps search_matches in step with what a saved search
// currently returns. Rows are only ever added or consumed, never removed.
type MatchTracker struct {
	evaluator CandidateEvaluator
	matches   repository.SearchMatchRepository
	searches  repository.SavedSearchRepository
	logger    *zap.Logger
}

func NewMatchTracker(evaluator CandidateEvaluator, matches repository.SearchMatchRepository, searches repository.SavedSearchRepository, logger *zap.Logger) *MatchTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchTracker{evaluator: evaluator, matches: matches, searches: searches, logger: logger.Named("tracker")}
}

// Reconcile records every currently matching candidate that has no match row
// yet and returns only the rows created by this call.
func (t *MatchTracker) Reconcile(ctx context.Context, s savedsearch.SavedSearch, now time.Time) ([]match.SearchMatch, error) {
	fresh, err := t.diff(ctx, s)
	if err != nil {
		return nil, err
	}

	created, err := t.matches.CreateIfAbsent(ctx, s.ID, fresh, now)
	if err != nil {
		return nil, fmt.Errorf("record matches for %s: %w", s.ID, err)
	}

	if err := t.searches.TouchLastSearch(ctx, s.ID, now); err != nil {
		t.logger.Warn("last_search_at not updated", zap.String("saved_search_id", s.ID.String()), zap.Error(err))
	}

	if len(created) > 0 {
		t.logger.Info("new matches recorded",
			zap.String("saved_search_id", s.ID.String()),
			zap.Int("new", len(created)),
		)
	}
	return created, nil
}

// Preview returns the candidate ids Reconcile would record, without writing.
func (t *MatchTracker) Preview(ctx context.Context, s savedsearch.SavedSearch) ([]uuid.UUID, error) {
	return t.diff(ctx, s)
}

func (t *MatchTracker) Pending(ctx context.Context, searchID uuid.UUID) ([]match.SearchMatch, error) {
	p, err := t.matches.ListPending(ctx, searchID)
	if err != nil {
		return nil, fmt.Errorf("list pending for %s: %w", searchID, err)
	}
	return p, nil
}

func (t *MatchTracker) CountPending(ctx context.Context, searchID uuid.UUID) (int, error) {
	n, err := t.matches.CountPending(ctx, searchID)
	if err != nil {
		return 0, fmt.Errorf("count pending for %s: %w", searchID, err)
	}
	return n, nil
}

// Consume marks all pending matches notified and stamps the search with now
// and the acting principal.
func (t *MatchTracker) Consume(ctx context.Context, s savedsearch.SavedSearch, actor user.Actor, now time.Time) (int64, error) {
	n, err := t.matches.ConsumePending(ctx, s.ID, actor.String(), now)
	if err != nil {
		return 0, fmt.Errorf("consume matches for %s: %w", s.ID, err)
	}
	t.logger.Debug("matches consumed",
		zap.String("saved_search_id", s.ID.String()),
		zap.Int64("count", n),
		zap.Stringer("actor", actor),
	)
	return n, nil
}

func (t *MatchTracker) diff(ctx context.Context, s savedsearch.SavedSearch) ([]uuid.UUID, error) {
	current, err := t.evaluator.Evaluate(ctx, s.Criteria)
	if err != nil {
		return nil, err
	}

	known, err := t.matches.KnownCandidateIDs(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("known matches for %s: %w", s.ID, err)
	}

	fresh := make([]uuid.UUID, 0)
	for _, c := range current {
		if _, ok := known[c.ID]; ok {
			continue
		}
		fresh = append(fresh, c.ID)
	}
	return fresh, nil
}
