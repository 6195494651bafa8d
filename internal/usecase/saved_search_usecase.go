package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lockedin/internal/domain/matching"
	"lockedin/internal/domain/profile"
	"lockedin/internal/domain/savedsearch"
	"lockedin/internal/domain/user"
	"lockedin/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const ResultsPageSize = 12

type CreateSavedSearchInput struct {
	Name                  string   `json:"name" validate:"required,max=100"`
	Description           string   `json:"description" validate:"max=1000"`
	Skills                []string `json:"skills" validate:"max=50,dive,max=100"`
	Location              string   `json:"location" validate:"max=100"`
	ExperienceLevel       string   `json:"experience_level" validate:"omitempty,oneof=entry mid senior executive"`
	EmploymentType        string   `json:"employment_type" validate:"omitempty,oneof=full_time part_time contract internship"`
	NotifyOnNewMatches    *bool    `json:"notify_on_new_matches"`
	NotificationFrequency string   `json:"notification_frequency" validate:"omitempty,oneof=immediate daily weekly"`
}

// UpdateSavedSearchInput replaces a search's criteria and settings. Omitted
// notify_on_new_matches and notification_frequency keep their current values.
type UpdateSavedSearchInput = CreateSavedSearchInput

var validate = validator.New()

func (in *CreateSavedSearchInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

type SavedSearchSummary struct {
	Search  savedsearch.SavedSearch
	Pending int
	State   savedsearch.State
}

type SearchResultsPage struct {
	Search     savedsearch.SavedSearch `json:"-"`
	Candidates []profile.Candidate     `json:"candidates"`
	Page       int                     `json:"page"`
	TotalPages int                     `json:"total_pages"`
	Total      int                     `json:"total"`
}

type SavedSearchUsecase interface {
	List(ctx context.Context, actor user.Actor) ([]SavedSearchSummary, error)
	Create(ctx context.Context, actor user.Actor, in CreateSavedSearchInput) (savedsearch.SavedSearch, error)
	Update(ctx context.Context, actor user.Actor, id uuid.UUID, in UpdateSavedSearchInput) (savedsearch.SavedSearch, error)
	SetActive(ctx context.Context, actor user.Actor, id uuid.UUID, active bool) (savedsearch.SavedSearch, error)
	Delete(ctx context.Context, actor user.Actor, id uuid.UUID) error
	Results(ctx context.Context, actor user.Actor, id uuid.UUID, page int) (SearchResultsPage, error)
}

type SavedSearches struct {
	searches  repository.SavedSearchRepository
	tracker   *MatchTracker
	evaluator CandidateEvaluator
	cache     SearchCache
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewSavedSearchUsecase(searches repository.SavedSearchRepository, tracker *MatchTracker, evaluator CandidateEvaluator, cache SearchCache, ttl time.Duration, logger *zap.Logger) *SavedSearches {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SavedSearches{
		searches:  searches,
		tracker:   tracker,
		evaluator: evaluator,
		cache:     cache,
		ttl:       ttl,
		logger:    logger.Named("saved_search"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RecruiterOf returns the recruiter id the actor acts as. Only recruiters own
// saved searches.
func RecruiterOf(actor user.Actor) (uuid.UUID, error) {
	switch r := actor.Role.(type) {
	case user.Recruiter:
		return r.RecruiterID, nil
	case user.JobSeeker, user.Admin:
		return uuid.Nil, ErrForbidden
	case nil:
		return uuid.Nil, ErrUnauthorized
	default:
		return uuid.Nil, ErrForbidden
	}
}

func (u *SavedSearches) List(ctx context.Context, actor user.Actor) ([]SavedSearchSummary, error) {
	recruiterID, err := RecruiterOf(actor)
	if err != nil {
		return nil, err
	}

	list, err := u.searches.ListByRecruiter(ctx, recruiterID)
	if err != nil {
		u.logger.Error("list saved searches failed", zap.Error(err))
		return nil, ErrInternal
	}

	now := u.now()
	out := make([]SavedSearchSummary, 0, len(list))
	for _, s := range list {
		pending, err := u.tracker.CountPending(ctx, s.ID)
		if err != nil {
			u.logger.Error("count pending failed", zap.String("saved_search_id", s.ID.String()), zap.Error(err))
			return nil, ErrInternal
		}
		out = append(out, SavedSearchSummary{Search: s, Pending: pending, State: savedsearch.StateOf(s, pending, now)})
	}
	return out, nil
}

func (u *SavedSearches) Create(ctx context.Context, actor user.Actor, in CreateSavedSearchInput) (savedsearch.SavedSearch, error) {
	recruiterID, err := RecruiterOf(actor)
	if err != nil {
		return savedsearch.SavedSearch{}, err
	}
	if err := in.Validate(); err != nil {
		return savedsearch.SavedSearch{}, err
	}

	freq := savedsearch.Frequency(in.NotificationFrequency)
	if freq == "" {
		freq = savedsearch.FrequencyDaily
	}
	notify := true
	if in.NotifyOnNewMatches != nil {
		notify = *in.NotifyOnNewMatches
	}

	s := savedsearch.SavedSearch{
		ID:          uuid.New(),
		RecruiterID: recruiterID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Criteria: savedsearch.Criteria{
			Skills:          matching.Normalize(in.Skills),
			Location:        strings.TrimSpace(in.Location),
			ExperienceLevel: savedsearch.ExperienceLevel(in.ExperienceLevel),
			EmploymentType:  savedsearch.EmploymentType(in.EmploymentType),
		},
		IsActive:           true,
		NotifyOnNewMatches: notify,
		Frequency:          freq,
		CreatedAt:          u.now(),
	}

	created, err := u.searches.Create(ctx, s)
	if err != nil {
		u.logger.Error("create saved search failed", zap.Error(err))
		return savedsearch.SavedSearch{}, ErrInternal
	}
	u.logger.Info("saved search created",
		zap.String("saved_search_id", created.ID.String()),
		zap.Stringer("actor", actor),
	)
	return created, nil
}

// Update edits the criteria of an owned search. Matches found so far stay as
// they are; the next reconcile only adds candidates new to the search.
func (u *SavedSearches) Update(ctx context.Context, actor user.Actor, id uuid.UUID, in UpdateSavedSearchInput) (savedsearch.SavedSearch, error) {
	recruiterID, err := RecruiterOf(actor)
	if err != nil {
		return savedsearch.SavedSearch{}, err
	}
	if err := in.Validate(); err != nil {
		return savedsearch.SavedSearch{}, err
	}

	s, err := u.searches.GetForRecruiter(ctx, id, recruiterID)
	if err != nil {
		return savedsearch.SavedSearch{}, u.mapErr(err)
	}

	s.Name = in.Name
	s.Description = strings.TrimSpace(in.Description)
	s.Criteria = savedsearch.Criteria{
		Skills:          matching.Normalize(in.Skills),
		Location:        strings.TrimSpace(in.Location),
		ExperienceLevel: savedsearch.ExperienceLevel(in.ExperienceLevel),
		EmploymentType:  savedsearch.EmploymentType(in.EmploymentType),
	}
	if in.NotifyOnNewMatches != nil {
		s.NotifyOnNewMatches = *in.NotifyOnNewMatches
	}
	if in.NotificationFrequency != "" {
		s.Frequency = savedsearch.Frequency(in.NotificationFrequency)
	}

	updated, err := u.searches.Update(ctx, s)
	if err != nil {
		return savedsearch.SavedSearch{}, u.mapErr(err)
	}
	u.invalidate(ctx, id)
	u.logger.Info("saved search updated", zap.String("saved_search_id", id.String()), zap.Stringer("actor", actor))
	return updated, nil
}

func (u *SavedSearches) SetActive(ctx context.Context, actor user.Actor, id uuid.UUID, active bool) (savedsearch.SavedSearch, error) {
	recruiterID, err := RecruiterOf(actor)
	if err != nil {
		return savedsearch.SavedSearch{}, err
	}
	s, err := u.searches.SetActive(ctx, id, recruiterID, active)
	if err != nil {
		return savedsearch.SavedSearch{}, u.mapErr(err)
	}
	u.invalidate(ctx, id)
	u.logger.Info("saved search toggled",
		zap.String("saved_search_id", id.String()),
		zap.Bool("active", active),
		zap.Stringer("actor", actor),
	)
	return s, nil
}

// Delete removes the search together with its match and notification history.
func (u *SavedSearches) Delete(ctx context.Context, actor user.Actor, id uuid.UUID) error {
	recruiterID, err := RecruiterOf(actor)
	if err != nil {
		return err
	}
	if err := u.searches.Delete(ctx, id, recruiterID); err != nil {
		return u.mapErr(err)
	}
	u.invalidate(ctx, id)
	u.logger.Info("saved search deleted", zap.String("saved_search_id", id.String()), zap.Stringer("actor", actor))
	return nil
}

// Results runs the search ad hoc and returns one page of candidates. It does
// not touch match state.
func (u *SavedSearches) Results(ctx context.Context, actor user.Actor, id uuid.UUID, page int) (SearchResultsPage, error) {
	recruiterID, err := RecruiterOf(actor)
	if err != nil {
		return SearchResultsPage{}, err
	}
	s, err := u.searches.GetForRecruiter(ctx, id, recruiterID)
	if err != nil {
		return SearchResultsPage{}, u.mapErr(err)
	}
	if page < 1 {
		page = 1
	}

	key := SavedSearchResultsCacheKey(s.ID, s.Criteria, page)
	if u.cache != nil {
		var cached SearchResultsPage
		if ok, err := u.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			cached.Search = s
			return cached, nil
		}
	}

	all, err := u.evaluator.Evaluate(ctx, s.Criteria)
	if err != nil {
		u.logger.Error("evaluate saved search failed", zap.String("saved_search_id", s.ID.String()), zap.Error(err))
		return SearchResultsPage{}, ErrInternal
	}

	out := paginate(all, page, ResultsPageSize)
	out.Search = s

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, out, u.ttl); err != nil {
			u.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

func (u *SavedSearches) invalidate(ctx context.Context, id uuid.UUID) {
	if u.cache == nil {
		return
	}
	if err := u.cache.DeleteByPattern(ctx, SavedSearchResultsCachePrefix(id)+"*"); err != nil {
		u.logger.Debug("cache invalidation failed", zap.String("saved_search_id", id.String()), zap.Error(err))
	}
}

func (u *SavedSearches) mapErr(err error) error {
	if errors.Is(err, repository.ErrSavedSearchNotFound) {
		return ErrNotFound
	}
	u.logger.Error("saved search repository error", zap.Error(err))
	return ErrInternal
}

// paginate clamps page into [1, last]; an empty result is page 1 of 1.
func paginate(all []profile.Candidate, page, size int) SearchResultsPage {
	total := len(all)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	items := make([]profile.Candidate, 0, end-start)
	items = append(items, all[start:end]...)
	return SearchResultsPage{Candidates: items, Page: page, TotalPages: pages, Total: total}
}
