package usecase

import (
	"context"
	"fmt"
	"testing"

	"lockedin/internal/domain/savedsearch"
	"lockedin/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) savedSearches(cache SearchCache) *SavedSearches {
	return NewSavedSearchUsecase(e.store.SavedSearches(), e.tracker, e.evaluator, cache, 0, nil)
}

func boolPtr(b bool) *bool { return &b }

func TestRecruiterOf(t *testing.T) {
	rid := uuid.New()

	got, err := RecruiterOf(recruiterActor(rid))
	require.NoError(t, err)
	assert.Equal(t, rid, got)

	_, err = RecruiterOf(user.UserActor(uuid.New(), user.JobSeeker{ProfileID: uuid.New()}))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = RecruiterOf(user.UserActor(uuid.New(), user.Admin{}))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = RecruiterOf(user.Actor{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateSavedSearchInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      CreateSavedSearchInput
		wantErr string
	}{
		{name: "minimal", in: CreateSavedSearchInput{Name: "Go devs"}},
		{name: "blank name", in: CreateSavedSearchInput{Name: "   "}, wantErr: "Name"},
		{name: "bad frequency", in: CreateSavedSearchInput{Name: "x", NotificationFrequency: "hourly"}, wantErr: "NotificationFrequency"},
		{name: "bad level", in: CreateSavedSearchInput{Name: "x", ExperienceLevel: "guru"}, wantErr: "ExperienceLevel"},
		{name: "bad employment", in: CreateSavedSearchInput{Name: "x", EmploymentType: "gig"}, wantErr: "EmploymentType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSavedSearches_CreateDefaults(t *testing.T) {
	e := newEnv()
	rid := uuid.New()
	u := e.savedSearches(nil)

	s, err := u.Create(context.Background(), recruiterActor(rid), CreateSavedSearchInput{
		Name:   "  Go devs ",
		Skills: []string{"Go", " go", "", "SQL"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Go devs", s.Name)
	assert.Equal(t, rid, s.RecruiterID)
	assert.Equal(t, []string{"Go", "SQL"}, s.Criteria.Skills)
	assert.Equal(t, savedsearch.FrequencyDaily, s.Frequency)
	assert.True(t, s.NotifyOnNewMatches)
	assert.True(t, s.IsActive)
	assert.Nil(t, s.LastNotifiedAt)

	s, err = u.Create(context.Background(), recruiterActor(rid), CreateSavedSearchInput{
		Name:                  "quiet",
		NotifyOnNewMatches:    boolPtr(false),
		NotificationFrequency: "weekly",
	})
	require.NoError(t, err)
	assert.False(t, s.NotifyOnNewMatches)
	assert.Equal(t, savedsearch.FrequencyWeekly, s.Frequency)
}

func TestSavedSearches_CreateRejectsNonRecruiters(t *testing.T) {
	e := newEnv()
	u := e.savedSearches(nil)

	_, err := u.Create(context.Background(), user.UserActor(uuid.New(), user.JobSeeker{ProfileID: uuid.New()}), CreateSavedSearchInput{Name: "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = u.Create(context.Background(), recruiterActor(uuid.New()), CreateSavedSearchInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSavedSearches_ListShowsPendingAndState(t *testing.T) {
	e := newEnv()
	e.candidate([]string{"Go"}, "", true)
	rid := uuid.New()
	s := e.search(rid, savedsearch.FrequencyImmediate, savedsearch.Criteria{})
	e.search(uuid.New(), savedsearch.FrequencyImmediate, savedsearch.Criteria{})

	_, err := e.tracker.Reconcile(context.Background(), s, t0)
	require.NoError(t, err)

	list, err := e.savedSearches(nil).List(context.Background(), recruiterActor(rid))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].Search.ID)
	assert.Equal(t, 1, list[0].Pending)
	assert.Equal(t, savedsearch.StateDue, list[0].State)
}

func TestSavedSearches_ToggleAndDeleteAreScoped(t *testing.T) {
	e := newEnv()
	owner := uuid.New()
	s := e.search(owner, savedsearch.FrequencyDaily, savedsearch.Criteria{})
	u := e.savedSearches(nil)
	ctx := context.Background()

	_, err := u.SetActive(ctx, recruiterActor(uuid.New()), s.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := u.SetActive(ctx, recruiterActor(owner), s.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, u.Delete(ctx, recruiterActor(uuid.New()), s.ID), ErrNotFound)
	require.NoError(t, u.Delete(ctx, recruiterActor(owner), s.ID))
	_, ok := e.store.Search(s.ID)
	assert.False(t, ok)

	assert.ErrorIs(t, u.Delete(ctx, recruiterActor(owner), s.ID), ErrNotFound)
}

func TestSavedSearches_DeleteCascades(t *testing.T) {
	e := newEnv()
	e.candidate([]string{"Go"}, "", true)
	owner := uuid.New()
	s := e.search(owner, savedsearch.FrequencyImmediate, savedsearch.Criteria{})

	_, err := e.scheduler.RunAllDue(context.Background(), RunOptions{Now: t0})
	require.NoError(t, err)
	require.Len(t, e.store.AuditRows(s.ID), 1)

	require.NoError(t, e.savedSearches(nil).Delete(context.Background(), recruiterActor(owner), s.ID))
	assert.Empty(t, e.store.Matches(s.ID))
	assert.Empty(t, e.store.AuditRows(s.ID))
}

func TestSavedSearches_ResultsPagination(t *testing.T) {
	e := newEnv()
	for i := 0; i < 30; i++ {
		e.candidate([]string{"Go"}, fmt.Sprintf("City %d", i), true)
	}
	owner := uuid.New()
	s := e.search(owner, savedsearch.FrequencyDaily, savedsearch.Criteria{Skills: []string{"Go"}})
	u := e.savedSearches(nil)
	ctx := context.Background()

	tests := []struct {
		page     int
		wantPage int
		wantLen  int
	}{
		{page: 1, wantPage: 1, wantLen: 12},
		{page: 3, wantPage: 3, wantLen: 6},
		{page: 0, wantPage: 1, wantLen: 12},
		{page: 99, wantPage: 3, wantLen: 6},
	}
	for _, tt := range tests {
		got, err := u.Results(ctx, recruiterActor(owner), s.ID, tt.page)
		require.NoError(t, err)
		assert.Equal(t, tt.wantPage, got.Page, "page %d", tt.page)
		assert.Len(t, got.Candidates, tt.wantLen, "page %d", tt.page)
		assert.Equal(t, 3, got.TotalPages)
		assert.Equal(t, 30, got.Total)
	}

	assert.Empty(t, e.store.Matches(s.ID), "ad hoc results do not create matches")

	_, err := u.Results(ctx, recruiterActor(uuid.New()), s.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavedSearches_ResultsEmpty(t *testing.T) {
	e := newEnv()
	owner := uuid.New()
	s := e.search(owner, savedsearch.FrequencyDaily, savedsearch.Criteria{Skills: []string{"COBOL"}})

	got, err := e.savedSearches(nil).Results(context.Background(), recruiterActor(owner), s.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 1, got.TotalPages)
	assert.Zero(t, got.Total)
	assert.NotNil(t, got.Candidates)
}

func TestSavedSearches_ResultsCacheIsInvalidatedOnToggle(t *testing.T) {
	e := newEnv()
	e.candidate([]string{"Go"}, "", true)
	owner := uuid.New()
	s := e.search(owner, savedsearch.FrequencyDaily, savedsearch.Criteria{})
	cache := newMapCache()
	u := e.savedSearches(cache)
	ctx := context.Background()

	got, err := u.Results(ctx, recruiterActor(owner), s.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Total)

	e.candidate([]string{"Go"}, "", true)
	got, err = u.Results(ctx, recruiterActor(owner), s.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Total, "served from cache")
	assert.Equal(t, s.ID, got.Search.ID)

	_, err = u.SetActive(ctx, recruiterActor(owner), s.ID, true)
	require.NoError(t, err)

	got, err = u.Results(ctx, recruiterActor(owner), s.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 2, cache.sets)
}

func TestSavedSearches_UpdateReplacesCriteriaAndKeepsHistory(t *testing.T) {
	e := newEnv()
	gopher := e.candidate([]string{"Go"}, "", true)
	owner := uuid.New()
	s := e.search(owner, savedsearch.FrequencyImmediate, savedsearch.Criteria{Skills: []string{"Go"}})
	ctx := context.Background()

	_, err := e.scheduler.RunAllDue(ctx, RunOptions{Now: t0})
	require.NoError(t, err)
	before, _ := e.store.Search(s.ID)
	require.NotNil(t, before.LastNotifiedAt)

	u := e.savedSearches(nil)
	got, err := u.Update(ctx, recruiterActor(owner), s.ID, UpdateSavedSearchInput{
		Name:            " Data people ",
		Skills:          []string{" SQL ", "sql", "Postgres"},
		Location:        " Jakarta ",
		ExperienceLevel: "senior",
	})
	require.NoError(t, err)

	assert.Equal(t, "Data people", got.Name)
	assert.Equal(t, []string{"SQL", "Postgres"}, got.Criteria.Skills)
	assert.Equal(t, "Jakarta", got.Criteria.Location)
	assert.Equal(t, savedsearch.ExperienceLevel("senior"), got.Criteria.ExperienceLevel)
	assert.Equal(t, savedsearch.FrequencyImmediate, got.Frequency, "omitted frequency is kept")
	assert.True(t, got.NotifyOnNewMatches, "omitted notify flag is kept")
	assert.True(t, got.IsActive)
	assert.Equal(t, before.LastNotifiedAt, got.LastNotifiedAt)

	matches := e.store.Matches(s.ID)
	require.Len(t, matches, 1)
	assert.Equal(t, gopher.ID, matches[0].CandidateID)
	assert.True(t, matches[0].Notified)

	got, err = u.Update(ctx, recruiterActor(owner), s.ID, UpdateSavedSearchInput{
		Name:                  "Data people",
		NotifyOnNewMatches:    boolPtr(false),
		NotificationFrequency: "weekly",
	})
	require.NoError(t, err)
	assert.False(t, got.NotifyOnNewMatches)
	assert.Equal(t, savedsearch.FrequencyWeekly, got.Frequency)
	assert.Empty(t, got.Criteria.Skills)
}

func TestSavedSearches_UpdateScopingAndValidation(t *testing.T) {
	e := newEnv()
	owner := uuid.New()
	s := e.search(owner, savedsearch.FrequencyDaily, savedsearch.Criteria{})
	u := e.savedSearches(nil)
	ctx := context.Background()
	in := UpdateSavedSearchInput{Name: "renamed"}

	_, err := u.Update(ctx, recruiterActor(uuid.New()), s.ID, in)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = u.Update(ctx, recruiterActor(owner), uuid.New(), in)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = u.Update(ctx, user.UserActor(uuid.New(), user.JobSeeker{ProfileID: uuid.New()}), s.ID, in)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = u.Update(ctx, recruiterActor(owner), s.ID, UpdateSavedSearchInput{Name: "x", NotificationFrequency: "hourly"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	stored, _ := e.store.Search(s.ID)
	assert.Equal(t, s.Name, stored.Name)
}

func TestSavedSearches_UpdateInvalidatesResults(t *testing.T) {
	e := newEnv()
	e.candidate([]string{"Go"}, "", true)
	e.candidate([]string{"Rust"}, "", true)
	owner := uuid.New()
	s := e.search(owner, savedsearch.FrequencyDaily, savedsearch.Criteria{Skills: []string{"Go"}})
	u := e.savedSearches(newMapCache())
	ctx := context.Background()

	got, err := u.Results(ctx, recruiterActor(owner), s.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Total)

	_, err = u.Update(ctx, recruiterActor(owner), s.ID, UpdateSavedSearchInput{Name: s.Name, Skills: []string{"Go", "Rust"}})
	require.NoError(t, err)

	got, err = u.Results(ctx, recruiterActor(owner), s.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Total)
}
