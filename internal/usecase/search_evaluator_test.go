package usecase

import (
	"context"
	"errors"
	"testing"

	"lockedin/internal/domain/profile"
	"lockedin/internal/domain/savedsearch"
	"lockedin/internal/repository"
	"lockedin/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(cs []profile.Candidate) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestSearchEvaluator_Filters(t *testing.T) {
	e := newEnv()
	goNairobi := e.candidate([]string{"Golang", "SQL"}, "Nairobi, Kenya", true)
	javaJunior := e.candidate([]string{"Java"}, "Nairobi", false)
	pyRemote := e.candidate([]string{"Python"}, "Remote", true)
	e.store.AddCandidate(profile.Candidate{SkillNames: []string{"Go"}, Location: "Nairobi", IsPublic: false})

	ctx := context.Background()

	got, err := e.evaluator.Evaluate(ctx, savedsearch.Criteria{Skills: []string{"go"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{goNairobi.ID}, ids(got), "substring overlap, private profiles excluded")

	got, err = e.evaluator.Evaluate(ctx, savedsearch.Criteria{Skills: []string{"JavaScript"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{javaJunior.ID}, ids(got), "candidate skill contained in criterion")

	got, err = e.evaluator.Evaluate(ctx, savedsearch.Criteria{Location: "  nairobi "})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{goNairobi.ID, javaJunior.ID}, ids(got))

	got, err = e.evaluator.Evaluate(ctx, savedsearch.Criteria{ExperienceLevel: savedsearch.ExperienceEntry})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{javaJunior.ID}, ids(got))

	got, err = e.evaluator.Evaluate(ctx, savedsearch.Criteria{ExperienceLevel: savedsearch.ExperienceSenior})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{goNairobi.ID, pyRemote.ID}, ids(got))

	got, err = e.evaluator.Evaluate(ctx, savedsearch.Criteria{})
	require.NoError(t, err)
	assert.Len(t, got, 3, "no criteria returns every public candidate")
}

func TestSearchEvaluator_IgnoresUnknownAndUnsupportedFilters(t *testing.T) {
	e := newEnv()
	e.candidate([]string{"Go"}, "Berlin", false)
	e.candidate([]string{"Go"}, "Berlin", true)

	got, err := e.evaluator.Evaluate(context.Background(), savedsearch.Criteria{
		ExperienceLevel: "principal",
		EmploymentType:  savedsearch.EmploymentContract,
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

type dupCandidates struct {
	repository.CandidateRepository
	out []profile.Candidate
}

func (d dupCandidates) FindPublicCandidates(context.Context, repository.CandidateFilter) ([]profile.Candidate, error) {
	return d.out, nil
}

func TestSearchEvaluator_Deduplicates(t *testing.T) {
	c := profile.Candidate{ID: uuid.New(), IsPublic: true}
	ev := NewSearchEvaluator(dupCandidates{out: []profile.Candidate{c, c}}, nil)

	got, err := ev.Evaluate(context.Background(), savedsearch.Criteria{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearchEvaluator_RepositoryError(t *testing.T) {
	store := memory.NewStore()
	boom := errors.New("db down")
	store.Fail = func(op memory.Op, _ uuid.UUID) error {
		if op == memory.OpFindCandidates {
			return boom
		}
		return nil
	}
	_, err := NewSearchEvaluator(store.Candidates(), nil).Evaluate(context.Background(), savedsearch.Criteria{})
	assert.ErrorIs(t, err, boom)
}

func TestCandidateFilterFor(t *testing.T) {
	f := CandidateFilterFor(savedsearch.Criteria{
		Skills:          []string{" Go ", "go", "", "SQL"},
		Location:        " Lagos ",
		ExperienceLevel: savedsearch.ExperienceMid,
	})
	assert.Equal(t, []string{"Go", "SQL"}, f.SkillsAny)
	assert.Equal(t, "Lagos", f.LocationContains)
	require.NotNil(t, f.HasWorkExperience)
	assert.True(t, *f.HasWorkExperience)

	f = CandidateFilterFor(savedsearch.Criteria{ExperienceLevel: savedsearch.ExperienceEntry})
	require.NotNil(t, f.HasWorkExperience)
	assert.False(t, *f.HasWorkExperience)

	assert.Nil(t, CandidateFilterFor(savedsearch.Criteria{ExperienceLevel: "guru"}).HasWorkExperience)
}
