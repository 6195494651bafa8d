package recommendation

import (
	"fmt"
	"testing"

	"lockedin/internal/domain/matching"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corpusOf(skills ...[]string) []Item {
	out := make([]Item, 0, len(skills))
	for _, s := range skills {
		out = append(out, Item{ID: uuid.New(), SkillNames: s})
	}
	return out
}

func TestRank_SortsDescendingAndBuckets(t *testing.T) {
	self := []string{"Go", "SQL", "Docker"}
	corpus := corpusOf(
		[]string{"Rust"},                // 0
		[]string{"go", "sql", "docker"}, // 100
		[]string{"Go"},                  // 33.3
		[]string{"go", "sql"},           // 66.7
	)

	res := Rank(self, corpus, Options{})

	require.Equal(t, ModePersonalized, res.Mode)
	require.Len(t, res.Entries, 4)
	assert.Equal(t, corpus[1].ID, res.Entries[0].ID)
	assert.Equal(t, corpus[3].ID, res.Entries[1].ID)
	assert.Equal(t, corpus[2].ID, res.Entries[2].ID)
	assert.Equal(t, corpus[0].ID, res.Entries[3].ID)
	assert.Equal(t, 1, res.Entries[0].Index)

	require.Len(t, res.High, 1)
	require.Len(t, res.Medium, 1)
	require.Len(t, res.Potential, 2)
	assert.Equal(t, BucketMedium, res.Entries[1].Bucket)
}

func TestRank_StableOnTies(t *testing.T) {
	self := []string{"Go"}
	corpus := corpusOf([]string{"go"}, []string{"Go"}, []string{"GO"})

	res := Rank(self, corpus, Options{})

	require.Len(t, res.Entries, 3)
	for i := range corpus {
		assert.Equal(t, corpus[i].ID, res.Entries[i].ID)
	}
}

func TestRank_TwoStageTruncation(t *testing.T) {
	self := []string{"Go"}
	corpus := make([]Item, 0, 30)
	for i := 0; i < 30; i++ {
		corpus = append(corpus, Item{ID: uuid.New(), SkillNames: []string{"Go"}})
	}

	exclude := map[uuid.UUID]struct{}{}
	for i := 0; i < 15; i++ {
		exclude[corpus[i].ID] = struct{}{}
	}

	res := Rank(self, corpus, Options{Exclude: exclude})

	// only items 15..19 survive: the cut to 20 happens before exclusion
	require.Len(t, res.Entries, 5)
	for i, e := range res.Entries {
		assert.Equal(t, corpus[15+i].ID, e.ID)
	}
}

func TestRank_DisplayCap(t *testing.T) {
	corpus := make([]Item, 0, 25)
	for i := 0; i < 25; i++ {
		corpus = append(corpus, Item{ID: uuid.New(), SkillNames: []string{fmt.Sprintf("skill-%d", i)}})
	}

	res := Rank([]string{"skill"}, corpus, Options{})

	assert.Len(t, res.Entries, DisplayLimit)
}

func TestRank_GeneralModeWhenSelfEmpty(t *testing.T) {
	corpus := make([]Item, 0, 12)
	for i := 0; i < 12; i++ {
		corpus = append(corpus, Item{ID: uuid.New(), SkillNames: []string{"Go"}})
	}

	res := Rank([]string{" "}, corpus, Options{})

	assert.Equal(t, ModeGeneral, res.Mode)
	require.Len(t, res.Entries, GeneralLimit)
	assert.Equal(t, corpus[0].ID, res.Entries[0].ID)
	assert.Empty(t, res.Entries[0].Bucket)
	assert.Zero(t, res.Entries[0].Match.Percentage)
	assert.Empty(t, res.High)
}

func TestRank_CustomMatcher(t *testing.T) {
	m := matching.Matcher{DefaultScore: 0}
	corpus := corpusOf(nil)

	res := Rank([]string{"Go"}, corpus, Options{Matcher: &m})

	require.Len(t, res.Entries, 1)
	assert.Equal(t, 0.0, res.Entries[0].Match.Score)
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, BucketHigh, BucketFor(70))
	assert.Equal(t, BucketMedium, BucketFor(69.9))
	assert.Equal(t, BucketMedium, BucketFor(40))
	assert.Equal(t, BucketPotential, BucketFor(39.9))
	assert.Equal(t, BucketPotential, BucketFor(10))
}
