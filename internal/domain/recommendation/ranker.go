package recommendation

import (
	"sort"

	"lockedin/internal/domain/matching"

	"github.com/google/uuid"
)

type Mode string

const (
	ModePersonalized Mode = "personalized"
	ModeGeneral      Mode = "general"
	ModeNoJobs       Mode = "no_jobs"
)

type Bucket string

const (
	BucketHigh      Bucket = "high"
	BucketMedium    Bucket = "medium"
	BucketPotential Bucket = "potential"
)

const (
	PreExclusionLimit = 20
	DisplayLimit      = 10
	GeneralLimit      = 10

	HighThreshold   = 70.0
	MediumThreshold = 40.0
)

type Item struct {
	ID         uuid.UUID
	SkillNames []string
}

// Entry is one ranked corpus item. Index points back into the corpus slice
// given to Rank. Match and Bucket are zero in ModeGeneral.
type Entry struct {
	ID     uuid.UUID
	Index  int
	Match  matching.Result
	Bucket Bucket
}

type Options struct {
	Exclude map[uuid.UUID]struct{}
	Matcher *matching.Matcher
}

type Result struct {
	Mode      Mode
	Entries   []Entry
	High      []Entry
	Medium    []Entry
	Potential []Entry
}

// Rank scores every corpus item against self, keeps the best
// PreExclusionLimit, drops excluded ids and returns at most DisplayLimit
// entries bucketed by percentage. With an empty self set it returns the first
// GeneralLimit corpus items unscored.
func Rank(self []string, corpus []Item, opts Options) Result {
	if len(matching.Normalize(self)) == 0 {
		return general(corpus)
	}

	m := matching.Default
	if opts.Matcher != nil {
		m = *opts.Matcher
	}

	scored := make([]Entry, 0, len(corpus))
	for i, it := range corpus {
		scored = append(scored, Entry{
			ID:    it.ID,
			Index: i,
			Match: m.Match(self, it.SkillNames),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Match.Score > scored[j].Match.Score
	})

	if len(scored) > PreExclusionLimit {
		scored = scored[:PreExclusionLimit]
	}

	out := Result{Mode: ModePersonalized, Entries: make([]Entry, 0, DisplayLimit)}
	for _, e := range scored {
		if _, skip := opts.Exclude[e.ID]; skip {
			continue
		}
		if len(out.Entries) == DisplayLimit {
			break
		}
		e.Bucket = BucketFor(e.Match.Percentage)
		out.Entries = append(out.Entries, e)
		switch e.Bucket {
		case BucketHigh:
			out.High = append(out.High, e)
		case BucketMedium:
			out.Medium = append(out.Medium, e)
		default:
			out.Potential = append(out.Potential, e)
		}
	}
	return out
}

func BucketFor(percentage float64) Bucket {
	switch {
	case percentage >= HighThreshold:
		return BucketHigh
	case percentage >= MediumThreshold:
		return BucketMedium
	default:
		return BucketPotential
	}
}

func general(corpus []Item) Result {
	n := len(corpus)
	if n > GeneralLimit {
		n = GeneralLimit
	}
	out := Result{Mode: ModeGeneral, Entries: make([]Entry, 0, n)}
	for i := 0; i < n; i++ {
		out.Entries = append(out.Entries, Entry{ID: corpus[i].ID, Index: i})
	}
	return out
}
