package matching

import (
	"math"
	"strings"
)

// DefaultScore is returned when there is nothing to compare: the required set
// is empty or the other side has no skills at all.
const DefaultScore = 0.1

const partialWeight = 0.5

type Result struct {
	ExactMatches   []string
	PartialMatches []string
	Missing        []string
	Score          float64
	Percentage     float64
}

// Matcher scores a required skill set against a candidate skill set.
// The zero value is not useful; use Default or set DefaultScore explicitly.
type Matcher struct {
	DefaultScore float64
}

var Default = Matcher{DefaultScore: DefaultScore}

func Match(required, candidate []string) Result {
	return Default.Match(required, candidate)
}

func (m Matcher) Match(required, candidate []string) Result {
	req := Normalize(required)
	if len(req) == 0 {
		return m.fallback(nil)
	}

	cand := Normalize(candidate)
	if len(cand) == 0 {
		return m.fallback(req)
	}

	candKeys := make(map[string]struct{}, len(cand))
	for _, s := range cand {
		candKeys[Key(s)] = struct{}{}
	}

	exact := make([]string, 0, len(req))
	partial := make([]string, 0)
	missing := make([]string, 0)

	for _, r := range req {
		k := Key(r)
		if _, ok := candKeys[k]; ok {
			exact = append(exact, r)
			continue
		}
		if overlapsAny(k, cand) {
			partial = append(partial, r)
			continue
		}
		missing = append(missing, r)
	}

	score := (float64(len(exact)) + partialWeight*float64(len(partial))) / float64(len(req))

	return Result{
		ExactMatches:   exact,
		PartialMatches: partial,
		Missing:        missing,
		Score:          score,
		Percentage:     Percentage(score),
	}
}

func (m Matcher) fallback(req []string) Result {
	missing := make([]string, 0, len(req))
	missing = append(missing, req...)
	return Result{
		ExactMatches:   []string{},
		PartialMatches: []string{},
		Missing:        missing,
		Score:          m.DefaultScore,
		Percentage:     Percentage(m.DefaultScore),
	}
}

// ExactRatio is the share of required skills present verbatim (case-folded)
// in the candidate set. Zero when required is empty.
func ExactRatio(required, candidate []string) float64 {
	req := Normalize(required)
	if len(req) == 0 {
		return 0
	}
	candKeys := make(map[string]struct{}, len(candidate))
	for _, s := range Normalize(candidate) {
		candKeys[Key(s)] = struct{}{}
	}
	n := 0
	for _, r := range req {
		if _, ok := candKeys[Key(r)]; ok {
			n++
		}
	}
	return float64(n) / float64(len(req))
}

// Overlaps reports whether any skill in a contains, or is contained by, any
// skill in b, ignoring case.
func Overlaps(a, b []string) bool {
	bn := Normalize(b)
	if len(bn) == 0 {
		return false
	}
	for _, s := range Normalize(a) {
		if overlapsAny(Key(s), bn) {
			return true
		}
	}
	return false
}

func Percentage(score float64) float64 {
	return math.Round(score*1000) / 10
}

func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalize trims names, drops blanks and collapses case-insensitive
// duplicates keeping the first spelling.
func Normalize(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := Key(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

func overlapsAny(key string, skills []string) bool {
	for _, s := range skills {
		ck := Key(s)
		if strings.Contains(key, ck) || strings.Contains(ck, key) {
			return true
		}
	}
	return false
}
