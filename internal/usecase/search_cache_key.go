package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"lockedin/internal/domain/matching"
	"lockedin/internal/domain/savedsearch"

	"github.com/google/uuid"
)

type criteriaCacheKeyInput struct {
	Skills          []string `json:"skills"`
	Location        string   `json:"location"`
	ExperienceLevel string   `json:"experience_level"`
}

func normalizeSearchValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

func RecruiterRecommendationsCacheKey(recruiterID uuid.UUID) string {
	return "recommendations:recruiter:" + recruiterID.String()
}

// SavedSearchResultsCacheKey includes a hash of the criteria so edits to a
// search never serve stale pages.
func SavedSearchResultsCacheKey(searchID uuid.UUID, c savedsearch.Criteria, page int) string {
	skills := make([]string, 0, len(c.Skills))
	for _, s := range matching.Normalize(c.Skills) {
		skills = append(skills, normalizeSearchValue(s))
	}

	in := criteriaCacheKeyInput{
		Skills:          skills,
		Location:        normalizeSearchValue(c.Location),
		ExperienceLevel: string(c.ExperienceLevel),
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	h := hex.EncodeToString(sum[:8])
	return SavedSearchResultsCachePrefix(searchID) + h + ":" + strconv.Itoa(page)
}

func SavedSearchResultsCachePrefix(searchID uuid.UUID) string {
	return "saved-search:results:" + searchID.String() + ":"
}
