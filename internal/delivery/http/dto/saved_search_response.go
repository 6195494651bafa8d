package dto

import (
	"time"

	"lockedin/internal/domain/profile"
	"lockedin/internal/domain/savedsearch"

	"github.com/google/uuid"
)

type SavedSearchResponse struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Description           string     `json:"description"`
	Skills                []string   `json:"skills"`
	Location              string     `json:"location"`
	ExperienceLevel       string     `json:"experience_level"`
	EmploymentType        string     `json:"employment_type"`
	IsActive              bool       `json:"is_active"`
	NotifyOnNewMatches    bool       `json:"notify_on_new_matches"`
	NotificationFrequency string     `json:"notification_frequency"`
	LastNotifiedAt        *time.Time `json:"last_notified_at"`
	LastSearchAt          *time.Time `json:"last_search_at"`
	CreatedAt             time.Time  `json:"created_at"`
	PendingMatches        *int       `json:"pending_matches,omitempty"`
	State                 string     `json:"state,omitempty"`
}

func NewSavedSearchResponse(s savedsearch.SavedSearch) SavedSearchResponse {
	skills := s.Criteria.Skills
	if skills == nil {
		skills = []string{}
	}
	return SavedSearchResponse{
		ID:                    s.ID,
		Name:                  s.Name,
		Description:           s.Description,
		Skills:                skills,
		Location:              s.Criteria.Location,
		ExperienceLevel:       string(s.Criteria.ExperienceLevel),
		EmploymentType:        string(s.Criteria.EmploymentType),
		IsActive:              s.IsActive,
		NotifyOnNewMatches:    s.NotifyOnNewMatches,
		NotificationFrequency: string(s.Frequency),
		LastNotifiedAt:        s.LastNotifiedAt,
		LastSearchAt:          s.LastSearchAt,
		CreatedAt:             s.CreatedAt,
	}
}

type CandidateResponse struct {
	ID                uuid.UUID `json:"id"`
	Headline          string    `json:"headline"`
	Location          string    `json:"location"`
	Skills            []string  `json:"skills"`
	HasWorkExperience bool      `json:"has_work_experience"`
}

func NewCandidateResponses(cs []profile.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, 0, len(cs))
	for _, c := range cs {
		skills := c.SkillNames
		if skills == nil {
			skills = []string{}
		}
		out = append(out, CandidateResponse{
			ID:                c.ID,
			Headline:          c.Headline,
			Location:          c.Location,
			Skills:            skills,
			HasWorkExperience: c.HasWorkExperience,
		})
	}
	return out
}

type SavedSearchResultsResponse struct {
	SavedSearch SavedSearchResponse `json:"saved_search"`
	Candidates  []CandidateResponse `json:"candidates"`
}
