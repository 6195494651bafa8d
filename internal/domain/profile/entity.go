package profile

import "github.com/google/uuid"

// Candidate is the read-only view of a job seeker profile the matching core
// works with. Profiles themselves are owned by the profile CRUD code.
type Candidate struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Headline          string
	SkillNames        []string
	Location          string
	HasWorkExperience bool
	IsPublic          bool
}
