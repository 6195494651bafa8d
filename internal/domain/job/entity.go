package job

import (
	"time"

	"github.com/google/uuid"
)

const StatusPublished = "published"

// Posting is the read-only view of a job posting used for recommendations.
type Posting struct {
	ID                 uuid.UUID
	RecruiterID        uuid.UUID
	Title              string
	Company            string
	Location           string
	RequiredSkillNames []string
	IsActive           bool
	IsPublished        bool
	PostedAt           time.Time
}

func (p Posting) Open() bool {
	return p.IsActive && p.IsPublished
}
