package savedsearch

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "entry"
	ExperienceMid       ExperienceLevel = "mid"
	ExperienceSenior    ExperienceLevel = "senior"
	ExperienceExecutive ExperienceLevel = "executive"
)

func (l ExperienceLevel) Valid() bool {
	switch l {
	case ExperienceEntry, ExperienceMid, ExperienceSenior, ExperienceExecutive:
		return true
	}
	return false
}

type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full_time"
	EmploymentPartTime   EmploymentType = "part_time"
	EmploymentContract   EmploymentType = "contract"
	EmploymentInternship EmploymentType = "internship"
)

func (t EmploymentType) Valid() bool {
	switch t {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract, EmploymentInternship:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyImmediate, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

// Criteria is the filter part of a saved search. It can also be built ad hoc.
type Criteria struct {
	Skills          []string
	Location        string
	ExperienceLevel ExperienceLevel
	EmploymentType  EmploymentType
}

func (c Criteria) NormalizedLocation() string {
	return strings.TrimSpace(c.Location)
}

type SavedSearch struct {
	ID                 uuid.UUID
	RecruiterID        uuid.UUID
	Name               string
	Description        string
	Criteria           Criteria
	IsActive           bool
	NotifyOnNewMatches bool
	Frequency          Frequency
	LastNotifiedAt     *time.Time
	LastSearchAt       *time.Time
	LastNotifiedBy     *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
