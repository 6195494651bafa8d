package user

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	RoleNameJobSeeker = "job_seeker"
	RoleNameRecruiter = "recruiter"
	RoleNameAdmin     = "admin"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is a closed set: JobSeeker, Recruiter or Admin. Switch on the concrete
// type; the unexported method keeps other packages from adding variants.
type Role interface {
	Name() string
	role()
}

type JobSeeker struct {
	ProfileID uuid.UUID
}

type Recruiter struct {
	RecruiterID uuid.UUID
}

type Admin struct{}

func (JobSeeker) Name() string { return RoleNameJobSeeker }
func (Recruiter) Name() string { return RoleNameRecruiter }
func (Admin) Name() string     { return RoleNameAdmin }

func (JobSeeker) role() {}
func (Recruiter) role() {}
func (Admin) role()     {}

// ParseRole builds a Role from its wire name and the profile id attached to
// the account (job seeker profile or recruiter profile).
func ParseRole(name string, profileID uuid.UUID) (Role, error) {
	switch name {
	case RoleNameJobSeeker:
		if profileID == uuid.Nil {
			return nil, fmt.Errorf("%w: job seeker without profile", ErrUnknownRole)
		}
		return JobSeeker{ProfileID: profileID}, nil
	case RoleNameRecruiter:
		if profileID == uuid.Nil {
			return nil, fmt.Errorf("%w: recruiter without profile", ErrUnknownRole)
		}
		return Recruiter{RecruiterID: profileID}, nil
	case RoleNameAdmin:
		return Admin{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
}

// Actor identifies who performs a state change. It is always passed
// explicitly.
type Actor struct {
	UserID uuid.UUID
	Role   Role
	System string
}

// SystemActor is used by batch jobs that act on nobody's behalf.
func SystemActor(name string) Actor {
	return Actor{System: name}
}

func UserActor(userID uuid.UUID, role Role) Actor {
	return Actor{UserID: userID, Role: role}
}

func (a Actor) IsZero() bool {
	return a.System == "" && a.Role == nil && a.UserID == uuid.Nil
}

func (a Actor) String() string {
	if a.System != "" {
		return "system:" + a.System
	}
	if a.Role == nil {
		return "user:" + a.UserID.String()
	}
	return a.Role.Name() + ":" + a.UserID.String()
}
