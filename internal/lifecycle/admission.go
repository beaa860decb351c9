package lifecycle

import (
	"strings"
	"time"

	"eventhub/internal/model"
)

// Occupancy is what storage knows about an event at the moment of admission.
type Occupancy struct {
	// HasActive reports a non-cancelled registration by the same student.
	HasActive bool
	// Active is the number of registrations in a capacity-counted status.
	Active int
}

type TeamRequest struct {
	IsTeam   bool
	TeamName string
	Members  []model.TeamMember
}

// CheckAdmission runs the admission rules in their fixed order and returns the
// first one that fails.
func CheckAdmission(e *model.Event, occ Occupancy, team TeamRequest, now time.Time) error {
	if e == nil {
		return ErrEventNotFound
	}
	if EffectiveStatus(e.Status, e.StartDate, e.EndDate, now) != model.EventUpcoming {
		return ErrNotOpen
	}
	if now.After(e.RegistrationDeadline) {
		return ErrDeadlinePassed
	}
	if occ.HasActive {
		return ErrDuplicateRegistration
	}
	if occ.Active >= e.MaxParticipants {
		return ErrEventFull
	}
	if team.IsTeam {
		return CheckTeam(team.TeamName, team.Members)
	}
	return nil
}

func CheckTeam(name string, members []model.TeamMember) error {
	if strings.TrimSpace(name) == "" || len(members) == 0 {
		return ErrIncompleteTeam
	}
	for _, m := range members {
		if blank(m.Name) || blank(m.RollNumber) || blank(m.Department) || blank(m.Year) {
			return ErrIncompleteTeam
		}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Snapshot copies the profile fields onto a registration. Non-empty email and
// phone override the profile's contact details.
func Snapshot(s *model.Student, email, phone string) model.StudentSnapshot {
	snap := model.StudentSnapshot{
		Name:       s.Name,
		RollNumber: s.RollNumber,
		Department: s.Department,
		Year:       s.Year,
		Email:      s.Email,
		Phone:      s.Phone,
	}
	if !blank(email) {
		snap.Email = strings.TrimSpace(email)
	}
	if !blank(phone) {
		snap.Phone = strings.TrimSpace(phone)
	}
	return snap
}

// Capacity view: statuses holding a seat.
var CapacityStatuses = []model.RegistrationStatus{model.RegRegistered, model.RegConfirmed}

// Analytics view: statuses reported as registrations.
var AnalyticsStatuses = []model.RegistrationStatus{model.RegRegistered, model.RegConfirmed, model.RegAttended}

func HoldsSeat(s model.RegistrationStatus) bool {
	return s == model.RegRegistered || s == model.RegConfirmed
}

func SpotsRemaining(max, active int) int {
	if active >= max {
		return 0
	}
	return max - active
}
