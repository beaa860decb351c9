package lifecycle

import (
	"time"

	"eventhub/internal/model"
)

var transitions = map[model.RegistrationStatus][]model.RegistrationStatus{
	model.RegRegistered: {model.RegConfirmed, model.RegWaitlisted, model.RegCancelled},
	model.RegWaitlisted: {model.RegConfirmed, model.RegCancelled},
	model.RegConfirmed:  {model.RegAttended, model.RegAbsent, model.RegCancelled},
}

func ValidRegistrationStatus(s model.RegistrationStatus) bool {
	switch s {
	case model.RegRegistered, model.RegWaitlisted, model.RegConfirmed,
		model.RegAttended, model.RegAbsent, model.RegCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moderation may move a registration from one
// status to another. Staying in place is allowed.
func CanTransition(from, to model.RegistrationStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckStatusChange validates an admin status change. active is the current
// number of seat-holding registrations for the event.
func CheckStatusChange(e *model.Event, reg *model.Registration, next model.RegistrationStatus, active int) error {
	if !ValidRegistrationStatus(next) || !CanTransition(reg.Status, next) {
		return ErrInvalidTransition
	}
	if HoldsSeat(next) && !HoldsSeat(reg.Status) && active >= e.MaxParticipants {
		return ErrEventFull
	}
	return nil
}

// CheckSelfCancel validates a student cancelling their own registration.
func CheckSelfCancel(e *model.Event, reg *model.Registration, studentID string, now time.Time) error {
	if reg.StudentID != studentID {
		return ErrNotOwner
	}
	if reg.Status == model.RegCancelled {
		return ErrAlreadyCancelled
	}
	if !now.Before(e.StartDate) {
		return ErrCancelWindowClosed
	}
	return nil
}
