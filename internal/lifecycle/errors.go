package lifecycle

import "errors"

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrNotOpen               = errors.New("event is not open for registration")
	ErrDeadlinePassed        = errors.New("registration deadline has passed")
	ErrDuplicateRegistration = errors.New("already registered for this event")
	ErrEventFull             = errors.New("event is full")
	ErrIncompleteTeam        = errors.New("incomplete team data")

	ErrInvalidTransition  = errors.New("invalid registration status transition")
	ErrNotOwner           = errors.New("registration belongs to another student")
	ErrAlreadyCancelled   = errors.New("registration is already cancelled")
	ErrCancelWindowClosed = errors.New("cannot cancel after the event has started")

	ErrInvalidDates     = errors.New("end date must be after start date")
	ErrInvalidDeadline  = errors.New("registration deadline must be before start date")
	ErrInvalidCapacity  = errors.New("maxParticipants must be at least 1")
	ErrInvalidHierarchy = errors.New("invalid main event reference")
	ErrParentNotFound   = errors.New("main event not found")
)
