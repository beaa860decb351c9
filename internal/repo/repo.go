package repo

import (
	"context"
	"errors"
	"time"

	"eventhub/internal/lifecycle"
	"eventhub/internal/model"
)

var (
	ErrEventNotFound         = lifecycle.ErrEventNotFound
	ErrDuplicateRegistration = lifecycle.ErrDuplicateRegistration
	ErrEventFull             = lifecycle.ErrEventFull
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrEventHasRegistrations = errors.New("event has registrations")
	ErrStudentNotFound       = errors.New("student not found")
	ErrAdminNotFound         = errors.New("admin not found")
	ErrAccountExists         = errors.New("account already exists")
	ErrConcurrentUpdate      = errors.New("registration was modified concurrently")
)

// AdmitFunc decides, inside the booking transaction, whether the registration
// may be written. It sees the locked event and the live occupancy.
type AdmitFunc func(event *model.Event, occ lifecycle.Occupancy) error

// ChangeFunc decides, inside the status-change transaction, whether reg may
// move to its new status. active counts the event's seat-holding registrations.
type ChangeFunc func(event *model.Event, reg *model.Registration, active int) error

type EventFilter struct {
	Category string
	// Status filters on the effective status at Now.
	Status model.EventStatus
	Now    time.Time
	Page   int
	Limit  int
}

func (f EventFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type Repository interface {
	CreateEvent(ctx context.Context, e *model.Event) error
	GetEventByID(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, f EventFilter) ([]model.Event, int, error)
	ListAllEvents(ctx context.Context) ([]model.Event, error)
	GetSubEvents(ctx context.Context, mainIDs []string) ([]model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	CancelEvent(ctx context.Context, id string) error
	DeleteEvent(ctx context.Context, id string) error
	SyncEventStatuses(ctx context.Context, now time.Time) (int64, error)

	BookRegistrationTx(ctx context.Context, reg *model.Registration, admit AdmitFunc) error
	ChangeRegistrationStatusTx(ctx context.Context, id string, next model.RegistrationStatus, allow ChangeFunc) (*model.Registration, error)
	GetRegistrationByID(ctx context.Context, id string) (*model.Registration, error)
	GetRegistrationsByEventID(ctx context.Context, eventID string) ([]model.Registration, error)
	GetRegistrationsByStudentID(ctx context.Context, studentID string) ([]model.Registration, error)
	CountRegistrations(ctx context.Context, eventID string, statuses []model.RegistrationStatus) (int, error)
	CountRegistrationsByEvent(ctx context.Context, statuses []model.RegistrationStatus) (map[string]int, error)

	CreateStudent(ctx context.Context, s *model.Student) error
	GetStudentByID(ctx context.Context, id string) (*model.Student, error)
	GetStudentByRollNumber(ctx context.Context, roll string) (*model.Student, error)
	CreateAdmin(ctx context.Context, a *model.Admin) error
	GetAdminByID(ctx context.Context, id string) (*model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	UpdatePassword(ctx context.Context, role, id, hash string) error
}

func statusStrings(statuses []model.RegistrationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
