package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/auth"
	"eventhub/internal/dto"
	"eventhub/internal/lifecycle"
	"eventhub/internal/repo"
)

type Service interface {
	StudentLogin(ctx *ginext.Context)
	AdminLogin(ctx *ginext.Context)
	ChangePassword(ctx *ginext.Context)
	CreateStudent(ctx *ginext.Context)
	MyRegistrations(ctx *ginext.Context)

	ListEvents(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	CreateEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	CancelEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)
	Analytics(ctx *ginext.Context)
	EventRegistrations(ctx *ginext.Context)
	DownloadRegistrations(ctx *ginext.Context)

	CreateRegistration(ctx *ginext.Context)
	CancelRegistration(ctx *ginext.Context)
	UpdateRegistrationStatus(ctx *ginext.Context)

	Health(ctx *ginext.Context)
}

// Publisher delivers notification payloads, optionally delayed.
type Publisher interface {
	Publish(ctx context.Context, message []byte, delay time.Duration) error
}

type Options struct {
	// Publisher may be nil, in which case no notifications are sent.
	Publisher    Publisher
	ReminderLead time.Duration
	MaxDelay     time.Duration
	Now          func() time.Time
}

type service struct {
	repo         repo.Repository
	log          *zerolog.Logger
	tokens       *auth.Tokens
	pub          Publisher
	reminderLead time.Duration
	maxDelay     time.Duration
	now          func() time.Time
}

func NewService(repo repo.Repository, logger *zerolog.Logger, tokens *auth.Tokens, opts Options) Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         repo,
		log:          logger,
		tokens:       tokens,
		pub:          opts.Publisher,
		reminderLead: opts.ReminderLead,
		maxDelay:     opts.MaxDelay,
		now:          func() time.Time { return now().UTC() },
	}
}

func (s *service) Health(ctx *ginext.Context) {
	dto.OK(ctx, gin.H{"status": "ok"})
}

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

var errorTable = []errorMapping{
	{lifecycle.ErrEventNotFound, http.StatusNotFound, dto.EventNotFound, "Event not found"},
	{repo.ErrRegistrationNotFound, http.StatusNotFound, dto.RegistrationNotFound, "Registration not found"},
	{repo.ErrStudentNotFound, http.StatusNotFound, dto.StudentNotFound, "Student not found"},
	{repo.ErrAdminNotFound, http.StatusNotFound, dto.AdminNotFound, "Admin not found"},
	{lifecycle.ErrNotOpen, http.StatusBadRequest, dto.EventNotOpen, "Event is not open for registration"},
	{lifecycle.ErrDeadlinePassed, http.StatusBadRequest, dto.DeadlinePassed, "Registration deadline has passed"},
	{lifecycle.ErrDuplicateRegistration, http.StatusBadRequest, dto.RegistrationDuplicate, "Already registered for this event"},
	{lifecycle.ErrEventFull, http.StatusBadRequest, dto.EventFull, "Event is full"},
	{lifecycle.ErrIncompleteTeam, http.StatusBadRequest, dto.IncompleteTeam, "Incomplete team data: team name and members with name, roll number, department and year are required"},
	{lifecycle.ErrInvalidTransition, http.StatusBadRequest, dto.InvalidTransition, "Invalid registration status transition"},
	{lifecycle.ErrNotOwner, http.StatusForbidden, dto.Forbidden, "Not authorized to cancel this registration"},
	{lifecycle.ErrAlreadyCancelled, http.StatusBadRequest, dto.AlreadyCancelled, "Registration is already cancelled"},
	{lifecycle.ErrCancelWindowClosed, http.StatusBadRequest, dto.CancelWindowClosed, "Cannot cancel registration after the event has started"},
	{lifecycle.ErrInvalidDates, http.StatusBadRequest, dto.InvalidEvent, "End date must be after start date"},
	{lifecycle.ErrInvalidDeadline, http.StatusBadRequest, dto.InvalidEvent, "Registration deadline must be before start date"},
	{lifecycle.ErrInvalidCapacity, http.StatusBadRequest, dto.InvalidEvent, "Max participants must be at least 1"},
	{lifecycle.ErrInvalidHierarchy, http.StatusBadRequest, dto.InvalidEvent, "Invalid main event reference"},
	{lifecycle.ErrParentNotFound, http.StatusBadRequest, dto.InvalidEvent, "Main event not found"},
	{repo.ErrEventHasRegistrations, http.StatusBadRequest, dto.EventHasRegistrations, "Cannot delete event with existing registrations"},
	{repo.ErrAccountExists, http.StatusBadRequest, dto.AccountExists, "Account already exists"},
	{repo.ErrConcurrentUpdate, http.StatusBadRequest, dto.Conflict, "Registration was modified concurrently, please retry"},
}

// fail writes the response for a known business error, or logs err and
// answers with a generic server error.
func (s *service) fail(ctx *ginext.Context, err error, op string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			dto.ErrorResponse(ctx, m.status, m.code, m.message)
			return
		}
	}
	s.log.Error().Err(err).Str("op", op).Msg("request failed")
	dto.InternalServerError(ctx)
}

func (s *service) identity(ctx *ginext.Context) (auth.Identity, bool) {
	return auth.FromContext(ctx)
}

func (s *service) publish(ctx context.Context, msg dto.NotificationMessage, delay time.Duration) {
	if s.pub == nil {
		return
	}
	if delay < 0 || (s.maxDelay > 0 && delay > s.maxDelay) {
		s.log.Debug().Str("kind", string(msg.Kind)).Dur("delay", delay).Msg("notification outside delay window, skipped")
		return
	}
	msg.CreatedAt = s.now()
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal notification")
		return
	}
	if err := s.pub.Publish(ctx, payload, delay); err != nil {
		s.log.Error().Err(err).Str("kind", string(msg.Kind)).Msg("failed to publish notification")
	}
}
