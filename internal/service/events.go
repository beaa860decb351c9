package service

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/dto"
	"eventhub/internal/export"
	"eventhub/internal/lifecycle"
	"eventhub/internal/model"
	"eventhub/internal/repo"
	"eventhub/pkg/validator"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func queryInt(ctx *ginext.Context, key string, def int) (int, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return v, nil
}

func (s *service) ListEvents(ctx *ginext.Context) {
	page, err := queryInt(ctx, "page", 1)
	if err != nil {
		dto.FieldIncorrectError(ctx, err.Error())
		return
	}
	limit, err := queryInt(ctx, "limit", defaultPageLimit)
	if err != nil {
		dto.FieldIncorrectError(ctx, err.Error())
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	status := model.EventStatus(ctx.Query("status"))
	if status != "" && !lifecycle.ValidEventStatus(status) {
		dto.FieldIncorrectError(ctx, "Unknown status filter")
		return
	}

	rctx := ctx.Request.Context()
	now := s.now()
	events, total, err := s.repo.ListEvents(rctx, repo.EventFilter{
		Category: ctx.Query("category"),
		Status:   status,
		Now:      now,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		s.fail(ctx, err, "list events")
		return
	}
	lifecycle.DeriveAll(events, now)

	children, err := s.repo.GetSubEvents(rctx, lifecycle.MainEventIDs(events))
	if err != nil {
		s.fail(ctx, err, "list sub-events")
		return
	}
	lifecycle.DeriveAll(children, now)
	events = lifecycle.AttachSubEvents(events, children)
	if events == nil {
		events = []model.Event{}
	}

	dto.OK(ctx, gin.H{
		"events":     events,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (s *service) GetEvent(ctx *ginext.Context) {
	rctx := ctx.Request.Context()
	event, err := s.repo.GetEventByID(rctx, ctx.Param("id"))
	if err != nil {
		s.fail(ctx, err, "get event")
		return
	}
	count, err := s.repo.CountRegistrations(rctx, event.ID, lifecycle.CapacityStatuses)
	if err != nil {
		s.fail(ctx, err, "count registrations")
		return
	}

	now := s.now()
	if event.IsMainEvent {
		children, err := s.repo.GetSubEvents(rctx, []string{event.ID})
		if err != nil {
			s.fail(ctx, err, "get sub-events")
			return
		}
		event.SubEvents = lifecycle.AttachSubEvents([]model.Event{*event}, children)[0].SubEvents
	}
	lifecycle.Derive(event, now)

	dto.OK(ctx, gin.H{
		"event":             event,
		"registrationCount": count,
		"spotsRemaining":    lifecycle.SpotsRemaining(event.MaxParticipants, count),
	})
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.FieldIncorrectError(ctx, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.FieldIncorrectError(ctx, verr.Error())
		return
	}

	id, _ := s.identity(ctx)
	now := s.now()
	event := &model.Event{
		ID:                    uuid.NewString(),
		Title:                 strings.TrimSpace(req.Title),
		Description:           req.Description,
		Category:              req.Category,
		SubCategory:           req.SubCategory,
		Domain:                req.Domain,
		PosterURL:             req.PosterURL,
		StartDate:             req.StartDate.UTC(),
		EndDate:               req.EndDate.UTC(),
		Duration:              req.Duration,
		CoordinatorName:       req.CoordinatorName,
		CoordinatorEmail:      req.CoordinatorEmail,
		CoordinatorPhone:      req.CoordinatorPhone,
		Venue:                 req.Venue,
		MaxParticipants:       req.MaxParticipants,
		RegistrationDeadline:  req.RegistrationDeadline.UTC(),
		EventType:             req.EventType,
		CertificationProvided: req.CertificationProvided,
		MainEventID:           req.MainEventID,
		IsMainEvent:           req.IsMainEvent,
		AdditionalFields:      req.AdditionalFields,
		CreatedBy:             id.ID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	event.Status = lifecycle.EffectiveStatus(model.EventUpcoming, event.StartDate, event.EndDate, now)

	if err := lifecycle.ValidateEvent(event); err != nil {
		s.fail(ctx, err, "validate event")
		return
	}
	rctx := ctx.Request.Context()
	if event.MainEventID != "" {
		parent, err := s.repo.GetEventByID(rctx, event.MainEventID)
		if errors.Is(err, repo.ErrEventNotFound) {
			parent, err = nil, nil
		}
		if err != nil {
			s.fail(ctx, err, "get main event")
			return
		}
		if err := lifecycle.ValidateParent(parent); err != nil {
			s.fail(ctx, err, "validate main event")
			return
		}
	}

	if err := s.repo.CreateEvent(rctx, event); err != nil {
		s.fail(ctx, err, "create event")
		return
	}
	s.log.Info().Str("event_id", event.ID).Str("created_by", event.CreatedBy).Msg("event created")
	dto.Created(ctx, "Event created successfully", gin.H{"event": event})
}

// UpdateEvent merges the patch into the stored record and re-checks the
// cross-field invariants on the result.
func (s *service) UpdateEvent(ctx *ginext.Context) {
	var req dto.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.FieldIncorrectError(ctx, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.FieldIncorrectError(ctx, verr.Error())
		return
	}

	rctx := ctx.Request.Context()
	current, err := s.repo.GetEventByID(rctx, ctx.Param("id"))
	if err != nil {
		s.fail(ctx, err, "get event")
		return
	}
	merged := req.Patch().Apply(*current)
	merged.StartDate = merged.StartDate.UTC()
	merged.EndDate = merged.EndDate.UTC()
	merged.RegistrationDeadline = merged.RegistrationDeadline.UTC()
	merged.UpdatedAt = s.now()
	if err := lifecycle.ValidateEvent(&merged); err != nil {
		s.fail(ctx, err, "validate event")
		return
	}

	if err := s.repo.UpdateEvent(rctx, &merged); err != nil {
		s.fail(ctx, err, "update event")
		return
	}
	lifecycle.Derive(&merged, s.now())
	s.log.Info().Str("event_id", merged.ID).Msg("event updated")
	dto.SuccessResponse(ctx, http.StatusOK, "Event updated successfully", gin.H{"event": merged})
}

func (s *service) CancelEvent(ctx *ginext.Context) {
	rctx := ctx.Request.Context()
	event, err := s.repo.GetEventByID(rctx, ctx.Param("id"))
	if err != nil {
		s.fail(ctx, err, "get event")
		return
	}
	if event.Status == model.EventCancelled {
		dto.BadResponseError(ctx, dto.AlreadyCancelled, "Event is already cancelled")
		return
	}
	if err := s.repo.CancelEvent(rctx, event.ID); err != nil {
		s.fail(ctx, err, "cancel event")
		return
	}

	s.publish(rctx, dto.NotificationMessage{Kind: dto.NotifyEventCancelled, EventID: event.ID}, 0)
	s.log.Info().Str("event_id", event.ID).Msg("event cancelled")

	event.Status = model.EventCancelled
	dto.SuccessResponse(ctx, http.StatusOK, "Event cancelled successfully", gin.H{"event": event})
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	id := ctx.Param("id")
	if err := s.repo.DeleteEvent(ctx.Request.Context(), id); err != nil {
		s.fail(ctx, err, "delete event")
		return
	}
	s.log.Info().Str("event_id", id).Msg("event deleted")
	dto.SuccessResponse(ctx, http.StatusOK, "Event deleted successfully", nil)
}

func (s *service) Analytics(ctx *ginext.Context) {
	rctx := ctx.Request.Context()
	events, err := s.repo.ListAllEvents(rctx)
	if err != nil {
		s.fail(ctx, err, "list events")
		return
	}
	counts, err := s.repo.CountRegistrationsByEvent(rctx, lifecycle.AnalyticsStatuses)
	if err != nil {
		s.fail(ctx, err, "count registrations")
		return
	}
	analytics, total := lifecycle.BuildAnalytics(events, counts)
	dto.OK(ctx, gin.H{
		"analytics":          analytics,
		"totalRegistrations": total,
	})
}

func (s *service) EventRegistrations(ctx *ginext.Context) {
	rctx := ctx.Request.Context()
	event, err := s.repo.GetEventByID(rctx, ctx.Param("id"))
	if err != nil {
		s.fail(ctx, err, "get event")
		return
	}
	regs, err := s.repo.GetRegistrationsByEventID(rctx, event.ID)
	if err != nil {
		s.fail(ctx, err, "list registrations")
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	dto.OK(ctx, gin.H{"registrations": regs, "count": len(regs)})
}

// DownloadRegistrations streams the registrant CSV to an admin or to the
// student whose email matches the event coordinator.
func (s *service) DownloadRegistrations(ctx *ginext.Context) {
	rctx := ctx.Request.Context()
	event, err := s.repo.GetEventByID(rctx, ctx.Param("id"))
	if err != nil {
		s.fail(ctx, err, "get event")
		return
	}

	id, _ := s.identity(ctx)
	if id.Role != model.RoleAdmin {
		student, err := s.repo.GetStudentByID(rctx, id.ID)
		if err != nil && !errors.Is(err, repo.ErrStudentNotFound) {
			s.fail(ctx, err, "get student")
			return
		}
		if student == nil || event.CoordinatorEmail == "" || !strings.EqualFold(student.Email, event.CoordinatorEmail) {
			dto.ForbiddenError(ctx, "Only admins or the event coordinator can download registrations")
			return
		}
	}

	regs, err := s.repo.GetRegistrationsByEventID(rctx, event.ID)
	if err != nil {
		s.fail(ctx, err, "list registrations")
		return
	}
	var buf bytes.Buffer
	if err := export.WriteRegistrations(&buf, regs); err != nil {
		s.fail(ctx, err, "write csv")
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(event)))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
