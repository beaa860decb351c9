package service

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/dto"
	"eventhub/internal/lifecycle"
	"eventhub/internal/model"
	"eventhub/pkg/validator"
)

func (s *service) CreateRegistration(ctx *ginext.Context) {
	var req dto.CreateRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.FieldIncorrectError(ctx, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.FieldIncorrectError(ctx, verr.Error())
		return
	}

	id, _ := s.identity(ctx)
	rctx := ctx.Request.Context()
	student, err := s.repo.GetStudentByID(rctx, id.ID)
	if err != nil {
		s.fail(ctx, err, "get student")
		return
	}

	now := s.now()
	reg := &model.Registration{
		ID:                 uuid.NewString(),
		StudentID:          student.ID,
		EventID:            req.EventID,
		Student:            lifecycle.Snapshot(student, req.Email, req.Phone),
		Status:             model.RegRegistered,
		IsTeamRegistration: req.IsTeamRegistration,
		RegistrationDate:   now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.IsTeamRegistration {
		reg.TeamName = strings.TrimSpace(req.TeamName)
		reg.TeamMembers = req.TeamMembers
	}
	team := lifecycle.TeamRequest{
		IsTeam:   req.IsTeamRegistration,
		TeamName: req.TeamName,
		Members:  req.TeamMembers,
	}

	var event model.Event
	err = s.repo.BookRegistrationTx(rctx, reg, func(e *model.Event, occ lifecycle.Occupancy) error {
		if err := lifecycle.CheckAdmission(e, occ, team, now); err != nil {
			return err
		}
		event = *e
		return nil
	})
	if err != nil {
		s.log.Info().Err(err).Str("event_id", req.EventID).Str("student_id", student.ID).Msg("registration rejected")
		s.fail(ctx, err, "book registration")
		return
	}
	s.log.Info().Str("registration_id", reg.ID).Str("event_id", reg.EventID).Msg("registration created")

	s.publish(rctx, dto.NotificationMessage{Kind: dto.NotifyRegistered, RegistrationID: reg.ID, EventID: reg.EventID}, 0)
	if s.reminderLead > 0 {
		delay := event.StartDate.Add(-s.reminderLead).Sub(now)
		s.publish(rctx, dto.NotificationMessage{Kind: dto.NotifyReminder, RegistrationID: reg.ID, EventID: reg.EventID}, delay)
	}

	dto.Created(ctx, "Registration successful", gin.H{"registration": reg})
}

func (s *service) CancelRegistration(ctx *ginext.Context) {
	id, _ := s.identity(ctx)
	now := s.now()
	reg, err := s.repo.ChangeRegistrationStatusTx(ctx.Request.Context(), ctx.Param("id"), model.RegCancelled,
		func(e *model.Event, r *model.Registration, _ int) error {
			return lifecycle.CheckSelfCancel(e, r, id.ID, now)
		})
	if err != nil {
		s.fail(ctx, err, "cancel registration")
		return
	}
	s.log.Info().Str("registration_id", reg.ID).Msg("registration cancelled by student")
	dto.SuccessResponse(ctx, http.StatusOK, "Registration cancelled successfully", gin.H{"registration": reg})
}

func (s *service) UpdateRegistrationStatus(ctx *ginext.Context) {
	var req dto.StatusUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.FieldIncorrectError(ctx, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.FieldIncorrectError(ctx, verr.Error())
		return
	}
	next := model.RegistrationStatus(req.Status)
	if !lifecycle.ValidRegistrationStatus(next) {
		dto.FieldIncorrectError(ctx, "Invalid registration status")
		return
	}

	reg, err := s.repo.ChangeRegistrationStatusTx(ctx.Request.Context(), ctx.Param("id"), next,
		func(e *model.Event, r *model.Registration, active int) error {
			return lifecycle.CheckStatusChange(e, r, next, active)
		})
	if err != nil {
		s.fail(ctx, err, "update registration status")
		return
	}
	s.log.Info().Str("registration_id", reg.ID).Str("status", string(reg.Status)).Msg("registration status updated")
	dto.SuccessResponse(ctx, http.StatusOK, "Registration status updated", gin.H{"registration": reg})
}
