package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/auth"
	"eventhub/internal/dto"
	"eventhub/internal/model"
	"eventhub/internal/repo"
	"eventhub/pkg/validator"
)

func (s *service) invalidCredentials(ctx *ginext.Context) {
	dto.ErrorResponse(ctx, http.StatusUnauthorized, dto.InvalidCredentials, "Invalid credentials")
}

func (s *service) StudentLogin(ctx *ginext.Context) {
	var req dto.StudentLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.FieldIncorrectError(ctx, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.FieldIncorrectError(ctx, verr.Error())
		return
	}

	student, err := s.repo.GetStudentByRollNumber(ctx.Request.Context(), strings.TrimSpace(req.RollNumber))
	if errors.Is(err, repo.ErrStudentNotFound) {
		s.invalidCredentials(ctx)
		return
	}
	if err != nil {
		s.fail(ctx, err, "get student")
		return
	}
	if err := auth.CheckPassword(student.PasswordHash, req.Password); err != nil {
		s.invalidCredentials(ctx)
		return
	}

	token, err := s.tokens.Issue(student.ID, model.RoleStudent)
	if err != nil {
		s.fail(ctx, err, "issue token")
		return
	}
	s.log.Info().Str("student_id", student.ID).Msg("student logged in")
	dto.SuccessResponse(ctx, http.StatusOK, "Login successful", gin.H{"token": token, "student": student})
}

func (s *service) AdminLogin(ctx *ginext.Context) {
	var req dto.AdminLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.FieldIncorrectError(ctx, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.FieldIncorrectError(ctx, verr.Error())
		return
	}

	admin, err := s.repo.GetAdminByEmail(ctx.Request.Context(), strings.TrimSpace(req.Email))
	if errors.Is(err, repo.ErrAdminNotFound) {
		s.invalidCredentials(ctx)
		return
	}
	if err != nil {
		s.fail(ctx, err, "get admin")
		return
	}
	if err := auth.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		s.invalidCredentials(ctx)
		return
	}

	token, err := s.tokens.Issue(admin.ID, model.RoleAdmin)
	if err != nil {
		s.fail(ctx, err, "issue token")
		return
	}
	s.log.Info().Str("admin_id", admin.ID).Msg("admin logged in")
	dto.SuccessResponse(ctx, http.StatusOK, "Login successful", gin.H{"token": token, "admin": admin})
}

func (s *service) ChangePassword(ctx *ginext.Context) {
	var req dto.ChangePasswordRequest
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
	var hash string
	if id.Role == model.RoleAdmin {
		admin, err := s.repo.GetAdminByID(rctx, id.ID)
		if err != nil {
			s.fail(ctx, err, "get admin")
			return
		}
		hash = admin.PasswordHash
	} else {
		student, err := s.repo.GetStudentByID(rctx, id.ID)
		if err != nil {
			s.fail(ctx, err, "get student")
			return
		}
		hash = student.PasswordHash
	}
	if err := auth.CheckPassword(hash, req.CurrentPassword); err != nil {
		dto.BadResponseError(ctx, dto.InvalidCredentials, "Current password is incorrect")
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.fail(ctx, err, "hash password")
		return
	}
	if err := s.repo.UpdatePassword(rctx, id.Role, id.ID, newHash); err != nil {
		s.fail(ctx, err, "update password")
		return
	}
	s.log.Info().Str("account_id", id.ID).Str("role", id.Role).Msg("password changed")
	dto.SuccessResponse(ctx, http.StatusOK, "Password changed successfully", nil)
}

func (s *service) CreateStudent(ctx *ginext.Context) {
	var req dto.CreateStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.FieldIncorrectError(ctx, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.FieldIncorrectError(ctx, verr.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.fail(ctx, err, "hash password")
		return
	}
	student := &model.Student{
		ID:           uuid.NewString(),
		RollNumber:   strings.TrimSpace(req.RollNumber),
		Name:         strings.TrimSpace(req.Name),
		Department:   req.Department,
		Year:         req.Year,
		Email:        strings.TrimSpace(req.Email),
		Phone:        req.Phone,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateStudent(ctx.Request.Context(), student); err != nil {
		s.fail(ctx, err, "create student")
		return
	}
	s.log.Info().Str("student_id", student.ID).Msg("student created")
	dto.Created(ctx, "Student created successfully", gin.H{"student": student})
}

func (s *service) MyRegistrations(ctx *ginext.Context) {
	id, _ := s.identity(ctx)
	regs, err := s.repo.GetRegistrationsByStudentID(ctx.Request.Context(), id.ID)
	if err != nil {
		s.fail(ctx, err, "list registrations")
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	dto.OK(ctx, gin.H{"registrations": regs})
}

// BootstrapAdmin creates the configured admin account when it does not exist.
func BootstrapAdmin(ctx context.Context, r repo.Repository, log *zerolog.Logger, email, name, password string) error {
	if email == "" || password == "" {
		log.Warn().Msg("no bootstrap admin configured")
		return nil
	}
	_, err := r.GetAdminByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrAdminNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &model.Admin{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.CreateAdmin(ctx, admin); err != nil && !errors.Is(err, repo.ErrAccountExists) {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info().Str("email", admin.Email).Msg("bootstrap admin created")
	return nil
}
