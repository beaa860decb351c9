package dto

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/model"
)

const (
	FieldIncorrect     = "FIELD_INCORRECT"
	Unauthorized       = "UNAUTHORIZED"
	Forbidden          = "FORBIDDEN"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Server error"

	EventNotFound         = "EVENT_NOT_FOUND"
	EventNotOpen          = "EVENT_NOT_OPEN"
	EventFull             = "EVENT_FULL"
	EventHasRegistrations = "EVENT_HAS_REGISTRATIONS"
	DeadlinePassed        = "DEADLINE_PASSED"
	IncompleteTeam        = "INCOMPLETE_TEAM"
	InvalidEvent          = "INVALID_EVENT"
	RegistrationNotFound  = "REGISTRATION_NOT_FOUND"
	RegistrationDuplicate = "REGISTRATION_DUPLICATE"
	InvalidTransition     = "INVALID_TRANSITION"
	CancelWindowClosed    = "CANCEL_WINDOW_CLOSED"
	AlreadyCancelled      = "ALREADY_CANCELLED"
	StudentNotFound       = "STUDENT_NOT_FOUND"
	AdminNotFound         = "ADMIN_NOT_FOUND"
	AccountExists         = "ACCOUNT_EXISTS"
	InvalidCredentials    = "INVALID_CREDENTIALS"
	Conflict              = "CONFLICT"
)

type StudentLoginRequest struct {
	RollNumber string `json:"rollNumber" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

type CreateStudentRequest struct {
	RollNumber string `json:"rollNumber" validate:"required,max=64"`
	Name       string `json:"name" validate:"required,min=2,max=255"`
	Department string `json:"department" validate:"required"`
	Year       string `json:"year" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
}

type CreateEventRequest struct {
	Title                 string          `json:"title" validate:"required,max=255"`
	Description           string          `json:"description" validate:"required"`
	Category              string          `json:"category" validate:"required,category"`
	SubCategory           string          `json:"subCategory" validate:"omitempty,subcategory"`
	Domain                string          `json:"domain"`
	PosterURL             string          `json:"posterUrl" validate:"omitempty,url"`
	StartDate             time.Time       `json:"startDate" validate:"required"`
	EndDate               time.Time       `json:"endDate" validate:"required"`
	Duration              string          `json:"duration"`
	CoordinatorName       string          `json:"coordinatorName"`
	CoordinatorEmail      string          `json:"coordinatorEmail" validate:"omitempty,email"`
	CoordinatorPhone      string          `json:"coordinatorPhone"`
	Venue                 string          `json:"venue" validate:"required"`
	MaxParticipants       int             `json:"maxParticipants" validate:"positive"`
	RegistrationDeadline  time.Time       `json:"registrationDeadline" validate:"required"`
	EventType             model.EventType `json:"eventType"`
	CertificationProvided bool            `json:"certificationProvided"`
	MainEventID           string          `json:"mainEventId"`
	IsMainEvent           bool            `json:"isMainEvent"`
	AdditionalFields      map[string]any  `json:"additionalFields"`
}

// UpdateEventRequest is a partial update; absent fields are left untouched.
type UpdateEventRequest struct {
	Title                 *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Description           *string          `json:"description"`
	Category              *string          `json:"category" validate:"omitempty,category"`
	SubCategory           *string          `json:"subCategory" validate:"omitempty,subcategory"`
	Domain                *string          `json:"domain"`
	PosterURL             *string          `json:"posterUrl" validate:"omitempty,url"`
	StartDate             *time.Time       `json:"startDate"`
	EndDate               *time.Time       `json:"endDate"`
	Duration              *string          `json:"duration"`
	CoordinatorName       *string          `json:"coordinatorName"`
	CoordinatorEmail      *string          `json:"coordinatorEmail" validate:"omitempty,email"`
	CoordinatorPhone      *string          `json:"coordinatorPhone"`
	Venue                 *string          `json:"venue" validate:"omitempty,min=1"`
	MaxParticipants       *int             `json:"maxParticipants" validate:"omitempty,positive"`
	RegistrationDeadline  *time.Time       `json:"registrationDeadline"`
	EventType             *model.EventType `json:"eventType"`
	CertificationProvided *bool            `json:"certificationProvided"`
	AdditionalFields      map[string]any   `json:"additionalFields"`
}

func (r UpdateEventRequest) Patch() model.EventPatch {
	return model.EventPatch{
		Title:                 r.Title,
		Description:           r.Description,
		Category:              r.Category,
		SubCategory:           r.SubCategory,
		Domain:                r.Domain,
		PosterURL:             r.PosterURL,
		StartDate:             r.StartDate,
		EndDate:               r.EndDate,
		Duration:              r.Duration,
		CoordinatorName:       r.CoordinatorName,
		CoordinatorEmail:      r.CoordinatorEmail,
		CoordinatorPhone:      r.CoordinatorPhone,
		Venue:                 r.Venue,
		MaxParticipants:       r.MaxParticipants,
		RegistrationDeadline:  r.RegistrationDeadline,
		EventType:             r.EventType,
		CertificationProvided: r.CertificationProvided,
		AdditionalFields:      r.AdditionalFields,
	}
}

// CreateRegistrationRequest leaves team completeness to the admission
// checker so the rejection order is preserved.
type CreateRegistrationRequest struct {
	EventID            string             `json:"eventId" validate:"required"`
	Email              string             `json:"email" validate:"omitempty,email"`
	Phone              string             `json:"phone"`
	IsTeamRegistration bool               `json:"isTeamRegistration"`
	TeamName           string             `json:"teamName"`
	TeamMembers        []model.TeamMember `json:"teamMembers"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// ErrorResponse writes {success:false, message, code}.
func ErrorResponse(c *ginext.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"code":    code,
	})
}

func BadResponseError(c *ginext.Context, code, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

func UnauthorizedError(c *ginext.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, Unauthorized, message)
}

func ForbiddenError(c *ginext.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, Forbidden, message)
}

func InternalServerError(c *ginext.Context) {
	ErrorResponse(c, http.StatusInternalServerError, ServiceUnavailable, InternalError)
}

func FieldIncorrectError(c *ginext.Context, message string) {
	BadResponseError(c, FieldIncorrect, message)
}

// SuccessResponse writes {success:true, message?, ...payload}.
func SuccessResponse(c *ginext.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func OK(c *ginext.Context, payload gin.H) {
	SuccessResponse(c, http.StatusOK, "", payload)
}

func Created(c *ginext.Context, message string, payload gin.H) {
	SuccessResponse(c, http.StatusCreated, message, payload)
}

type NotificationKind string

const (
	NotifyRegistered     NotificationKind = "registered"
	NotifyReminder       NotificationKind = "reminder"
	NotifyEventCancelled NotificationKind = "event_cancelled"
)

// NotificationMessage is the broker payload. The worker re-reads the
// referenced records, so messages carry ids only.
type NotificationMessage struct {
	Kind           NotificationKind `json:"kind"`
	RegistrationID string           `json:"registrationId,omitempty"`
	EventID        string           `json:"eventId"`
	CreatedAt      time.Time        `json:"createdAt"`
}
