package model

import "time"

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

type RegistrationStatus string

const (
	RegRegistered RegistrationStatus = "registered"
	RegWaitlisted RegistrationStatus = "waitlisted"
	RegConfirmed  RegistrationStatus = "confirmed"
	RegAttended   RegistrationStatus = "attended"
	RegAbsent     RegistrationStatus = "absent"
	RegCancelled  RegistrationStatus = "cancelled"
)

const (
	CategoryWorkshop        = "workshop"
	CategoryHackathon       = "hackathon"
	CategoryTechSymposium   = "tech-symposium"
	CategoryGuestLecture    = "guest-lecture"
	CategoryMainEvent       = "main-event"
	SubCategoryTechnical    = "technical"
	SubCategoryNonTechnical = "non-technical"
)

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

type EventType struct {
	IntraDept bool `json:"intraDept" bson:"intra_dept"`
	InterDept bool `json:"interDept" bson:"inter_dept"`
	Online    bool `json:"online" bson:"online"`
	Offline   bool `json:"offline" bson:"offline"`
}

type Event struct {
	ID                    string         `db:"id" json:"id" bson:"_id"`
	Title                 string         `db:"title" json:"title" bson:"title"`
	Description           string         `db:"description" json:"description" bson:"description"`
	Category              string         `db:"category" json:"category" bson:"category"`
	SubCategory           string         `db:"sub_category" json:"subCategory,omitempty" bson:"sub_category,omitempty"`
	Domain                string         `db:"domain" json:"domain,omitempty" bson:"domain,omitempty"`
	PosterURL             string         `db:"poster_url" json:"posterUrl,omitempty" bson:"poster_url,omitempty"`
	StartDate             time.Time      `db:"start_date" json:"startDate" bson:"start_date"`
	EndDate               time.Time      `db:"end_date" json:"endDate" bson:"end_date"`
	Duration              string         `db:"duration" json:"duration,omitempty" bson:"duration,omitempty"`
	CoordinatorName       string         `db:"coordinator_name" json:"coordinatorName,omitempty" bson:"coordinator_name,omitempty"`
	CoordinatorEmail      string         `db:"coordinator_email" json:"coordinatorEmail,omitempty" bson:"coordinator_email,omitempty"`
	CoordinatorPhone      string         `db:"coordinator_phone" json:"coordinatorPhone,omitempty" bson:"coordinator_phone,omitempty"`
	Venue                 string         `db:"venue" json:"venue" bson:"venue"`
	MaxParticipants       int            `db:"max_participants" json:"maxParticipants" bson:"max_participants"`
	RegistrationDeadline  time.Time      `db:"registration_deadline" json:"registrationDeadline" bson:"registration_deadline"`
	EventType             EventType      `json:"eventType" bson:"event_type"`
	CertificationProvided bool           `db:"certification_provided" json:"certificationProvided" bson:"certification_provided"`
	Status                EventStatus    `db:"status" json:"status" bson:"status"`
	MainEventID           string         `db:"main_event_id" json:"mainEventId,omitempty" bson:"main_event_id,omitempty"`
	IsMainEvent           bool           `db:"is_main_event" json:"isMainEvent" bson:"is_main_event"`
	AdditionalFields      map[string]any `db:"additional_fields" json:"additionalFields,omitempty" bson:"additional_fields,omitempty"`
	CreatedBy             string         `db:"created_by" json:"createdBy" bson:"created_by"`
	CreatedAt             time.Time      `db:"created_at" json:"createdAt" bson:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updatedAt" bson:"updated_at"`

	SubEvents []Event `json:"subEvents,omitempty" bson:"-"`
}

// EventPatch carries the fields of a partial update; nil means untouched.
type EventPatch struct {
	Title                 *string
	Description           *string
	Category              *string
	SubCategory           *string
	Domain                *string
	PosterURL             *string
	StartDate             *time.Time
	EndDate               *time.Time
	Duration              *string
	CoordinatorName       *string
	CoordinatorEmail      *string
	CoordinatorPhone      *string
	Venue                 *string
	MaxParticipants       *int
	RegistrationDeadline  *time.Time
	EventType             *EventType
	CertificationProvided *bool
	AdditionalFields      map[string]any
}

// Apply returns a copy of e with the patch merged in.
func (p EventPatch) Apply(e Event) Event {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.SubCategory != nil {
		e.SubCategory = *p.SubCategory
	}
	if p.Domain != nil {
		e.Domain = *p.Domain
	}
	if p.PosterURL != nil {
		e.PosterURL = *p.PosterURL
	}
	if p.StartDate != nil {
		e.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		e.EndDate = *p.EndDate
	}
	if p.Duration != nil {
		e.Duration = *p.Duration
	}
	if p.CoordinatorName != nil {
		e.CoordinatorName = *p.CoordinatorName
	}
	if p.CoordinatorEmail != nil {
		e.CoordinatorEmail = *p.CoordinatorEmail
	}
	if p.CoordinatorPhone != nil {
		e.CoordinatorPhone = *p.CoordinatorPhone
	}
	if p.Venue != nil {
		e.Venue = *p.Venue
	}
	if p.MaxParticipants != nil {
		e.MaxParticipants = *p.MaxParticipants
	}
	if p.RegistrationDeadline != nil {
		e.RegistrationDeadline = *p.RegistrationDeadline
	}
	if p.EventType != nil {
		e.EventType = *p.EventType
	}
	if p.CertificationProvided != nil {
		e.CertificationProvided = *p.CertificationProvided
	}
	if p.AdditionalFields != nil {
		e.AdditionalFields = p.AdditionalFields
	}
	return e
}

type StudentSnapshot struct {
	Name       string `json:"name" bson:"name"`
	RollNumber string `json:"rollNumber" bson:"roll_number"`
	Department string `json:"department" bson:"department"`
	Year       string `json:"year" bson:"year"`
	Email      string `json:"email" bson:"email"`
	Phone      string `json:"phone" bson:"phone"`
}

type TeamMember struct {
	Name       string `json:"name" bson:"name"`
	RollNumber string `json:"rollNumber" bson:"roll_number"`
	Department string `json:"department" bson:"department"`
	Year       string `json:"year" bson:"year"`
	Email      string `json:"email,omitempty" bson:"email,omitempty"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
}

type Result struct {
	Position          string  `json:"position,omitempty" bson:"position,omitempty"`
	Score             float64 `json:"score,omitempty" bson:"score,omitempty"`
	Remarks           string  `json:"remarks,omitempty" bson:"remarks,omitempty"`
	CertificateIssued bool    `json:"certificateIssued" bson:"certificate_issued"`
}

type Payment struct {
	Amount        float64    `json:"amount" bson:"amount"`
	TransactionID string     `json:"transactionId,omitempty" bson:"transaction_id,omitempty"`
	Status        string     `json:"status,omitempty" bson:"status,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty" bson:"paid_at,omitempty"`
}

type Registration struct {
	ID                 string             `db:"id" json:"id" bson:"_id"`
	StudentID          string             `db:"student_id" json:"studentId" bson:"student_id"`
	EventID            string             `db:"event_id" json:"eventId" bson:"event_id"`
	Student            StudentSnapshot    `json:"student" bson:"student"`
	Status             RegistrationStatus `db:"status" json:"status" bson:"status"`
	IsTeamRegistration bool               `db:"is_team_registration" json:"isTeamRegistration" bson:"is_team_registration"`
	TeamName           string             `db:"team_name" json:"teamName,omitempty" bson:"team_name,omitempty"`
	TeamMembers        []TeamMember       `db:"team_members" json:"teamMembers,omitempty" bson:"team_members,omitempty"`
	RegistrationDate   time.Time          `db:"registration_date" json:"registrationDate" bson:"registration_date"`
	Result             *Result            `db:"result" json:"result,omitempty" bson:"result,omitempty"`
	Payment            *Payment           `db:"payment" json:"payment,omitempty" bson:"payment,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"createdAt" bson:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updatedAt" bson:"updated_at"`
}

type Student struct {
	ID           string    `db:"id" json:"id" bson:"_id"`
	RollNumber   string    `db:"roll_number" json:"rollNumber" bson:"roll_number"`
	Name         string    `db:"name" json:"name" bson:"name"`
	Department   string    `db:"department" json:"department" bson:"department"`
	Year         string    `db:"year" json:"year" bson:"year"`
	Email        string    `db:"email" json:"email" bson:"email"`
	Phone        string    `db:"phone" json:"phone" bson:"phone"`
	PasswordHash string    `db:"password_hash" json:"-" bson:"password_hash"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt" bson:"created_at"`
}

type Admin struct {
	ID           string    `db:"id" json:"id" bson:"_id"`
	Email        string    `db:"email" json:"email" bson:"email"`
	Name         string    `db:"name" json:"name" bson:"name"`
	PasswordHash string    `db:"password_hash" json:"-" bson:"password_hash"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt" bson:"created_at"`
}
