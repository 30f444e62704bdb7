package appointment

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled       Status = "scheduled"
	StatusPendingApproval Status = "pending_approval"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
	StatusNotAttended     Status = "not_attended"
)

var AllStatuses = []Status{
	StatusScheduled,
	StatusPendingApproval,
	StatusCompleted,
	StatusCancelled,
	StatusNotAttended,
}

// transitions lists every legal move. Statuses without an entry are terminal.
var transitions = map[Status][]Status{
	StatusPendingApproval: {StatusScheduled, StatusCancelled},
	StatusScheduled:       {StatusCompleted, StatusCancelled, StatusNotAttended},
}

func (s Status) Valid() bool {
	return slices.Contains(AllStatuses, s)
}

// Terminal statuses accept no further transition.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

var ErrInvalidStatusTransition = errors.New("invalid status transition")

// TransitionError reports a rejected status change. It matches
// ErrInvalidStatusTransition under errors.Is.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidStatusTransition
}

type Type string

const (
	TypeInPerson Type = "in_person"
	TypeVirtual  Type = "virtual"
)

// Role is the capability of whoever acts on the store, resolved once per
// session.
type Role string

const (
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a raw role to a known one; anything unrecognised is a
// patient.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleStaff, RoleAdmin:
		return Role(raw)
	default:
		return RolePatient
	}
}

// IsStaff is true for roles allowed to manage other people's appointments.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// InitialStatus is the status a new booking starts in: patients request,
// staff schedule directly.
func InitialStatus(r Role) Status {
	if r.IsStaff() {
		return StatusScheduled
	}
	return StatusPendingApproval
}

type Appointment struct {
	ID             uuid.UUID `json:"id"`
	PatientID      string    `json:"patient_id"`
	ProfessionalID string    `json:"professional_id"`
	SpecialtyID    string    `json:"specialty_id,omitempty"`
	DateTime       time.Time `json:"date_time"`
	Status         Status    `json:"status"`
	Type           Type      `json:"type"`
	Location       string    `json:"location,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	VideoCallLink  string    `json:"video_call_link,omitempty"`
	Origin         Role      `json:"origin"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Draft is a validated booking ready to be stored.
type Draft struct {
	PatientID      string
	ProfessionalID string
	SpecialtyID    string
	DateTime       time.Time
	Type           Type
	Location       string
	Notes          string
	VideoCallLink  string
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// View is an appointment with display names resolved from the catalog.
// Names are never stored on the record itself.
type View struct {
	Appointment
	PatientName      string `json:"patient_name"`
	ProfessionalName string `json:"professional_name"`
	SpecialtyName    string `json:"specialty_name,omitempty"`
}
