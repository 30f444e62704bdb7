package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Query narrows a repository listing. Zero fields do not filter.
type Query struct {
	PatientID      string
	ProfessionalID string
	Status         Status
	From           time.Time
	To             time.Time
}

// Repository contains all storage interactions needed by the service.
type Repository interface {
	Create(ctx context.Context, a Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// UpdateStatus moves id from one status to another. It returns
	// ErrAppointmentNotFound when no record with that id is in status from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	UpdateDateTime(ctx context.Context, id uuid.UUID, dateTime time.Time) (*Appointment, error)

	List(ctx context.Context, q Query) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
