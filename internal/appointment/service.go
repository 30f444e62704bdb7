package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/availability"
	"github.com/hackgods/medischedule/internal/catalog"
	"github.com/hackgods/medischedule/internal/metrics"
	redisclient "github.com/hackgods/medischedule/internal/redis"
)

const (
	EventAppointmentCreated     = "APPOINTMENT_CREATED"
	EventAppointmentStatus      = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
)

var (
	ErrStatusChanged     = errors.New("appointment status changed concurrently, please retry")
	ErrAppointmentBusy   = errors.New("appointment is being modified, please retry")
	ErrInvalidStatus     = errors.New("unknown appointment status")
	ErrSlotNotAvailable  = errors.New("requested time is not an open slot")
	ErrAppointmentClosed = errors.New("appointment is already closed")
)

type Deps struct {
	Repo      Repository
	Directory catalog.Directory
	Resolver  *availability.Resolver
	Locker    redisclient.Locker
	Metrics   *metrics.BookingMetrics
	Logger    *zap.Logger
	Now       func() time.Time
}

type Service struct {
	repo     Repository
	dir      catalog.Directory
	resolver *availability.Resolver
	locker   redisclient.Locker
	metrics  *metrics.BookingMetrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:     d.Repo,
		dir:      d.Directory,
		resolver: d.Resolver,
		locker:   d.Locker,
		metrics:  d.Metrics,
		logger:   d.Logger,
		now:      d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.locker == nil {
		s.locker = redisclient.NewLocalLocker()
	}
	if s.resolver == nil {
		s.resolver = availability.NewResolver(d.Directory, s.now, s.logger)
	}
	return s
}

// Create stores a draft with the initial status implied by role. The draft
// is assumed valid; checking it is the booking workflow's job.
func (s *Service) Create(ctx context.Context, draft Draft, role Role) (*Appointment, error) {
	appt := Appointment{
		ID:             uuid.New(),
		PatientID:      draft.PatientID,
		ProfessionalID: draft.ProfessionalID,
		SpecialtyID:    draft.SpecialtyID,
		DateTime:       draft.DateTime,
		Status:         InitialStatus(role),
		Type:           draft.Type,
		Location:       draft.Location,
		Notes:          draft.Notes,
		VideoCallLink:  draft.VideoCallLink,
		Origin:         role,
	}

	created, err := s.repo.Create(ctx, appt)
	if err != nil {
		s.logger.Error("create appointment", zap.String("patient_id", draft.PatientID), zap.Error(err))
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.metrics.ObserveCreated(string(role), string(created.Status))
	s.logEvent(ctx, created.ID, EventAppointmentCreated, map[string]any{
		"patient_id":      created.PatientID,
		"professional_id": created.ProfessionalID,
		"date_time":       created.DateTime,
		"status":          created.Status,
		"origin":          role,
	})
	s.logger.Info("appointment created",
		zap.String("id", created.ID.String()),
		zap.String("status", string(created.Status)),
		zap.String("origin", string(role)))

	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return appt, nil
}

// SetStatus applies a status change allowed by the transition table.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	var updated *Appointment
	err := s.locker.WithAppointmentLock(ctx, id, func(lockCtx context.Context) error {
		current, err := s.Get(lockCtx, id)
		if err != nil {
			return err
		}

		if !CanTransition(current.Status, to) {
			s.metrics.ObserveTransition(string(current.Status), string(to), "rejected")
			return &TransitionError{From: current.Status, To: to}
		}

		appt, err := s.repo.UpdateStatus(lockCtx, id, current.Status, to)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return ErrStatusChanged
			}
			return fmt.Errorf("update appointment status: %w", err)
		}

		s.metrics.ObserveTransition(string(current.Status), string(to), "ok")
		s.logEvent(lockCtx, id, EventAppointmentStatus, map[string]any{
			"from": current.Status,
			"to":   to,
		})
		updated = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrAppointmentBusy
		}
		return nil, err
	}

	s.logger.Info("appointment status changed",
		zap.String("id", id.String()),
		zap.String("status", string(updated.Status)))
	return updated, nil
}

// Approve confirms a pending patient request.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.SetStatus(ctx, id, StatusScheduled)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.SetStatus(ctx, id, StatusCancelled)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.SetStatus(ctx, id, StatusCompleted)
}

func (s *Service) MarkNotAttended(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.SetStatus(ctx, id, StatusNotAttended)
}

// Reschedule moves an open appointment to another slot of the same
// professional. Closed appointments cannot move.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, dateTime time.Time) (*Appointment, error) {
	var updated *Appointment
	err := s.locker.WithAppointmentLock(ctx, id, func(lockCtx context.Context) error {
		current, err := s.Get(lockCtx, id)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return ErrAppointmentClosed
		}

		slot := dateTime.Format(catalog.TimeLayout)
		if !s.resolver.IsDateBookable(lockCtx, current.ProfessionalID, dateTime) ||
			!s.resolver.HasSlot(lockCtx, current.ProfessionalID, dateTime, slot) {
			return ErrSlotNotAvailable
		}

		appt, err := s.repo.UpdateDateTime(lockCtx, id, dateTime)
		if err != nil {
			return fmt.Errorf("reschedule appointment: %w", err)
		}

		s.logEvent(lockCtx, id, EventAppointmentRescheduled, map[string]any{
			"from": current.DateTime,
			"to":   dateTime,
		})
		updated = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrAppointmentBusy
		}
		return nil, err
	}
	return updated, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("insert event log",
			zap.String("event", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err))
	}
}
