package appointment

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps appointments for the lifetime of the process.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]Appointment
	order  []uuid.UUID
	events []EventLog
	now    func() time.Time
}

func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{
		byID: make(map[uuid.UUID]Appointment),
		now:  now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, a Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	ts := r.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = ts
	}
	a.UpdatedAt = ts

	if _, exists := r.byID[a.ID]; !exists {
		r.order = append(r.order, a.ID)
	}
	r.byID[a.ID] = a
	return &a, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = r.now()
	r.byID[id] = a
	return &a, nil
}

func (r *MemoryRepository) UpdateDateTime(_ context.Context, id uuid.UUID, dateTime time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.DateTime = dateTime
	a.UpdatedAt = r.now()
	r.byID[id] = a
	return &a, nil
}

// List returns matching appointments in insertion order.
func (r *MemoryRepository) List(_ context.Context, q Query) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Appointment, 0, len(r.order))
	for _, id := range r.order {
		a := r.byID[id]
		if q.PatientID != "" && a.PatientID != q.PatientID {
			continue
		}
		if q.ProfessionalID != "" && a.ProfessionalID != q.ProfessionalID {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if !q.From.IsZero() && a.DateTime.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !a.DateTime.Before(q.To) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *MemoryRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.now()
	}
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the event log.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.events)
}
