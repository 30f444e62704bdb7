package appointment

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/catalog"
)

type TimeWindow string

const (
	WindowAll      TimeWindow = "all"
	WindowUpcoming TimeWindow = "upcoming"
	WindowPast     TimeWindow = "past"
)

type SortOrder string

const (
	SortDateDesc       SortOrder = "date_desc"
	SortDateAsc        SortOrder = "date_asc"
	SortPatientNameAsc SortOrder = "patient_name_asc"
)

const DefaultSort = SortDateDesc

var ErrInvalidFilter = errors.New("invalid appointment filter")

type Filter struct {
	SearchText     string
	Status         Status
	TimeWindow     TimeWindow
	PatientID      string
	ProfessionalID string
}

func (f Filter) validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidFilter, f.Status)
	}
	switch f.TimeWindow {
	case "", WindowAll, WindowUpcoming, WindowPast:
	default:
		return fmt.Errorf("%w: window %q", ErrInvalidFilter, f.TimeWindow)
	}
	return nil
}

// ParseSort accepts the known orders; empty means the default.
func ParseSort(raw string) (SortOrder, error) {
	switch SortOrder(raw) {
	case "":
		return DefaultSort, nil
	case SortDateDesc, SortDateAsc, SortPatientNameAsc:
		return SortOrder(raw), nil
	default:
		return "", fmt.Errorf("%w: sort %q", ErrInvalidFilter, raw)
	}
}

// IsUpcoming is true for open appointments that have not started yet. A
// closed appointment is never upcoming, even when dated in the future.
func IsUpcoming(a Appointment, now time.Time) bool {
	return !a.DateTime.Before(now) && !a.Status.Terminal()
}

// List resolves display names, then applies search, time window and order.
func (s *Service) List(ctx context.Context, f Filter, order SortOrder) ([]View, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if order == "" {
		order = DefaultSort
	}

	appts, err := s.repo.List(ctx, Query{
		PatientID:      f.PatientID,
		ProfessionalID: f.ProfessionalID,
		Status:         f.Status,
	})
	if err != nil {
		s.logger.Error("list appointments", zap.Error(err))
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	now := s.now()
	needle := strings.ToLower(strings.TrimSpace(f.SearchText))
	names := newNameCache(s.dir, s.logger)

	out := make([]View, 0, len(appts))
	for _, a := range appts {
		switch f.TimeWindow {
		case WindowUpcoming:
			if !IsUpcoming(a, now) {
				continue
			}
		case WindowPast:
			if IsUpcoming(a, now) {
				continue
			}
		}

		v := names.view(ctx, a)
		if needle != "" && !matches(v, needle) {
			continue
		}
		out = append(out, v)
	}

	sortViews(out, order)
	return out, nil
}

func matches(v View, needle string) bool {
	return strings.Contains(strings.ToLower(v.PatientName), needle) ||
		strings.Contains(strings.ToLower(v.ProfessionalName), needle) ||
		strings.Contains(strings.ToLower(v.SpecialtyName), needle)
}

func sortViews(views []View, order SortOrder) {
	switch order {
	case SortDateAsc:
		slices.SortStableFunc(views, func(a, b View) int { return a.DateTime.Compare(b.DateTime) })
	case SortPatientNameAsc:
		slices.SortStableFunc(views, func(a, b View) int {
			return cmp.Compare(strings.ToLower(a.PatientName), strings.ToLower(b.PatientName))
		})
	default:
		slices.SortStableFunc(views, func(a, b View) int { return b.DateTime.Compare(a.DateTime) })
	}
}

// Describe resolves the display names of a single appointment.
func (s *Service) Describe(ctx context.Context, a Appointment) View {
	return newNameCache(s.dir, s.logger).view(ctx, a)
}

// CalendarDay groups one day's appointments for a month view.
type CalendarDay struct {
	Date         time.Time `json:"date"`
	HasPending   bool      `json:"has_pending"`
	Appointments []View    `json:"appointments"`
}

// Calendar returns the days of a month that carry at least one appointment,
// ascending, each with its appointments in time order.
func (s *Service) Calendar(ctx context.Context, year int, month time.Month, f Filter) ([]CalendarDay, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	loc := s.now().Location()
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)

	appts, err := s.repo.List(ctx, Query{
		PatientID:      f.PatientID,
		ProfessionalID: f.ProfessionalID,
		Status:         f.Status,
		From:           from,
		To:             to,
	})
	if err != nil {
		return nil, fmt.Errorf("list calendar appointments: %w", err)
	}

	names := newNameCache(s.dir, s.logger)
	views := make([]View, 0, len(appts))
	for _, a := range appts {
		views = append(views, names.view(ctx, a))
	}
	sortViews(views, SortDateAsc)

	var days []CalendarDay
	for _, v := range views {
		local := v.DateTime.In(loc)
		if len(days) == 0 || !catalog.SameDay(days[len(days)-1].Date, local) {
			days = append(days, CalendarDay{Date: catalog.Day(local)})
		}
		d := &days[len(days)-1]
		d.Appointments = append(d.Appointments, v)
		if v.Status == StatusPendingApproval {
			d.HasPending = true
		}
	}
	return days, nil
}

// Summary feeds the dashboard.
type Summary struct {
	Upcoming        int   `json:"upcoming"`
	PendingApproval int   `json:"pending_approval"`
	Completed       int   `json:"completed"`
	Cancelled       int   `json:"cancelled"`
	NotAttended     int   `json:"not_attended"`
	Next            *View `json:"next,omitempty"`
}

func (s *Service) Dashboard(ctx context.Context, f Filter) (Summary, error) {
	appts, err := s.repo.List(ctx, Query{PatientID: f.PatientID, ProfessionalID: f.ProfessionalID})
	if err != nil {
		return Summary{}, fmt.Errorf("load dashboard: %w", err)
	}

	now := s.now()
	var (
		sum  Summary
		next *Appointment
	)
	for i := range appts {
		a := &appts[i]
		switch a.Status {
		case StatusPendingApproval:
			sum.PendingApproval++
		case StatusCompleted:
			sum.Completed++
		case StatusCancelled:
			sum.Cancelled++
		case StatusNotAttended:
			sum.NotAttended++
		}
		if IsUpcoming(*a, now) {
			sum.Upcoming++
			if next == nil || a.DateTime.Before(next.DateTime) {
				next = a
			}
		}
	}
	if next != nil {
		v := s.Describe(ctx, *next)
		sum.Next = &v
	}
	return sum, nil
}

// nameCache memoises catalog lookups for the span of one listing.
type nameCache struct {
	dir    catalog.Directory
	logger *zap.Logger
	names  map[string]string
}

func newNameCache(dir catalog.Directory, logger *zap.Logger) *nameCache {
	return &nameCache{dir: dir, logger: logger, names: make(map[string]string)}
}

func (c *nameCache) lookup(ctx context.Context, kind, id string, get func() (string, error)) string {
	if id == "" {
		return ""
	}
	key := kind + ":" + id
	if name, ok := c.names[key]; ok {
		return name
	}
	name, err := get()
	if err != nil {
		c.logger.Debug("resolve display name", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
		name = ""
	}
	c.names[key] = name
	return name
}

func (c *nameCache) view(ctx context.Context, a Appointment) View {
	v := View{Appointment: a}
	if c.dir == nil {
		return v
	}
	v.PatientName = c.lookup(ctx, "patient", a.PatientID, func() (string, error) {
		p, err := c.dir.GetPatient(ctx, a.PatientID)
		if err != nil {
			return "", err
		}
		return p.Name, nil
	})
	v.ProfessionalName = c.lookup(ctx, "professional", a.ProfessionalID, func() (string, error) {
		p, err := c.dir.GetProfessional(ctx, a.ProfessionalID)
		if err != nil {
			return "", err
		}
		return p.Name, nil
	})
	v.SpecialtyName = c.lookup(ctx, "specialty", a.SpecialtyID, func() (string, error) {
		sp, err := c.dir.GetSpecialty(ctx, a.SpecialtyID)
		if err != nil {
			return "", err
		}
		return sp.Name, nil
	})
	return v
}
