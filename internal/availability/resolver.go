package availability

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/catalog"
)

// Resolver answers availability questions for a professional. A missing
// professional, an unknown id and a day without entries all read as "no
// availability"; none of them is an error for the caller.
type Resolver struct {
	dir    catalog.Directory
	now    func() time.Time
	logger *zap.Logger
}

func NewResolver(dir catalog.Directory, now func() time.Time, logger *zap.Logger) *Resolver {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{dir: dir, now: now, logger: logger}
}

// Today is the current calendar day according to the resolver's clock.
func (r *Resolver) Today() time.Time {
	return catalog.Day(r.now())
}

func (r *Resolver) days(ctx context.Context, professionalID string) []catalog.AvailabilityDay {
	if professionalID == "" {
		return nil
	}
	prof, err := r.dir.GetProfessional(ctx, professionalID)
	if err != nil {
		if !errors.Is(err, catalog.ErrProfessionalNotFound) {
			r.logger.Warn("load professional availability",
				zap.String("professional_id", professionalID), zap.Error(err))
		}
		return nil
	}
	return prof.Availability
}

// SlotsFor returns the open start times of a professional on date, sorted.
// The result is never nil.
func (r *Resolver) SlotsFor(ctx context.Context, professionalID string, date time.Time) []string {
	for _, day := range r.days(ctx, professionalID) {
		if catalog.SameDay(day.Date, date) {
			slots := append([]string{}, day.Slots...)
			slices.Sort(slots)
			return slots
		}
	}
	return []string{}
}

// IsDateBookable is false without a professional, for days before today and
// for days with no open slot. Today counts when it still has slots.
func (r *Resolver) IsDateBookable(ctx context.Context, professionalID string, date time.Time) bool {
	if professionalID == "" {
		return false
	}
	if catalog.DayKey(date) < catalog.DayKey(r.Today()) {
		return false
	}
	return len(r.SlotsFor(ctx, professionalID, date)) > 0
}

// FindNearestAvailableDate returns the earliest day on or after from with at
// least one slot. A zero from means today.
func (r *Resolver) FindNearestAvailableDate(ctx context.Context, professionalID string, from time.Time) (time.Time, bool) {
	if from.IsZero() {
		from = r.Today()
	}
	fromKey := catalog.DayKey(from)

	var (
		best  time.Time
		found bool
	)
	for _, day := range r.days(ctx, professionalID) {
		if len(day.Slots) == 0 || catalog.DayKey(day.Date) < fromKey {
			continue
		}
		if !found || catalog.DayKey(day.Date) < catalog.DayKey(best) {
			best = day.Date
			found = true
		}
	}
	if !found {
		return time.Time{}, false
	}
	return catalog.Day(best), true
}

// DayAvailability summarises one calendar day for a month view.
type DayAvailability struct {
	Date     time.Time `json:"date"`
	Slots    []string  `json:"slots"`
	Bookable bool      `json:"bookable"`
}

// Month lists every day of the month with its slots and whether it can be
// picked, the way a date picker greys out days.
func (r *Resolver) Month(ctx context.Context, professionalID string, year int, month time.Month) []DayAvailability {
	loc := r.now().Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	days := r.days(ctx, professionalID)
	todayKey := catalog.DayKey(r.Today())

	var out []DayAvailability
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		entry := DayAvailability{Date: d, Slots: []string{}}
		for _, day := range days {
			if catalog.SameDay(day.Date, d) {
				entry.Slots = append(entry.Slots, day.Slots...)
				slices.Sort(entry.Slots)
				break
			}
		}
		entry.Bookable = professionalID != "" && catalog.DayKey(d) >= todayKey && len(entry.Slots) > 0
		out = append(out, entry)
	}
	return out
}

// HasSlot reports whether the professional offers the exact start time.
func (r *Resolver) HasSlot(ctx context.Context, professionalID string, date time.Time, slot string) bool {
	return slices.Contains(r.SlotsFor(ctx, professionalID, date), slot)
}
