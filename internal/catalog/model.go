package catalog

import (
	"slices"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Patient struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Document *string `json:"document,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

type Specialty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AvailabilityDay lists the bookable start times of a professional on one
// calendar day. Slots are opaque "HH:MM" labels, unique within the day.
type AvailabilityDay struct {
	Date  time.Time `json:"date"`
	Slots []string  `json:"slots"`
}

type Professional struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Document     string            `json:"document"`
	SpecialtyIDs []string          `json:"specialty_ids"`
	Availability []AvailabilityDay `json:"availability,omitempty"`
}

// Offers reports whether the professional practises the given specialty.
func (p *Professional) Offers(specialtyID string) bool {
	return slices.Contains(p.SpecialtyIDs, specialtyID)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay compares calendar days, ignoring the time of day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// DayKey orders calendar days independently of location.
func DayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
