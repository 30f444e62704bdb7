package booking

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/internal/catalog"
)

// SlotLayout is the wire format of a chosen date and time.
const SlotLayout = "2006-01-02T15:04"

var (
	ErrSpecialtyNotOffered = errors.New("specialty is not offered by the selected professional")
	ErrNoProfessional      = errors.New("no professional selected")
	ErrDateNotSelected     = errors.New("no date selected")
	ErrSlotNotOffered      = errors.New("time slot is not offered on the selected date")
)

// Values is what a booking form submits. Field names double as the keys of
// FieldErrors.
type Values struct {
	PatientID       string           `json:"patientId" validate:"required"`
	ProfessionalID  string           `json:"professionalId" validate:"required"`
	SpecialtyID     string           `json:"specialtyId,omitempty"`
	AppointmentType appointment.Type `json:"appointmentType" validate:"required,oneof=in_person virtual"`
	DateTimeSlot    string           `json:"dateTimeSlot" validate:"required,datetime=2006-01-02T15:04"`
	Location        string           `json:"location,omitempty" validate:"required_if=AppointmentType in_person"`
	VideoCallLink   string           `json:"videoCallLink,omitempty" validate:"required_if=AppointmentType virtual,omitempty,url"`
	Notes           string           `json:"notes,omitempty"`
}

// Form holds one user's in-progress booking. Selection events keep the
// dependent fields consistent: a date/time never outlives the professional
// or specialty it was picked for.
//
// A Form is not safe for concurrent use.
type Form struct {
	w    *Workflow
	role appointment.Role

	values     Values
	date       time.Time
	timeSlots  []string
	pickerOpen bool
}

func (f *Form) Values() Values { return f.values }

func (f *Form) Role() appointment.Role { return f.role }

// SelectedDate is the date chosen in the picker, zero when none.
func (f *Form) SelectedDate() time.Time { return f.date }

// TimeSlots lists the slots of the selected date.
func (f *Form) TimeSlots() []string { return slices.Clone(f.timeSlots) }

func (f *Form) PickerOpen() bool { return f.pickerOpen }

// CanSubmit reports whether the submit control should be enabled.
func (f *Form) CanSubmit() bool {
	return f.values.ProfessionalID != "" && f.values.DateTimeSlot != ""
}

func (f *Form) SelectPatient(id string) {
	f.values.PatientID = strings.TrimSpace(id)
}

// SelectProfessional switches professional. The specialty survives only if
// the new professional offers it; the date and time never do.
func (f *Form) SelectProfessional(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		f.ClearProfessional()
		return nil
	}
	if id == f.values.ProfessionalID {
		return nil
	}

	prof, err := f.w.dir.GetProfessional(ctx, id)
	if err != nil {
		return err
	}

	f.values.ProfessionalID = prof.ID
	if f.values.SpecialtyID != "" && !prof.Offers(f.values.SpecialtyID) {
		f.values.SpecialtyID = ""
	}
	f.clearDateTime()
	return nil
}

func (f *Form) ClearProfessional() {
	f.values.ProfessionalID = ""
	f.values.SpecialtyID = ""
	f.clearDateTime()
}

// SelectSpecialty narrows the booking to one specialty, which must be
// offered by the selected professional when there is one.
func (f *Form) SelectSpecialty(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		f.ClearSpecialty()
		return nil
	}
	if id == f.values.SpecialtyID {
		return nil
	}

	spec, err := f.w.dir.GetSpecialty(ctx, id)
	if err != nil {
		return err
	}
	if f.values.ProfessionalID != "" {
		prof, err := f.w.dir.GetProfessional(ctx, f.values.ProfessionalID)
		if err != nil {
			return err
		}
		if !prof.Offers(spec.ID) {
			return ErrSpecialtyNotOffered
		}
	}

	f.values.SpecialtyID = spec.ID
	f.clearDateTime()
	return nil
}

func (f *Form) ClearSpecialty() {
	f.values.SpecialtyID = ""
	f.clearDateTime()
}

// OpenPicker opens the date/time picker and returns the date it should
// focus on: the professional's nearest bookable day.
func (f *Form) OpenPicker(ctx context.Context) (time.Time, bool) {
	if f.values.ProfessionalID == "" {
		return time.Time{}, false
	}
	f.pickerOpen = true
	if !f.date.IsZero() {
		return f.date, true
	}
	return f.w.resolver.FindNearestAvailableDate(ctx, f.values.ProfessionalID, time.Time{})
}

func (f *Form) ClosePicker() {
	f.pickerOpen = false
}

// SelectDate picks a day in the picker and returns its slots. A day that is
// not bookable leaves nothing selected.
func (f *Form) SelectDate(ctx context.Context, date time.Time) []string {
	f.clearDateTime()
	if f.values.ProfessionalID == "" || date.IsZero() {
		return []string{}
	}
	// the picked calendar day, placed in the clinic's location
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, f.w.location())
	if !f.w.resolver.IsDateBookable(ctx, f.values.ProfessionalID, day) {
		return []string{}
	}

	f.date = day
	f.timeSlots = f.w.resolver.SlotsFor(ctx, f.values.ProfessionalID, day)
	return f.TimeSlots()
}

// SelectTime fixes the slot on the selected date and closes the picker.
func (f *Form) SelectTime(slot string) error {
	if f.date.IsZero() {
		return ErrDateNotSelected
	}
	if !slices.Contains(f.timeSlots, slot) {
		return ErrSlotNotOffered
	}
	f.values.DateTimeSlot = f.date.Format(catalog.DateLayout) + "T" + slot
	f.pickerOpen = false
	return nil
}

func (f *Form) SetAppointmentType(t appointment.Type) {
	f.values.AppointmentType = t
}

func (f *Form) SetLocation(location string) {
	f.values.Location = strings.TrimSpace(location)
}

func (f *Form) SetVideoCallLink(link string) {
	f.values.VideoCallLink = strings.TrimSpace(link)
}

func (f *Form) SetNotes(notes string) {
	f.values.Notes = strings.TrimSpace(notes)
}

func (f *Form) clearDateTime() {
	f.date = time.Time{}
	f.timeSlots = nil
	f.values.DateTimeSlot = ""
}

// Validate checks the whole form and returns one message per failing field.
// An empty result means the form can be submitted.
func (f *Form) Validate(ctx context.Context) FieldErrors {
	return f.w.validate(ctx, f.values)
}

// Submit validates the form and stores the appointment under the form's
// role. Validation failures come back as a *ValidationError.
func (f *Form) Submit(ctx context.Context) (*appointment.Appointment, error) {
	if fields := f.Validate(ctx); len(fields) > 0 {
		f.w.reject(fields)
		return nil, &ValidationError{Fields: fields}
	}
	return f.w.submit(ctx, f.role, f.values)
}
