package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/internal/availability"
	"github.com/hackgods/medischedule/internal/catalog"
	"github.com/hackgods/medischedule/internal/metrics"
)

var ErrInvalidBooking = errors.New("booking form is invalid")

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

// ValidationError carries every field that failed. It matches
// ErrInvalidBooking under errors.Is.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid booking: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidBooking
}

// Request is the JSON body of a booking submitted in one go.
type Request = Values

type Workflow struct {
	dir          catalog.Directory
	resolver     *availability.Resolver
	appointments *appointment.Service
	validator    *validator.Validate
	metrics      *metrics.BookingMetrics
	logger       *zap.Logger
}

func NewWorkflow(
	dir catalog.Directory,
	resolver *availability.Resolver,
	appointments *appointment.Service,
	m *metrics.BookingMetrics,
	logger *zap.Logger,
) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Workflow{
		dir:          dir,
		resolver:     resolver,
		appointments: appointments,
		validator:    v,
		metrics:      m,
		logger:       logger,
	}
}

// NewForm starts an empty booking for a session acting as role.
func (w *Workflow) NewForm(role appointment.Role) *Form {
	return &Form{w: w, role: role}
}

// Book replays a whole request through a fresh form, as if the user had
// made each selection in turn, and submits it.
func (w *Workflow) Book(ctx context.Context, role appointment.Role, req Request) (*appointment.Appointment, error) {
	f := w.NewForm(role)
	replay := FieldErrors{}

	f.SelectPatient(req.PatientID)
	if err := f.SelectProfessional(ctx, req.ProfessionalID); err != nil {
		replay["professionalId"] = messageFor(err)
	}
	if err := f.SelectSpecialty(ctx, req.SpecialtyID); err != nil {
		replay["specialtyId"] = messageFor(err)
	}
	f.SetAppointmentType(req.AppointmentType)
	f.SetLocation(req.Location)
	f.SetVideoCallLink(req.VideoCallLink)
	f.SetNotes(req.Notes)

	if slot := strings.TrimSpace(req.DateTimeSlot); slot != "" && f.values.ProfessionalID != "" {
		if err := w.replaySlot(ctx, f, slot); err != nil {
			replay["dateTimeSlot"] = messageFor(err)
		}
	}

	fields := f.Validate(ctx)
	for k, msg := range replay {
		fields[k] = msg
	}
	if len(fields) > 0 {
		w.reject(fields)
		return nil, &ValidationError{Fields: fields}
	}
	return w.submit(ctx, role, f.values)
}

func (w *Workflow) replaySlot(ctx context.Context, f *Form, raw string) error {
	at, err := time.ParseInLocation(SlotLayout, raw, w.location())
	if err != nil {
		return errBadSlotFormat
	}
	f.OpenPicker(ctx)
	if len(f.SelectDate(ctx, at)) == 0 {
		return ErrSlotNotOffered
	}
	return f.SelectTime(at.Format(catalog.TimeLayout))
}

var errBadSlotFormat = errors.New("bad slot format")

func messageFor(err error) string {
	switch {
	case errors.Is(err, catalog.ErrProfessionalNotFound):
		return "professional not found"
	case errors.Is(err, catalog.ErrSpecialtyNotFound):
		return "specialty not found"
	case errors.Is(err, ErrSpecialtyNotOffered):
		return "specialty is not offered by this professional"
	case errors.Is(err, errBadSlotFormat):
		return "date and time must look like 2006-01-02T15:04"
	case errors.Is(err, ErrSlotNotOffered), errors.Is(err, ErrDateNotSelected):
		return "selected time is not available"
	default:
		return err.Error()
	}
}

func (w *Workflow) validate(ctx context.Context, v Values) FieldErrors {
	fields := FieldErrors{}

	if err := w.validator.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			fields["form"] = err.Error()
			return fields
		}
		for _, fe := range verrs {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = tagMessage(fe)
			}
		}
	}

	if _, bad := fields["patientId"]; !bad {
		if _, err := w.dir.GetPatient(ctx, v.PatientID); err != nil {
			fields["patientId"] = "patient not found"
		}
	}

	var prof *catalog.Professional
	if _, bad := fields["professionalId"]; !bad {
		p, err := w.dir.GetProfessional(ctx, v.ProfessionalID)
		if err != nil {
			fields["professionalId"] = messageFor(err)
		} else {
			prof = p
		}
	}

	if v.SpecialtyID != "" {
		if _, err := w.dir.GetSpecialty(ctx, v.SpecialtyID); err != nil {
			fields["specialtyId"] = messageFor(err)
		} else if prof != nil && !prof.Offers(v.SpecialtyID) {
			fields["specialtyId"] = messageFor(ErrSpecialtyNotOffered)
		}
	}

	if _, bad := fields["dateTimeSlot"]; !bad && prof != nil {
		at, err := time.ParseInLocation(SlotLayout, v.DateTimeSlot, w.location())
		switch {
		case err != nil:
			fields["dateTimeSlot"] = messageFor(errBadSlotFormat)
		case !w.resolver.IsDateBookable(ctx, prof.ID, at),
			!w.resolver.HasSlot(ctx, prof.ID, at, at.Format(catalog.TimeLayout)):
			fields["dateTimeSlot"] = messageFor(ErrSlotNotOffered)
		}
	}

	return fields
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Field() + "." + fe.Tag() {
	case "patientId.required":
		return "a patient must be selected"
	case "professionalId.required":
		return "a professional must be selected"
	case "appointmentType.required":
		return "an appointment type must be selected"
	case "appointmentType.oneof":
		return "appointment type must be in_person or virtual"
	case "dateTimeSlot.required":
		return "a date and time must be selected"
	case "dateTimeSlot.datetime":
		return messageFor(errBadSlotFormat)
	case "location.required_if":
		return "location is required for in-person appointments"
	case "videoCallLink.required_if":
		return "a video call link is required for virtual appointments"
	case "videoCallLink.url":
		return "video call link must be a valid URL"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

func (w *Workflow) reject(fields FieldErrors) {
	for field := range fields {
		w.metrics.ObserveRejected(field)
	}
	w.logger.Debug("booking rejected", zap.Any("fields", fields))
}

func (w *Workflow) submit(ctx context.Context, role appointment.Role, v Values) (*appointment.Appointment, error) {
	at, err := time.ParseInLocation(SlotLayout, v.DateTimeSlot, w.location())
	if err != nil {
		return nil, &ValidationError{Fields: FieldErrors{"dateTimeSlot": messageFor(errBadSlotFormat)}}
	}

	draft := appointment.Draft{
		PatientID:      v.PatientID,
		ProfessionalID: v.ProfessionalID,
		SpecialtyID:    v.SpecialtyID,
		DateTime:       at,
		Type:           v.AppointmentType,
		Location:       v.Location,
		Notes:          v.Notes,
	}
	// in-person visits carry no call link
	if v.AppointmentType == appointment.TypeVirtual {
		draft.VideoCallLink = v.VideoCallLink
	}

	return w.appointments.Create(ctx, draft, role)
}

func (w *Workflow) location() *time.Location {
	return w.resolver.Today().Location()
}
