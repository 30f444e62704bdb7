package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/internal/availability"
	"github.com/hackgods/medischedule/internal/booking"
	"github.com/hackgods/medischedule/internal/reminder"
)

func createAppointmentHandler(wf *booking.Workflow, svc *appointment.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req booking.Request
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := wf.Book(r.Context(), RoleFrom(r.Context()), req)
		if err != nil {
			handleError(logger, w, err)
			return
		}

		writeJSON(w, http.StatusCreated, svc.Describe(r.Context(), *appt))
	}
}

func listAppointmentsHandler(svc *appointment.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		order, err := appointment.ParseSort(q.Get("sort"))
		if err != nil {
			handleError(logger, w, err)
			return
		}

		views, err := svc.List(r.Context(), filterFromQuery(r), order)
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func filterFromQuery(r *http.Request) appointment.Filter {
	q := r.URL.Query()
	return appointment.Filter{
		SearchText:     q.Get("q"),
		Status:         appointment.Status(q.Get("status")),
		TimeWindow:     appointment.TimeWindow(q.Get("window")),
		PatientID:      q.Get("patient_id"),
		ProfessionalID: q.Get("professional_id"),
	}
}

func calendarHandler(svc *appointment.Service, res *availability.Resolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, month, ok := monthQuery(res, w, r)
		if !ok {
			return
		}
		days, err := svc.Calendar(r.Context(), year, month, filterFromQuery(r))
		if err != nil {
			handleError(logger, w, err)
			return
		}
		if days == nil {
			days = []appointment.CalendarDay{}
		}
		writeJSON(w, http.StatusOK, days)
	}
}

func dashboardHandler(svc *appointment.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Dashboard(r.Context(), filterFromQuery(r))
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func getAppointmentHandler(svc *appointment.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.Describe(r.Context(), *appt))
	}
}

type statusAction func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)

// statusHandler runs one lifecycle action (approve, cancel, ...) on {id}.
func statusHandler(svc *appointment.Service, action statusAction, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := action(r.Context(), id)
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.Describe(r.Context(), *appt))
	}
}

func rescheduleHandler(svc *appointment.Service, res *availability.Resolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req RescheduleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		at, err := time.ParseInLocation(booking.SlotLayout, req.DateTime, res.Today().Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date_time", "dateTime must look like 2006-01-02T15:04")
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, at)
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.Describe(r.Context(), *appt))
	}
}

func generateReminderHandler(rem *reminder.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reminder.Request
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		resp, err := rem.Generate(r.Context(), req)
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func appointmentReminderHandler(rem *reminder.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req AppointmentReminderRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		resp, err := rem.ForAppointment(r.Context(), id, req.SpecialInstructions)
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
