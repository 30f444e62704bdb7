package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/internal/booking"
	"github.com/hackgods/medischedule/internal/catalog"
	"github.com/hackgods/medischedule/internal/reminder"
)

// handleError maps domain errors to HTTP responses. Anything unrecognised is
// logged and reported as an internal error without details.
func handleError(logger *zap.Logger, w http.ResponseWriter, err error) {
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "validation_failed",
			Fields: verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, catalog.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, catalog.ErrProfessionalNotFound):
		writeError(w, http.StatusNotFound, "professional_not_found", err.Error())
	case errors.Is(err, catalog.ErrSpecialtyNotFound):
		writeError(w, http.StatusNotFound, "specialty_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrStatusChanged),
		errors.Is(err, appointment.ErrAppointmentBusy):
		writeError(w, http.StatusConflict, "appointment_busy", err.Error())
	case errors.Is(err, appointment.ErrAppointmentClosed):
		writeError(w, http.StatusConflict, "appointment_closed", err.Error())
	case errors.Is(err, appointment.ErrSlotNotAvailable):
		writeError(w, http.StatusConflict, "slot_not_available", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, appointment.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, reminder.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_reminder_request", err.Error())
	case errors.Is(err, reminder.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "reminders_not_configured", err.Error())
	case errors.Is(err, reminder.ErrGenerationFailed):
		logger.Warn("reminder generation failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "reminder_generation_failed", "the reminder service did not answer, please try again")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
