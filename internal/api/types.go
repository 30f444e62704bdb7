package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hackgods/medischedule/internal/booking"
	"github.com/hackgods/medischedule/internal/catalog"
)

type ErrorResponse struct {
	Error   string              `json:"error"`
	Details string              `json:"details,omitempty"`
	Fields  booking.FieldErrors `json:"fields,omitempty"`
}

type RescheduleRequest struct {
	DateTime string `json:"dateTime"` // 2006-01-02T15:04
}

type AppointmentReminderRequest struct {
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

type SlotsResponse struct {
	ProfessionalID string   `json:"professional_id"`
	Date           string   `json:"date"`
	Slots          []string `json:"slots"`
}

type BookableResponse struct {
	ProfessionalID string `json:"professional_id"`
	Date           string `json:"date"`
	Bookable       bool   `json:"bookable"`
}

type NearestDateResponse struct {
	ProfessionalID string `json:"professional_id"`
	Found          bool   `json:"found"`
	Date           string `json:"date,omitempty"`
}

func dateString(t time.Time) string {
	return t.Format(catalog.DateLayout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
