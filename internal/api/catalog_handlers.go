package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/internal/availability"
	"github.com/hackgods/medischedule/internal/catalog"
)

func listPatientsHandler(dir catalog.Directory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := dir.ListPatients(r.Context())
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, patients)
	}
}

func getPatientHandler(dir catalog.Directory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := dir.GetPatient(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// patientHistoryHandler lists one patient's appointments, newest first.
func patientHistoryHandler(dir catalog.Directory, svc *appointment.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := dir.GetPatient(r.Context(), id); err != nil {
			handleError(logger, w, err)
			return
		}

		views, err := svc.List(r.Context(), appointment.Filter{PatientID: id}, appointment.SortDateDesc)
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func listProfessionalsHandler(dir catalog.Directory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profs, err := dir.ListProfessionals(r.Context())
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, profs)
	}
}

func getProfessionalHandler(dir catalog.Directory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := dir.GetProfessional(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func listSpecialtiesHandler(dir catalog.Directory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specs, err := catalog.ListSpecialtiesFor(r.Context(), dir, r.URL.Query().Get("professional_id"))
		if err != nil {
			handleError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, specs)
	}
}

// professionalParam loads the {id} professional, writing the error response
// itself when that fails.
func professionalParam(dir catalog.Directory, logger *zap.Logger, w http.ResponseWriter, r *http.Request) (*catalog.Professional, bool) {
	p, err := dir.GetProfessional(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(logger, w, err)
		return nil, false
	}
	return p, true
}

func dateQuery(res *availability.Resolver, w http.ResponseWriter, r *http.Request, key string, required bool) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		if required {
			writeError(w, http.StatusBadRequest, "invalid_date", key+" is required (YYYY-MM-DD)")
			return time.Time{}, false
		}
		return time.Time{}, true
	}
	d, err := catalog.ParseDate(raw, res.Today().Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", key+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func monthQuery(res *availability.Resolver, w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		today := res.Today()
		return today.Year(), today.Month(), true
	}
	m, err := time.Parse("2006-01", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_month", "month must be YYYY-MM")
		return 0, 0, false
	}
	return m.Year(), m.Month(), true
}

func slotsHandler(dir catalog.Directory, res *availability.Resolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := professionalParam(dir, logger, w, r)
		if !ok {
			return
		}
		date, ok := dateQuery(res, w, r, "date", true)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, SlotsResponse{
			ProfessionalID: p.ID,
			Date:           dateString(date),
			Slots:          res.SlotsFor(r.Context(), p.ID, date),
		})
	}
}

func bookableHandler(dir catalog.Directory, res *availability.Resolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := professionalParam(dir, logger, w, r)
		if !ok {
			return
		}
		date, ok := dateQuery(res, w, r, "date", true)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, BookableResponse{
			ProfessionalID: p.ID,
			Date:           dateString(date),
			Bookable:       res.IsDateBookable(r.Context(), p.ID, date),
		})
	}
}

func nearestDateHandler(dir catalog.Directory, res *availability.Resolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := professionalParam(dir, logger, w, r)
		if !ok {
			return
		}
		from, ok := dateQuery(res, w, r, "from", false)
		if !ok {
			return
		}

		resp := NearestDateResponse{ProfessionalID: p.ID}
		if d, found := res.FindNearestAvailableDate(r.Context(), p.ID, from); found {
			resp.Found = true
			resp.Date = dateString(d)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func monthAvailabilityHandler(dir catalog.Directory, res *availability.Resolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := professionalParam(dir, logger, w, r)
		if !ok {
			return
		}
		year, month, ok := monthQuery(res, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, res.Month(r.Context(), p.ID, year, month))
	}
}
