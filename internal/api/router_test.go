package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/internal/availability"
	"github.com/hackgods/medischedule/internal/booking"
	"github.com/hackgods/medischedule/internal/catalog"
	"github.com/hackgods/medischedule/internal/metrics"
	"github.com/hackgods/medischedule/internal/reminder"
)

var now = time.Date(2024, 8, 14, 10, 0, 0, 0, time.UTC)

type stubGenerator struct{ err error }

func (g stubGenerator) Generate(_ context.Context, req reminder.Request) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "Hola " + req.PatientName + ", le esperamos en " + req.Location + ".", nil
}

type server struct {
	handler http.Handler
	appts   []appointment.Appointment
}

func newServer(t *testing.T, gen reminder.Generator) server {
	t.Helper()
	clock := func() time.Time { return now }

	dir := catalog.NewMemoryDirectory(catalog.Seed(now))
	res := availability.NewResolver(dir, clock, nil)
	repo := appointment.NewMemoryRepository(clock)
	seed := appointment.Seed(now)
	require.NoError(t, appointment.Load(context.Background(), repo, seed))

	reg := prometheus.NewRegistry()
	svc := appointment.NewService(appointment.Deps{
		Repo:      repo,
		Directory: dir,
		Resolver:  res,
		Metrics:   metrics.NewBookingMetrics(reg),
		Now:       clock,
	})
	rem := reminder.NewService(reminder.Config{Generator: gen, Appointments: svc})

	h := NewRouter(RouterConfig{
		Directory:    dir,
		Resolver:     res,
		Appointments: svc,
		Booking:      booking.NewWorkflow(dir, res, svc, nil, nil),
		Reminders:    rem,
		Gatherer:     reg,
		HTTPMetrics:  metrics.NewHTTPMetrics(reg),
		Env:          "test",
	})
	return server{handler: h, appts: seed}
}

func (s server) do(t *testing.T, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if role != "" {
		req.Header.Set(RoleHeader, role)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthWithoutDependencies(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "disabled", resp.Dependencies["postgres"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadinessReportsDependencies(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := NewHealthHandler(downPinger{}, rdb, "test", "v1")
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "down", resp.Dependencies["postgres"])
	assert.Equal(t, "ok", resp.Dependencies["redis"])

	unreachable := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = unreachable.Close() })
	rec = httptest.NewRecorder()
	NewHealthHandler(nil, unreachable, "test", "v1").Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", decode[ReadinessResponse](t, rec).Status)
}

func TestCatalogEndpoints(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, http.MethodGet, "/patients/pat404", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "patient_not_found", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodGet, "/specialties?professional_id=prof2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	specs := decode[[]catalog.Specialty](t, rec)
	require.Len(t, specs, 2)
	assert.Equal(t, "Cardiología", specs[0].Name)
	assert.Equal(t, "Medicina General", specs[1].Name)

	rec = s.do(t, http.MethodGet, "/professionals/prof1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dra. Ana Pérez", decode[catalog.Professional](t, rec).Name)

	rec = s.do(t, http.MethodGet, "/patients/pat1/appointments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]appointment.View](t, rec), 2)
}

func TestAvailabilityEndpoints(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, http.MethodGet, "/professionals/prof1/slots?date=2024-08-15", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"09:00", "09:30"}, decode[SlotsResponse](t, rec).Slots)

	rec = s.do(t, http.MethodGet, "/professionals/prof1/bookable?date=2024-08-12", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[BookableResponse](t, rec).Bookable)

	rec = s.do(t, http.MethodGet, "/professionals/prof3/nearest-date", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nearest := decode[NearestDateResponse](t, rec)
	assert.True(t, nearest.Found)
	assert.Equal(t, "2024-08-18", nearest.Date)

	rec = s.do(t, http.MethodGet, "/professionals/prof5/nearest-date", "", nil)
	assert.False(t, decode[NearestDateResponse](t, rec).Found)

	rec = s.do(t, http.MethodGet, "/professionals/prof1/availability?month=2024-08", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]availability.DayAvailability](t, rec), 31)

	rec = s.do(t, http.MethodGet, "/professionals/prof1/slots?date=15-08-2024", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/professionals/prof9/slots?date=2024-08-15", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingByRole(t *testing.T) {
	s := newServer(t, nil)
	body := booking.Request{
		PatientID:       "pat1",
		ProfessionalID:  "prof1",
		AppointmentType: appointment.TypeVirtual,
		DateTimeSlot:    "2024-08-15T09:00",
		VideoCallLink:   "https://meet.example.com/ruiz",
	}

	rec := s.do(t, http.MethodPost, "/appointments", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[appointment.View](t, rec)
	assert.Equal(t, appointment.StatusPendingApproval, created.Status)
	assert.Equal(t, "Carlos Ruiz", created.PatientName)
	assert.Equal(t, "https://meet.example.com/ruiz", created.VideoCallLink)

	rec = s.do(t, http.MethodPost, "/appointments", "staff", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, appointment.StatusScheduled, decode[appointment.View](t, rec).Status)
}

func TestBookingValidationIsFieldScoped(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, http.MethodPost, "/appointments", "", booking.Request{
		PatientID:       "pat1",
		ProfessionalID:  "prof1",
		AppointmentType: appointment.TypeInPerson,
		DateTimeSlot:    "2024-08-15T09:00",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_failed", resp.Error)
	assert.Equal(t, booking.FieldErrors{"location": "location is required for in-person appointments"}, resp.Fields)

	rec = s.do(t, http.MethodPost, "/appointments", "", map[string]string{"slot": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAppointments(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, http.MethodGet, "/appointments?q=cardio", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	views := decode[[]appointment.View](t, rec)
	require.Len(t, views, 3)
	for _, v := range views {
		assert.Contains(t, v.SpecialtyName, "Cardio")
	}

	rec = s.do(t, http.MethodGet, "/appointments?window=upcoming&sort=date_asc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, v := range decode[[]appointment.View](t, rec) {
		assert.False(t, v.Status.Terminal())
	}

	rec = s.do(t, http.MethodGet, "/appointments?sort=sideways", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/appointments/calendar?month=2024-08", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]appointment.CalendarDay](t, rec), 7)

	rec = s.do(t, http.MethodGet, "/dashboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[appointment.Summary](t, rec).PendingApproval)

	rec = s.do(t, http.MethodGet, "/appointments/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusActions(t *testing.T) {
	s := newServer(t, nil)
	pending := s.appts[3].ID.String()
	completed := s.appts[2].ID.String()

	rec := s.do(t, http.MethodPost, "/appointments/"+pending+"/approve", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "patients cannot approve")

	rec = s.do(t, http.MethodPost, "/appointments/"+pending+"/approve", "staff", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, appointment.StatusScheduled, decode[appointment.View](t, rec).Status)

	rec = s.do(t, http.MethodPost, "/appointments/"+completed+"/cancel", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_status_transition", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodPost, "/appointments/"+pending+"/reschedule", "", RescheduleRequest{DateTime: "2024-08-18T11:30"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/appointments/"+pending+"/reschedule", "", RescheduleRequest{DateTime: "2024-08-18T18:00"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_not_available", decode[ErrorResponse](t, rec).Error)
}

func TestReminderEndpoints(t *testing.T) {
	s := newServer(t, stubGenerator{})

	rec := s.do(t, http.MethodPost, "/reminders", "", reminder.Request{
		PatientName:         "Carlos Ruiz",
		AppointmentDateTime: "2024-08-15T14:30",
		Location:            "Clinic A",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hola Carlos Ruiz, le esperamos en Clinic A.", decode[reminder.Response](t, rec).ReminderMessage)

	rec = s.do(t, http.MethodPost, "/reminders", "", reminder.Request{PatientName: "Carlos Ruiz"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/appointments/"+s.appts[0].ID.String()+"/reminder", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[reminder.Response](t, rec).ReminderMessage, "Clínica A, Consultorio 101")

	failing := newServer(t, stubGenerator{err: errors.New("timeout")})
	rec = failing.do(t, http.MethodPost, "/appointments/"+s.appts[0].ID.String()+"/reminder", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	unconfigured := newServer(t, nil)
	rec = unconfigured.do(t, http.MethodPost, "/appointments/"+s.appts[0].ID.String()+"/reminder", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t, nil)
	s.do(t, http.MethodGet, "/patients", "", nil)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `medischedule_http_requests_total{method="GET",route="/patients",status="200"} 1`)
}
