package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/medischedule/internal/api"
	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/internal/booking"
	"github.com/hackgods/medischedule/internal/catalog"
)

var errConflict = errors.New("conflict")

// apiClient talks to a running api-server the way the booking UI would.
type apiClient struct {
	base string
	http *http.Client
}

func (c *apiClient) do(ctx context.Context, method, path string, role appointment.Role, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set(api.RoleHeader, string(role))
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return errConflict
	case resp.StatusCode >= 300:
		var e api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// catalogSnapshot is read once at startup; bookings pick from it.
type catalogSnapshot struct {
	patients      []catalog.Patient
	professionals []catalog.Professional
}

func (c *apiClient) loadCatalog(ctx context.Context) (*catalogSnapshot, error) {
	snap := &catalogSnapshot{}
	if err := c.do(ctx, http.MethodGet, "/patients", appointment.RoleStaff, nil, &snap.patients); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	if err := c.do(ctx, http.MethodGet, "/professionals", appointment.RoleStaff, nil, &snap.professionals); err != nil {
		return nil, fmt.Errorf("load professionals: %w", err)
	}
	if len(snap.patients) == 0 || len(snap.professionals) == 0 {
		return nil, errors.New("catalog is empty, run cmd/seed first")
	}
	return snap, nil
}

// book walks the booking form: professional, specialty, nearest date, a
// free slot, then submit. Patients land in pending_approval. It returns
// nil without an error when no professional has an open day.
func (c *apiClient) book(ctx context.Context, snap *catalogSnapshot, role appointment.Role, faker *gofakeit.Faker) (*appointment.View, error) {
	patient := snap.patients[faker.Number(0, len(snap.patients)-1)]

	// start at a random professional and take the first one with an open day
	var (
		prof    catalog.Professional
		nearest api.NearestDateResponse
	)
	start := faker.Number(0, len(snap.professionals)-1)
	for i := range snap.professionals {
		prof = snap.professionals[(start+i)%len(snap.professionals)]
		if err := c.do(ctx, http.MethodGet, "/professionals/"+url.PathEscape(prof.ID)+"/nearest-date", role, nil, &nearest); err != nil {
			return nil, err
		}
		if nearest.Found {
			break
		}
	}
	if !nearest.Found {
		return nil, nil
	}

	var slots api.SlotsResponse
	q := "?date=" + url.QueryEscape(nearest.Date)
	if err := c.do(ctx, http.MethodGet, "/professionals/"+url.PathEscape(prof.ID)+"/slots"+q, role, nil, &slots); err != nil {
		return nil, err
	}
	if len(slots.Slots) == 0 {
		return nil, nil
	}

	req := booking.Request{
		PatientID:       patient.ID,
		ProfessionalID:  prof.ID,
		AppointmentType: appointment.TypeInPerson,
		DateTimeSlot:    nearest.Date + "T" + slots.Slots[faker.Number(0, len(slots.Slots)-1)],
		Notes:           "simulated: " + faker.Word(),
	}
	if len(prof.SpecialtyIDs) > 0 {
		req.SpecialtyID = prof.SpecialtyIDs[faker.Number(0, len(prof.SpecialtyIDs)-1)]
	}
	if faker.Bool() {
		req.AppointmentType = appointment.TypeVirtual
		req.VideoCallLink = fmt.Sprintf("https://meet.example.com/sim-%d", faker.Number(100000, 999999))
	} else {
		req.Location = faker.Company() + ", " + faker.Street()
	}

	var created appointment.View
	if err := c.do(ctx, http.MethodPost, "/appointments", role, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *apiClient) action(ctx context.Context, id, action string, role appointment.Role) error {
	return c.do(ctx, http.MethodPost, "/appointments/"+id+"/"+action, role, nil, nil)
}

func (c *apiClient) read(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodGet, path, appointment.RoleStaff, nil, nil)
}

func newAPIClient(base string, timeout time.Duration) *apiClient {
	return &apiClient{base: base, http: &http.Client{Timeout: timeout}}
}
