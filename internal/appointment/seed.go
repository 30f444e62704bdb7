package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Seed returns the demo appointment book, dated relative to now.
func Seed(now time.Time) []Appointment {
	at := func(offset int) time.Time {
		d := now.AddDate(0, 0, offset)
		return time.Date(d.Year(), d.Month(), d.Day(), 10, 0, 0, 0, now.Location())
	}
	appt := func(n int, patient, professional, specialty string, offset int, status Status) Appointment {
		origin := RoleStaff
		if status == StatusPendingApproval {
			origin = RolePatient
		}
		return Appointment{
			ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("medischedule-app%d", n))),
			PatientID:      patient,
			ProfessionalID: professional,
			SpecialtyID:    specialty,
			DateTime:       at(offset),
			Status:         status,
			Type:           TypeInPerson,
			Origin:         origin,
		}
	}

	a1 := appt(1, "pat1", "prof1", "spec1", 2, StatusScheduled)
	a1.Location = "Clínica A, Consultorio 101"
	a1.Notes = "Revisión regular."

	a2 := appt(2, "pat2", "prof2", "spec2", 5, StatusScheduled)
	a2.Location = "Hospital Principal, Ala B"

	a3 := appt(3, "pat3", "prof1", "spec1", -7, StatusCompleted)
	a3.Location = "Clínica A, Consultorio 102"
	a3.Notes = "Vacunación completa."

	a4 := appt(4, "pat4", "prof3", "spec3", 1, StatusPendingApproval)
	a4.Type = TypeVirtual
	a4.Location = "Telemedicina"
	a4.VideoCallLink = "https://meet.example.com/neuro-lopez-pendiente"

	a5 := appt(5, "pat5", "prof2", "spec2", -3, StatusCancelled)
	a5.Location = "Hospital Principal, Ala B"
	a5.Notes = "Paciente reprogramó."

	a6 := appt(6, "pat1", "prof2", "spec2", -30, StatusCompleted)
	a6.Location = "Hospital Principal, Ala C"

	a7 := appt(7, "pat3", "prof4", "spec4", 3, StatusPendingApproval)
	a7.Location = "Clínica Nuevos Pacientes"
	a7.Notes = "Necesita consulta inicial."

	a8 := appt(8, "pat2", "prof1", "spec1", -1, StatusNotAttended)
	a8.Location = "Clínica A"
	a8.Notes = "El paciente no se presentó a la cita."

	return []Appointment{a1, a2, a3, a4, a5, a6, a7, a8}
}

// Load stores every appointment as-is, skipping the status rules.
func Load(ctx context.Context, repo Repository, appts []Appointment) error {
	for _, a := range appts {
		if _, err := repo.Create(ctx, a); err != nil {
			return fmt.Errorf("load appointment %s: %w", a.ID, err)
		}
	}
	return nil
}
