package catalog

import "time"

// Data is a full catalog snapshot, used to seed a directory.
type Data struct {
	Patients      []Patient
	Professionals []Professional
	Specialties   []Specialty
}

func strPtr(s string) *string { return &s }

// Seed returns the clinic's demo catalog. Availability is laid out relative
// to now so the demo always has open days ahead of it.
func Seed(now time.Time) Data {
	today := Day(now)
	day := func(offset int, slots ...string) AvailabilityDay {
		if slots == nil {
			slots = []string{}
		}
		return AvailabilityDay{Date: today.AddDate(0, 0, offset), Slots: slots}
	}

	return Data{
		Patients: []Patient{
			{ID: "pat1", Name: "Carlos Ruiz", Document: strPtr("12345678A"), Email: strPtr("carlos.ruiz@example.com"), Phone: strPtr("555-0101")},
			{ID: "pat2", Name: "Ana García", Document: strPtr("87654321B"), Email: strPtr("ana.garcia@example.com"), Phone: strPtr("555-0102")},
			{ID: "pat3", Name: "Luis Fernández", Document: strPtr("11223344C"), Email: strPtr("luis.fernandez@example.com"), Phone: strPtr("555-0103")},
			{ID: "pat4", Name: "Sofía López", Document: strPtr("44332211D"), Email: strPtr("sofia.lopez@example.com")},
			{ID: "pat5", Name: "Javier Martínez", Document: strPtr("55667788E"), Email: strPtr("javier.martinez@example.com"), Phone: strPtr("555-0105")},
		},
		Professionals: []Professional{
			{
				ID: "prof1", Name: "Dra. Ana Pérez", Document: "11223344A", SpecialtyIDs: []string{"spec1"},
				Availability: []AvailabilityDay{
					day(-2, "09:00"),
					day(1, "09:00", "09:30"),
					day(3, "10:00", "10:30", "11:00"),
					day(7, "09:00"),
				},
			},
			{
				ID: "prof2", Name: "Dr. Juan Torres", Document: "55667788B", SpecialtyIDs: []string{"spec2", "spec4"},
				Availability: []AvailabilityDay{
					day(0, "15:00", "15:30"),
					day(2, "08:00", "08:30", "09:00"),
					day(5, "14:00"),
				},
			},
			{
				ID: "prof3", Name: "Dra. Laura Vargas", Document: "99001122C", SpecialtyIDs: []string{"spec3"},
				Availability: []AvailabilityDay{
					day(1),
					day(4, "11:00", "11:30"),
				},
			},
			{
				ID: "prof4", Name: "Dr. Genérico", Document: "12345678G", SpecialtyIDs: []string{"spec4"},
				Availability: []AvailabilityDay{
					day(2, "09:00", "10:00", "11:00", "12:00"),
					day(3, "09:00", "10:00", "11:00", "12:00"),
				},
			},
			{ID: "prof5", Name: "Dr. Carlos Solis", Document: "87654321S", SpecialtyIDs: []string{"spec2"}},
		},
		Specialties: []Specialty{
			{ID: "spec1", Name: "Pediatría"},
			{ID: "spec2", Name: "Cardiología"},
			{ID: "spec3", Name: "Neurología"},
			{ID: "spec4", Name: "Medicina General"},
			{ID: "spec5", Name: "Dermatología"},
		},
	}
}
